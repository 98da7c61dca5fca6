// Package pipeline runs the offline training flow: load the raw dataset,
// clean it, fit the encoders and the classifier, evaluate on a held-out
// test partition, and persist the artifact bundle atomically.
//
// Every stage failure is fatal and aborts before anything is written; a
// partial artifact is never persisted.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"mycoscan/internal/artifact"
	"mycoscan/internal/boost"
	"mycoscan/internal/cfg"
	"mycoscan/internal/dataset"
	"mycoscan/internal/encode"
	"mycoscan/internal/schema"
)

// ErrDegenerateData reports a dataset the pipeline cannot train on: no
// rows, a single-class target, or no usable features after pruning.
var ErrDegenerateData = errors.New("degenerate training data")

// Config holds everything one training run needs.
type Config struct {
	DatasetPath  string
	ArtifactPath string
	TestFraction float64
	Seed         int64
	Boost        boost.Config
}

// FromSettings maps service configuration onto a pipeline config.
func FromSettings(s cfg.Settings) Config {
	return Config{
		DatasetPath:  s.DatasetPath,
		ArtifactPath: s.ArtifactPath,
		TestFraction: s.TestFraction,
		Seed:         s.Seed,
		Boost: boost.Config{
			LearningRate:       s.LearningRate,
			MaxDepth:           s.MaxDepth,
			Rounds:             s.Rounds,
			Patience:           s.EarlyStopRounds,
			ValidationFraction: s.ValidationFraction,
			MinSamplesLeaf:     1,
			Seed:               s.Seed,
		},
	}
}

// Run executes the full training pipeline and returns the persisted
// bundle.
func Run(c Config) (*artifact.Bundle, error) {
	table, err := dataset.LoadCSV(c.DatasetPath)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrDegenerateData)
	}

	removed := table.Deduplicate()
	log.Info().Int("removed", removed).Int("remaining", len(table.Rows)).Msg("duplicates removed")

	table.DeriveIndicator()
	dropped := table.PruneColumns()
	if len(dropped) > 0 {
		log.Info().Strs("columns", dropped).Msg("columns pruned")
	}
	if len(table.Columns) <= 1 {
		return nil, fmt.Errorf("%w: no usable feature columns after pruning", ErrDegenerateData)
	}
	// The encoder consumes every registry field, so a dataset that cannot
	// sustain one of them cannot be trained on.
	registry := make(map[string]bool)
	for _, f := range schema.CategoricalFields() {
		registry[f] = true
	}
	for _, f := range schema.NumericalFields() {
		registry[f] = true
	}
	for _, name := range dropped {
		if registry[name] {
			return nil, fmt.Errorf("%w: required feature column %q carries no signal", ErrDegenerateData, name)
		}
	}

	if err := table.Impute(); err != nil {
		return nil, fmt.Errorf("imputation failed: %w", err)
	}

	specimens, labels, err := table.ToSpecimens()
	if err != nil {
		return nil, err
	}

	targetEnc, err := encode.FitTarget(labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateData, err)
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i], err = targetEnc.Encode(l)
		if err != nil {
			return nil, err
		}
	}

	catEnc := encode.FitCategorical(specimens)
	asm := encode.NewAssembler(catEnc)
	x := asm.Matrix(specimens)
	log.Info().
		Int("rows", len(x)).
		Int("features", asm.Width()).
		Int("one_hot", catEnc.Width()).
		Msg("training matrix assembled")

	trainIdx, testIdx := stratifiedSplit(y, c.TestFraction, c.Seed)
	log.Info().Int("train", len(trainIdx)).Int("test", len(testIdx)).Msg("stratified split")

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	model, err := boost.Fit(xTrain, yTrain, c.Boost)
	if err != nil {
		if errors.Is(err, boost.ErrDegenerate) {
			return nil, fmt.Errorf("%w: %v", ErrDegenerateData, err)
		}
		return nil, fmt.Errorf("training failed: %w", err)
	}
	log.Info().Int("trees", len(model.Trees)).Msg("classifier trained")

	eval, err := Evaluate(model, xTest, yTest)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	log.Info().
		Float64("accuracy", eval.Accuracy).
		Float64("precision", eval.Precision).
		Float64("recall", eval.Recall).
		Float64("f1", eval.F1).
		Msg("test-set evaluation")

	bundle := &artifact.Bundle{
		Version:      time.Now().Format("20060102-150405"),
		TrainedAt:    time.Now().UTC(),
		FeatureNames: asm.FeatureNames(),
		Encoder:      catEnc,
		Target:       targetEnc,
		Model:        model,
		Evaluation:   eval,
		TrainingRows: len(trainIdx),
	}

	if err := artifact.Save(bundle, c.ArtifactPath); err != nil {
		return nil, err
	}
	return bundle, nil
}

// stratifiedSplit partitions row indices into train and test sets while
// preserving the class proportions, deterministically for a given seed.
func stratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	// Iterate classes in a fixed order so the split does not depend on map
	// iteration.
	for label := 0; label < 2; label++ {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
		cut := int(float64(len(indices)) * testFraction)
		test = append(test, indices[:cut]...)
		train = append(train, indices[cut:]...)
	}
	return train, test
}

func subset(x [][]float64, y []int, indices []int) ([][]float64, []int) {
	xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for k, i := range indices {
		xs[k] = x[i]
		ys[k] = y[i]
	}
	return xs, ys
}
