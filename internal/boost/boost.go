// Package boost implements a binary gradient-boosted decision tree
// classifier: logistic loss, Newton leaf steps, and early stopping on a
// held-out validation slice. The rest of the system consumes it strictly as
// a Fit / PredictProba black box.
//
// Training is deterministic for a fixed Config.Seed, so retraining on the
// same cleaned dataset reproduces the same model.
package boost

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// ErrDegenerate reports training input the learner cannot fit: no rows, no
// columns, or a single-class target.
var ErrDegenerate = errors.New("degenerate training data")

// Config holds the boosting hyperparameters.
type Config struct {
	LearningRate       float64
	MaxDepth           int
	Rounds             int
	Patience           int     // early-stopping rounds without improvement; 0 disables
	ValidationFraction float64 // slice held out for early stopping
	MinSamplesLeaf     int
	Seed               int64
}

// DefaultConfig mirrors the tuned hyperparameters the model was selected
// with: 100 rounds of depth-7 trees at learning rate 0.1, stopping after 10
// stale rounds on a 10% validation slice.
func DefaultConfig() Config {
	return Config{
		LearningRate:       0.1,
		MaxDepth:           7,
		Rounds:             100,
		Patience:           10,
		ValidationFraction: 0.1,
		MinSamplesLeaf:     1,
		Seed:               42,
	}
}

// Model is a fitted classifier. All fields serialize to JSON so the model
// can live inside the artifact bundle.
type Model struct {
	Bias         float64 `json:"bias"`
	LearningRate float64 `json:"learning_rate"`
	NumFeatures  int     `json:"num_features"`
	Trees        []Tree  `json:"trees"`
}

// Fit trains a model on the feature matrix x and binary labels y (0 or 1).
// The positive class is label 1; PredictProba index 1 reports its
// probability.
func Fit(x [][]float64, y []int, cfg Config) (*Model, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty feature matrix", ErrDegenerate)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("boost: %d rows but %d labels", len(x), len(y))
	}
	if len(x[0]) == 0 {
		return nil, fmt.Errorf("%w: zero feature columns", ErrDegenerate)
	}

	var positives int
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("boost: label %d out of range", label)
		}
		positives += label
	}
	if positives == 0 || positives == len(y) {
		return nil, fmt.Errorf("%w: single-class target", ErrDegenerate)
	}

	trainIdx, valIdx := splitIndices(len(x), cfg)

	prior := float64(positives) / float64(len(y))
	m := &Model{
		Bias:         math.Log(prior / (1 - prior)),
		LearningRate: cfg.LearningRate,
		NumFeatures:  len(x[0]),
	}

	// Raw scores per row, updated as rounds accumulate.
	score := make([]float64, len(x))
	for i := range score {
		score[i] = m.Bias
	}

	grad := make([]float64, len(x))
	hess := make([]float64, len(x))

	bestLoss := math.Inf(1)
	bestRound := 0
	stale := 0

	for round := 0; round < cfg.Rounds; round++ {
		for _, i := range trainIdx {
			p := sigmoid(score[i])
			grad[i] = float64(y[i]) - p
			hess[i] = p * (1 - p)
		}

		tree := buildTree(x, grad, hess, trainIdx, cfg.MaxDepth, cfg.MinSamplesLeaf)
		m.Trees = append(m.Trees, tree)

		for i := range x {
			score[i] += cfg.LearningRate * tree.predict(x[i])
		}

		if cfg.Patience > 0 && len(valIdx) > 0 {
			loss := logLoss(score, y, valIdx)
			if loss < bestLoss-1e-7 {
				bestLoss = loss
				bestRound = round + 1
				stale = 0
			} else {
				stale++
				if stale >= cfg.Patience {
					m.Trees = m.Trees[:bestRound]
					log.Debug().
						Int("rounds", bestRound).
						Float64("val_loss", bestLoss).
						Msg("early stopping triggered")
					break
				}
			}
		}
	}

	return m, nil
}

// PredictProba returns the class probability distribution for one feature
// vector: index 0 for the negative class, index 1 for the positive class.
func (m *Model) PredictProba(x []float64) ([2]float64, error) {
	if len(x) != m.NumFeatures {
		return [2]float64{}, fmt.Errorf("boost: expected %d features, got %d", m.NumFeatures, len(x))
	}
	raw := m.Bias
	for i := range m.Trees {
		raw += m.LearningRate * m.Trees[i].predict(x)
	}
	p := sigmoid(raw)
	return [2]float64{1 - p, p}, nil
}

// Predict returns the argmax class index for one feature vector.
func (m *Model) Predict(x []float64) (int, error) {
	probs, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if probs[1] > probs[0] {
		return 1, nil
	}
	return 0, nil
}

// Validate checks structural sanity after deserialization.
func (m *Model) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("boost: model has %d features", m.NumFeatures)
	}
	if len(m.Trees) == 0 {
		return errors.New("boost: model has no trees")
	}
	for ti := range m.Trees {
		for _, n := range m.Trees[ti].Nodes {
			if !n.Leaf && (n.Feature < 0 || n.Feature >= m.NumFeatures) {
				return fmt.Errorf("boost: tree %d references feature %d", ti, n.Feature)
			}
		}
	}
	return nil
}

func splitIndices(n int, cfg Config) (train, val []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if cfg.Patience <= 0 || cfg.ValidationFraction <= 0 {
		return indices, nil
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	cut := int(float64(n) * cfg.ValidationFraction)
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		return indices, nil
	}
	return indices[cut:], indices[:cut]
}

func logLoss(score []float64, y []int, indices []int) float64 {
	losses := make([]float64, len(indices))
	for k, i := range indices {
		p := sigmoid(score[i])
		p = math.Min(math.Max(p, 1e-15), 1-1e-15)
		if y[i] == 1 {
			losses[k] = -math.Log(p)
		} else {
			losses[k] = -math.Log(1 - p)
		}
	}
	return floats.Sum(losses) / float64(len(losses))
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
