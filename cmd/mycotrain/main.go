package main

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"mycoscan/internal/cfg"
	"mycoscan/internal/pipeline"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	start := time.Now()
	log.Info().
		Str("dataset", c.DatasetPath).
		Str("artifact", c.ArtifactPath).
		Msg("starting training pipeline")

	bundle, err := pipeline.Run(pipeline.FromSettings(c))
	if err != nil {
		if errors.Is(err, pipeline.ErrDegenerateData) {
			log.Fatal().Err(err).Msg("training aborted: dataset cannot be trained on")
		}
		log.Fatal().Err(err).Msg("training pipeline failed")
	}

	log.Info().
		Str("version", bundle.Version).
		Int("features", len(bundle.FeatureNames)).
		Int("trees", len(bundle.Model.Trees)).
		Float64("accuracy", bundle.Evaluation.Accuracy).
		Float64("f1", bundle.Evaluation.F1).
		Dur("elapsed", time.Since(start)).
		Msg("training pipeline completed")
}
