package serve

import (
	"fmt"
	"math"

	"mycoscan/internal/artifact"
	"mycoscan/internal/encode"
	"mycoscan/internal/schema"
)

// Result is the client-facing prediction for one specimen. Probability is
// the model's confidence for the predicted class (not necessarily the
// edible class), rounded to 4 decimal places; ConfidencePercent is the same
// value formatted to 2 decimals.
type Result struct {
	Prediction        string  `json:"prediction"`
	Probability       float64 `json:"probability"`
	ConfidencePercent string  `json:"confidence_percent"`
}

// predictOne runs the full inference path for a validated specimen:
// assemble the feature vector, query the classifier, and map the winning
// class index back through the target encoder to a human label.
func predictOne(b *artifact.Bundle, s *schema.Specimen) (Result, error) {
	vec := b.Assembler().Vector(s)

	probs, err := b.Model.PredictProba(vec)
	if err != nil {
		return Result{}, err
	}
	cls, err := b.Model.Predict(vec)
	if err != nil {
		return Result{}, err
	}

	code, err := b.Target.Decode(cls)
	if err != nil {
		return Result{}, err
	}
	confidence := probs[cls]

	return Result{
		Prediction:        encode.HumanLabel(code),
		Probability:       math.Round(confidence*10000) / 10000,
		ConfidencePercent: fmt.Sprintf("%.2f%%", confidence*100),
	}, nil
}
