package pipeline

import (
	"fmt"

	"mycoscan/internal/artifact"
	"mycoscan/internal/boost"
)

// Evaluate computes accuracy, precision, recall and F1 on a test
// partition. The positive class is index 1 (poisonous under the standard
// target encoding). These numbers are reporting output only; training
// proceeds to persistence regardless of score.
func Evaluate(model *boost.Model, x [][]float64, y []int) (artifact.Evaluation, error) {
	if len(x) == 0 {
		return artifact.Evaluation{}, fmt.Errorf("empty test partition")
	}

	var tp, fp, tn, fn int
	for i := range x {
		pred, err := model.Predict(x[i])
		if err != nil {
			return artifact.Evaluation{}, err
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}

	eval := artifact.Evaluation{
		Accuracy: float64(tp+tn) / float64(len(x)),
		TestRows: len(x),
	}
	if tp+fp > 0 {
		eval.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		eval.Recall = float64(tp) / float64(tp+fn)
	}
	if eval.Precision+eval.Recall > 0 {
		eval.F1 = 2 * eval.Precision * eval.Recall / (eval.Precision + eval.Recall)
	}
	return eval, nil
}
