package encode

import "fmt"

// Domain codes of the two classes as they appear in the dataset's class
// column, and the human-readable labels served to clients.
const (
	EdibleCode    = "e"
	PoisonousCode = "p"

	EdibleLabel    = "edible"
	PoisonousLabel = "poisonous"
)

// TargetEncoder is the bidirectional mapping between class label codes and
// integer class indices. Classes holds the codes in sorted order, so the
// index assignment matches the order the classifier's probability output
// uses.
type TargetEncoder struct {
	Classes []string `json:"classes"`
}

// FitTarget records the distinct label codes in sorted order. For this
// dataset that is always [e p], giving edible index 0 and poisonous 1.
func FitTarget(labels []string) (*TargetEncoder, error) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	if len(seen) != 2 {
		return nil, fmt.Errorf("target encoder: expected 2 classes, got %d", len(seen))
	}
	classes := make([]string, 0, 2)
	for _, c := range []string{EdibleCode, PoisonousCode} {
		if _, ok := seen[c]; ok {
			classes = append(classes, c)
		}
	}
	if len(classes) != 2 {
		// Codes outside the known alphabet; fall back to sorted order.
		classes = classes[:0]
		for c := range seen {
			classes = append(classes, c)
		}
		if classes[0] > classes[1] {
			classes[0], classes[1] = classes[1], classes[0]
		}
	}
	return &TargetEncoder{Classes: classes}, nil
}

// Encode maps a label code to its class index.
func (t *TargetEncoder) Encode(label string) (int, error) {
	for i, c := range t.Classes {
		if c == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("target encoder: unknown label %q", label)
}

// Decode maps a class index back to its label code.
func (t *TargetEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(t.Classes) {
		return "", fmt.Errorf("target encoder: class index %d out of range", idx)
	}
	return t.Classes[idx], nil
}

// HumanLabel converts a domain code to the client-facing label.
func HumanLabel(code string) string {
	if code == EdibleCode {
		return EdibleLabel
	}
	return PoisonousLabel
}
