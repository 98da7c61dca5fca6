package boost

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
)

// separable builds a two-feature dataset where label 1 clusters at high
// feature values.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = []float64{rng.Float64(), rng.Float64() * 0.4}
			y[i] = 0
		} else {
			x[i] = []float64{rng.Float64(), 0.6 + rng.Float64()*0.4}
			y[i] = 1
		}
	}
	return x, y
}

func testConfig() Config {
	return Config{
		LearningRate:   0.3,
		MaxDepth:       3,
		Rounds:         20,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

func TestFit_SeparableData(t *testing.T) {
	x, y := separable(200, 1)
	m, err := Fit(x, y, testConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	correct := 0
	for i := range x {
		pred, err := m.Predict(x[i])
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if pred == y[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(x)); acc < 0.95 {
		t.Errorf("training accuracy %.3f, want >= 0.95", acc)
	}
}

func TestPredictProba_Bounds(t *testing.T) {
	x, y := separable(100, 2)
	m, err := Fit(x, y, testConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for i := range x {
		probs, err := m.PredictProba(x[i])
		if err != nil {
			t.Fatalf("PredictProba failed: %v", err)
		}
		for c, p := range probs {
			if p < 0 || p > 1 {
				t.Fatalf("probability[%d] = %f out of [0,1]", c, p)
			}
		}
		if sum := probs[0] + probs[1]; sum < 0.999 || sum > 1.001 {
			t.Fatalf("probabilities sum to %f", sum)
		}
	}
}

func TestFit_Deterministic(t *testing.T) {
	x, y := separable(150, 3)
	m1, err := Fit(x, y, testConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	m2, err := Fit(x, y, testConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for i := range x {
		p1, _ := m1.PredictProba(x[i])
		p2, _ := m2.PredictProba(x[i])
		if p1 != p2 {
			t.Fatalf("row %d: %v vs %v, fits are not deterministic", i, p1, p2)
		}
	}
}

func TestFit_DegenerateInputs(t *testing.T) {
	testCases := []struct {
		name string
		x    [][]float64
		y    []int
	}{
		{"empty", nil, nil},
		{"single class", [][]float64{{1}, {2}, {3}}, []int{1, 1, 1}},
		{"zero columns", [][]float64{{}, {}}, []int{0, 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fit(tc.x, tc.y, testConfig())
			if !errors.Is(err, ErrDegenerate) {
				t.Fatalf("expected ErrDegenerate, got %v", err)
			}
		})
	}
}

func TestFit_EarlyStoppingBoundsRounds(t *testing.T) {
	x, y := separable(300, 4)
	cfg := testConfig()
	cfg.Rounds = 100
	cfg.Patience = 5
	cfg.ValidationFraction = 0.1

	m, err := Fit(x, y, cfg)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(m.Trees) > cfg.Rounds {
		t.Fatalf("model has %d trees, budget is %d", len(m.Trees), cfg.Rounds)
	}
}

func TestPredictProba_WidthMismatch(t *testing.T) {
	x, y := separable(60, 5)
	m, err := Fit(x, y, testConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if _, err := m.PredictProba([]float64{1}); err == nil {
		t.Fatal("expected error for wrong feature count")
	}
}

func TestModel_JSONRoundTrip(t *testing.T) {
	x, y := separable(80, 6)
	m, err := Fit(x, y, testConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var restored Model
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if err := restored.Validate(); err != nil {
		t.Fatalf("restored model invalid: %v", err)
	}

	for i := range x {
		p1, _ := m.PredictProba(x[i])
		p2, _ := restored.PredictProba(x[i])
		if p1 != p2 {
			t.Fatalf("row %d: serialized model predicts %v, original %v", i, p2, p1)
		}
	}
}
