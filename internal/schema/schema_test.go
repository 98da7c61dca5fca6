package schema

import (
	"errors"
	"testing"
)

func validRaw() map[string]any {
	return map[string]any{
		"cap-diameter": 8.5, "stem-height": 7.2, "stem-width": 6.5,
		"cap-shape": "x", "cap-surface": "s", "cap-color": "n",
		"does-bruise-or-bleed": "t", "gill-attachment": "f",
		"gill-spacing": "c", "gill-color": "k", "stem-surface": "s",
		"stem-color": "w", "has-ring": "t", "ring-type": "p",
		"habitat": "d", "season": "s",
	}
}

func TestFromMap_Valid(t *testing.T) {
	s, err := FromMap(validRaw())
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	if s.CapShape != "x" {
		t.Errorf("cap-shape = %q, want x", s.CapShape)
	}
	if s.CapDiameter != 8.5 {
		t.Errorf("cap-diameter = %v, want 8.5", s.CapDiameter)
	}
	if s.Season != "s" {
		t.Errorf("season = %q, want s", s.Season)
	}
}

func TestFromMap_MissingFields(t *testing.T) {
	for _, field := range []string{"cap-shape", "season", "cap-diameter", "stem-width"} {
		t.Run(field, func(t *testing.T) {
			raw := validRaw()
			delete(raw, field)

			_, err := FromMap(raw)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch for missing %s, got %v", field, err)
			}
		})
	}
}

func TestFromMap_WrongTypes(t *testing.T) {
	raw := validRaw()
	raw["cap-shape"] = 12.0
	if _, err := FromMap(raw); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for numeric cap-shape, got %v", err)
	}

	raw = validRaw()
	raw["stem-height"] = "tall"
	if _, err := FromMap(raw); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for string stem-height, got %v", err)
	}
}

func TestFromMap_IndicatorDefaultsToZero(t *testing.T) {
	s, err := FromMap(validRaw())
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if s.SporePrintPresent != 0 {
		t.Errorf("indicator = %v, want 0 when spore-print-color omitted", s.SporePrintPresent)
	}
}

func TestFromMap_IndicatorDerived(t *testing.T) {
	raw := validRaw()
	raw[SporePrintField] = "k"
	s, err := FromMap(raw)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if s.SporePrintPresent != 1 {
		t.Errorf("indicator = %v, want 1 when spore-print-color supplied", s.SporePrintPresent)
	}

	// Callers cannot force the indicator directly; only the raw field
	// drives it.
	raw = validRaw()
	raw[IndicatorField] = 1.0
	s, err = FromMap(raw)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if s.SporePrintPresent != 0 {
		t.Errorf("indicator = %v, want 0 when only the indicator key is supplied", s.SporePrintPresent)
	}
}

func TestRegistryOrder(t *testing.T) {
	cats := CategoricalFields()
	if len(cats) != 13 {
		t.Fatalf("expected 13 categorical fields, got %d", len(cats))
	}
	if cats[0] != "cap-shape" || cats[12] != "season" {
		t.Errorf("unexpected categorical order: first=%q last=%q", cats[0], cats[12])
	}

	nums := NumericalFields()
	if len(nums) != 4 {
		t.Fatalf("expected 4 numerical fields, got %d", len(nums))
	}
	if nums[len(nums)-1] != IndicatorField {
		t.Errorf("indicator must be last, got %q", nums[len(nums)-1])
	}
}

func TestValuesAlignWithRegistry(t *testing.T) {
	s, err := FromMap(validRaw())
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	cats := s.CategoricalValues()
	if len(cats) != len(CategoricalFields()) {
		t.Fatalf("categorical values length mismatch")
	}
	nums := s.NumericalValues()
	want := []float64{8.5, 7.2, 6.5, 0}
	for i, v := range want {
		if nums[i] != v {
			t.Errorf("numerical value %d = %v, want %v", i, nums[i], v)
		}
	}
}
