package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mycoscan/internal/boost"
	"mycoscan/internal/encode"
	"mycoscan/internal/schema"
)

func trainSpecimen(shape string, diameter float64) schema.Specimen {
	return schema.Specimen{
		CapShape: shape, CapSurface: "s", CapColor: "n",
		DoesBruiseOrBleed: "t", GillAttachment: "f", GillSpacing: "c",
		GillColor: "k", StemSurface: "s", StemColor: "w",
		HasRing: "t", RingType: "p", Habitat: "d", Season: "s",
		CapDiameter: diameter, StemHeight: 7.2, StemWidth: 6.5,
	}
}

// testBundle trains a tiny but fully valid bundle.
func testBundle(t *testing.T) *Bundle {
	t.Helper()

	rows := make([]schema.Specimen, 0, 40)
	labels := make([]string, 0, 40)
	for i := 0; i < 20; i++ {
		rows = append(rows, trainSpecimen("x", 8.0+float64(i)*0.1))
		labels = append(labels, "e")
		rows = append(rows, trainSpecimen("b", 2.0+float64(i)*0.1))
		labels = append(labels, "p")
	}

	enc := encode.FitCategorical(rows)
	asm := encode.NewAssembler(enc)
	target, err := encode.FitTarget(labels)
	require.NoError(t, err)

	y := make([]int, len(labels))
	for i, l := range labels {
		y[i], err = target.Encode(l)
		require.NoError(t, err)
	}

	model, err := boost.Fit(asm.Matrix(rows), y, boost.Config{
		LearningRate:   0.3,
		MaxDepth:       3,
		Rounds:         10,
		MinSamplesLeaf: 1,
		Seed:           42,
	})
	require.NoError(t, err)

	return &Bundle{
		Version:      "test-0001",
		TrainedAt:    time.Now().UTC(),
		FeatureNames: asm.FeatureNames(),
		Encoder:      enc,
		Target:       target,
		Model:        model,
		TrainingRows: len(rows),
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	bundle := testBundle(t)
	path := filepath.Join(t.TempDir(), "bundle.json")

	require.NoError(t, Save(bundle, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, bundle.Version, loaded.Version)
	assert.Equal(t, bundle.FeatureNames, loaded.FeatureNames)

	s := trainSpecimen("x", 8.5)
	want := bundle.Assembler().Vector(&s)
	got := loaded.Assembler().Vector(&s)
	assert.Equal(t, want, got, "loaded bundle must reproduce the exact feature vectors")

	p1, err := bundle.Model.PredictProba(want)
	require.NoError(t, err)
	p2, err := loaded.Model.PredictProba(got)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSave_RefusesInconsistentBundle(t *testing.T) {
	bundle := testBundle(t)
	path := filepath.Join(t.TempDir(), "bundle.json")

	// Break the persisted column ordering relative to the encoder.
	bundle.FeatureNames[0], bundle.FeatureNames[1] = bundle.FeatureNames[1], bundle.FeatureNames[0]
	assert.Error(t, Save(bundle, path))
}

func TestLoad_InconsistentBundleIsCorrupt(t *testing.T) {
	bundle := testBundle(t)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, Save(bundle, path))

	// Tamper with the persisted column ordering behind Save's back.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	var names []string
	require.NoError(t, json.Unmarshal(raw["feature_names"], &names))
	names[0], names[1] = names[1], names[0]
	raw["feature_names"], err = json.Marshal(names)
	require.NoError(t, err)
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSave_NoPartialFileOnFailure(t *testing.T) {
	bundle := testBundle(t)
	bundle.Model = nil // invalid

	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	require.Error(t, Save(bundle, path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "failed save must not leave an artifact behind")
}

func TestLoader_LazyAndCached(t *testing.T) {
	bundle := testBundle(t)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, Save(bundle, path))

	loader := NewLoader(path)
	assert.False(t, loader.Ready(), "loader must not load before first use")

	b1, err := loader.Get()
	require.NoError(t, err)
	assert.True(t, loader.Ready())

	b2, err := loader.Get()
	require.NoError(t, err)
	assert.Same(t, b1, b2, "warm calls must reuse the cached bundle")
}

func TestLoader_ConcurrentFirstAccess(t *testing.T) {
	bundle := testBundle(t)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, Save(bundle, path))

	loader := NewLoader(path)

	const goroutines = 16
	results := make([]*Bundle, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			b, err := loader.Get()
			if err != nil {
				t.Errorf("concurrent Get failed: %v", err)
				return
			}
			results[g] = b
		}(g)
	}
	wg.Wait()

	for g := 1; g < goroutines; g++ {
		assert.Same(t, results[0], results[g], "all goroutines must see the same bundle")
	}
}

func TestLoader_MissingArtifact(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"))

	_, err := loader.Get()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, loader.Ready())
}
