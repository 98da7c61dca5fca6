package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.PredictionsTotal.Inc()
	m.PredictionsTotal.Inc()
	m.PoisonousTotal.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PredictionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PoisonousTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SchemaRejections))
}

func TestWrapper_RecordsThrough(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	w := NewWrapper(m)
	require.NotNil(t, w)

	w.PredictionInc()
	w.PoisonousInc()
	w.SchemaRejectionInc()
	w.PredictionErrorInc()
	w.StreamOpened()
	w.StreamMessageInc()
	w.StreamClosed()
	w.ArtifactLoadInc()
	w.ArtifactAgeSet(time.Now().Add(-time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PoisonousTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchemaRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal), "prediction errors also count as errors")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StreamConnections), "opened and closed must cancel out")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamMessages))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArtifactLoads))
	assert.InDelta(t, 3600, testutil.ToFloat64(m.ArtifactAge), 5)
}

func TestWrapper_NilIsNoOp(t *testing.T) {
	w := NewWrapper(nil)
	require.Nil(t, w)

	// Every method must be callable on the nil wrapper.
	w.PredictionInc()
	w.PredictionErrorInc()
	w.SchemaRejectionInc()
	w.LatencyObserve(0.01)
	w.ScoreObserve(0.9)
	w.PoisonousInc()
	w.BatchSizeObserve(3)
	w.ArtifactLoadInc()
	w.ArtifactAgeSet(time.Now())
	w.StreamOpened()
	w.StreamClosed()
	w.StreamMessageInc()
}
