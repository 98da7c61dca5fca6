package metrics

import "time"

// Recorder is the narrow interface the serving layer depends on, so
// packages that record metrics do not import prometheus directly and tests
// can substitute a mock.
type Recorder interface {
	PredictionInc()
	PredictionErrorInc()
	SchemaRejectionInc()
	LatencyObserve(seconds float64)
	ScoreObserve(confidence float64)
	PoisonousInc()
	BatchSizeObserve(n int)
	ArtifactLoadInc()
	ArtifactAgeSet(trainedAt time.Time)
	StreamOpened()
	StreamClosed()
	StreamMessageInc()
}

// Wrapper adapts Metrics to Recorder. A nil *Wrapper is valid and records
// nothing, which keeps call sites free of nil checks.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps a Metrics set. Passing nil yields a no-op recorder.
func NewWrapper(m *Metrics) *Wrapper {
	if m == nil {
		return nil
	}
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionInc() {
	if w != nil {
		w.m.PredictionsTotal.Inc()
	}
}

func (w *Wrapper) PredictionErrorInc() {
	if w != nil {
		w.m.PredictionErrors.Inc()
		w.m.ErrorsTotal.Inc()
	}
}

func (w *Wrapper) SchemaRejectionInc() {
	if w != nil {
		w.m.SchemaRejections.Inc()
	}
}

func (w *Wrapper) LatencyObserve(seconds float64) {
	if w != nil {
		w.m.PredictionLatency.Observe(seconds)
	}
}

func (w *Wrapper) ScoreObserve(confidence float64) {
	if w != nil {
		w.m.PredictionScores.Observe(confidence)
	}
}

func (w *Wrapper) PoisonousInc() {
	if w != nil {
		w.m.PoisonousTotal.Inc()
	}
}

func (w *Wrapper) BatchSizeObserve(n int) {
	if w != nil {
		w.m.BatchSize.Observe(float64(n))
	}
}

func (w *Wrapper) ArtifactLoadInc() {
	if w != nil {
		w.m.ArtifactLoads.Inc()
	}
}

func (w *Wrapper) ArtifactAgeSet(trainedAt time.Time) {
	if w != nil && !trainedAt.IsZero() {
		w.m.ArtifactAge.Set(time.Since(trainedAt).Seconds())
	}
}

func (w *Wrapper) StreamOpened() {
	if w != nil {
		w.m.StreamConnections.Inc()
	}
}

func (w *Wrapper) StreamClosed() {
	if w != nil {
		w.m.StreamConnections.Dec()
	}
}

func (w *Wrapper) StreamMessageInc() {
	if w != nil {
		w.m.StreamMessages.Inc()
	}
}
