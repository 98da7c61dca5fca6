// Package serve exposes the inference service over HTTP: single and batch
// prediction, a websocket prediction stream, health and model-info
// surfaces, and the recent-predictions audit view.
//
// The artifact bundle is loaded on first use through an injected
// artifact.Loader and shared read-only across all requests; per-request
// errors never touch the cached bundle.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"mycoscan/internal/artifact"
	"mycoscan/internal/metrics"
	"mycoscan/internal/schema"
	"mycoscan/internal/storage"
)

// Server handles inference traffic for one loaded artifact bundle.
type Server struct {
	loader *artifact.Loader
	rec    metrics.Recorder
	store  *storage.Store // nil disables the audit log
	server *http.Server

	loadMetricsOnce sync.Once
}

// New builds the inference server. store may be nil; rec may be a nil
// *metrics.Wrapper.
func New(loader *artifact.Loader, rec metrics.Recorder, store *storage.Store, port int) *Server {
	s := &Server{
		loader: loader,
		rec:    rec,
		store:  store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/batch_predict", s.handleBatchPredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/model/info", s.handleModelInfo)
	mux.HandleFunc("/predictions/recent", s.handleRecent)
	mux.HandleFunc("/stream", s.handleStream)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting inference server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// bundle returns the warm artifact, loading it on first use.
func (s *Server) bundle() (*artifact.Bundle, error) {
	b, err := s.loader.Get()
	if err != nil {
		return nil, err
	}
	s.loadMetricsOnce.Do(func() {
		s.rec.ArtifactLoadInc()
		s.rec.ArtifactAgeSet(b.TrainedAt)
	})
	return b, nil
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	result, status, err := s.predictRaw(raw, "http")
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	s.rec.LatencyObserve(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, result)
}

// BatchResponse preserves the input order: predictions[i] answers the i-th
// request element.
type BatchResponse struct {
	Count       int      `json:"count"`
	Predictions []Result `json:"predictions"`
}

func (s *Server) handleBatchPredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rawList []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&rawList); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	s.rec.BatchSizeObserve(len(rawList))

	resp := BatchResponse{Count: len(rawList), Predictions: make([]Result, 0, len(rawList))}
	for i, raw := range rawList {
		result, status, err := s.predictRaw(raw, "batch")
		if err != nil {
			http.Error(w, fmt.Sprintf("item %d: %v", i, err), status)
			return
		}
		resp.Predictions = append(resp.Predictions, result)
	}

	writeJSON(w, http.StatusOK, resp)
}

// predictRaw validates a raw request mapping and runs the inference path.
// Returns the HTTP status to use on error. Schema errors are isolated per
// request and never affect the cached bundle.
func (s *Server) predictRaw(raw map[string]any, source string) (Result, int, error) {
	specimen, err := schema.FromMap(raw)
	if err != nil {
		if errors.Is(err, schema.ErrSchemaMismatch) {
			s.rec.SchemaRejectionInc()
			return Result{}, http.StatusBadRequest, err
		}
		return Result{}, http.StatusBadRequest, err
	}

	b, err := s.bundle()
	if err != nil {
		log.Error().Err(err).Msg("artifact bundle unavailable")
		return Result{}, http.StatusServiceUnavailable, fmt.Errorf("model unavailable: %w", err)
	}

	result, err := predictOne(b, &specimen)
	if err != nil {
		s.rec.PredictionErrorInc()
		log.Error().Err(err).Msg("prediction failed")
		return Result{}, http.StatusInternalServerError, fmt.Errorf("prediction failed: %w", err)
	}

	s.rec.PredictionInc()
	s.rec.ScoreObserve(result.Probability)
	if result.Prediction == "poisonous" {
		s.rec.PoisonousInc()
	}
	s.audit(result, source)

	return result, 0, nil
}

func (s *Server) audit(result Result, source string) {
	if s.store == nil {
		return
	}
	rec := storage.Record{
		Timestamp:   time.Now(),
		Prediction:  result.Prediction,
		Probability: result.Probability,
		Source:      source,
	}
	if err := s.store.StorePrediction(rec); err != nil {
		log.Warn().Err(err).Msg("audit log write failed")
	}
}

// HealthResponse reports whether the artifact bundle is held in process
// memory. It never forces a load.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		ModelLoaded: s.loader.Ready(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundle()
	if err != nil {
		http.Error(w, fmt.Sprintf("model unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":       b.Version,
		"trained_at":    b.TrainedAt,
		"feature_count": len(b.FeatureNames),
		"training_rows": b.TrainingRows,
		"evaluation":    b.Evaluation,
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "audit log not configured", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	records, err := s.store.Recent(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("audit query failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(records),
		"predictions": records,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
	}
}
