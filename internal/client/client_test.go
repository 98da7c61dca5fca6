package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if _, ok := raw["cap-shape"]; !ok {
			http.Error(w, "schema mismatch: missing cap-shape", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Prediction{
			Prediction:        "poisonous",
			Probability:       0.9731,
			ConfidencePercent: "97.31%",
		})
	})
	mux.HandleFunc("/batch_predict", func(w http.ResponseWriter, r *http.Request) {
		var raw []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		resp := BatchPrediction{Count: len(raw)}
		for range raw {
			resp.Predictions = append(resp.Predictions, Prediction{Prediction: "edible", Probability: 0.8})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Health{Status: "ok", ModelLoaded: true})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestPredict(t *testing.T) {
	ts := stubServer(t)
	c := New(ts.URL, 5*time.Second)

	p, err := c.Predict(map[string]any{"cap-shape": "x"})
	require.NoError(t, err)
	assert.Equal(t, "poisonous", p.Prediction)
	assert.Equal(t, 0.9731, p.Probability)
	assert.Equal(t, "97.31%", p.ConfidencePercent)
}

func TestPredict_ServerRejection(t *testing.T) {
	ts := stubServer(t)
	c := New(ts.URL, 5*time.Second)

	_, err := c.Predict(map[string]any{"habitat": "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestBatchPredict(t *testing.T) {
	ts := stubServer(t)
	c := New(ts.URL, 5*time.Second)

	b, err := c.BatchPredict([]map[string]any{
		{"cap-shape": "x"},
		{"cap-shape": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count)
	assert.Len(t, b.Predictions, 2)
}

func TestHealth(t *testing.T) {
	ts := stubServer(t)
	c := New(ts.URL, 5*time.Second)

	h, err := c.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.ModelLoaded)
}

func TestPredict_ServerDown(t *testing.T) {
	c := New("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := c.Predict(map[string]any{"cap-shape": "x"})
	assert.Error(t, err)
}
