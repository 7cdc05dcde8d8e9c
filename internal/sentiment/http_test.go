package sentiment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInferenceServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	seen := new(http.Request)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.Clone(context.Background())
		var req inferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Inputs == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestHTTPClassifier_ResponseShapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		label schema.SentimentLabel
		score float64
	}{
		{"flat", `[{"label":"POSITIVE","score":0.98}]`, schema.Positive, 0.98},
		{"nested", `[[{"label":"NEGATIVE","score":0.91},{"label":"POSITIVE","score":0.09}]]`, schema.Negative, 0.91},
		{"highest wins", `[{"label":"NEGATIVE","score":0.3},{"label":"POSITIVE","score":0.7}]`, schema.Positive, 0.7},
		{"raw sst2 labels", `[{"label":"LABEL_0","score":0.88}]`, schema.Negative, 0.88},
		{"unknown label", `[{"label":"MIXED","score":0.6}]`, schema.Neutral, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newInferenceServer(t, http.StatusOK, tt.body)
			cls, err := NewHTTPClassifier(srv.URL, "", nil)
			require.NoError(t, err)

			verdict, err := cls.Classify(context.Background(), "any text")
			require.NoError(t, err)
			assert.Equal(t, tt.label, verdict.Label)
			assert.InDelta(t, tt.score, verdict.Confidence, 1e-9)
		})
	}
}

func TestHTTPClassifier_SendsToken(t *testing.T) {
	srv, seen := newInferenceServer(t, http.StatusOK, `[{"label":"POSITIVE","score":0.9}]`)
	cls, err := NewHTTPClassifier(srv.URL, "hf_secret", nil)
	require.NoError(t, err)

	_, err = cls.Classify(context.Background(), "nice")
	require.NoError(t, err)
	assert.Equal(t, "Bearer hf_secret", seen.Header.Get("Authorization"))
	assert.Equal(t, http.MethodPost, seen.Method)
}

func TestHTTPClassifier_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"model loading", http.StatusServiceUnavailable, `{"error":"Model is currently loading"}`, "Model is currently loading"},
		{"server error", http.StatusInternalServerError, `boom`, "500"},
		{"empty result", http.StatusOK, `[]`, "malformed"},
		{"not json", http.StatusOK, `<html>`, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newInferenceServer(t, tt.status, tt.body)
			cls, err := NewHTTPClassifier(srv.URL, "", nil)
			require.NoError(t, err)

			_, err = cls.Classify(context.Background(), "text")
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrUpstreamService)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestHTTPClassifier_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	// Cleanups run last-in first-out: the handler is released before Close waits on it
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cls, err := NewHTTPClassifier(srv.URL, "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = cls.Classify(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrUpstreamService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var domainErr *contract.Error
	require.ErrorAs(t, err, &domainErr)
	assert.True(t, domainErr.ErrCode() == errbuilder.CodeDeadlineExceeded)
}

func TestNewHTTPClassifierRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPClassifier("", "", nil)
	assert.ErrorIs(t, err, contract.ErrConfiguration)
}
