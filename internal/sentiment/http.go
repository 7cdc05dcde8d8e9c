package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// maxResponseBytes bounds how much of an inference response is read.
const maxResponseBytes = 1 << 20

// HTTPClassifier calls a text-classification inference endpoint that answers
// in the Hugging Face pipeline shape: [{label, score}] or [[{label, score}]].
type HTTPClassifier struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ contract.SentimentClassifier = &HTTPClassifier{} // Compile-time check

// NewHTTPClassifier builds a classifier for endpoint. The token, when set, is
// sent as a bearer token. Per-call deadlines come from the caller's context.
func NewHTTPClassifier(endpoint, token string, client *http.Client) (*HTTPClassifier, error) {
	if endpoint == "" {
		return nil, contract.NewConfigurationError("sentiment endpoint is required for the http provider", nil)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClassifier{endpoint: endpoint, token: token, client: client}, nil
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify posts text and returns the highest scoring label.
func (hc *HTTPClassifier) Classify(ctx context.Context, text string) (schema.SentimentVerdict, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return schema.SentimentVerdict{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.endpoint, bytes.NewReader(body))
	if err != nil {
		return schema.SentimentVerdict{}, contract.NewConfigurationError("invalid sentiment endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if hc.token != "" {
		req.Header.Set("Authorization", "Bearer "+hc.token)
	}

	resp, err := hc.client.Do(req)
	if err != nil {
		return schema.SentimentVerdict{}, contract.NewUpstreamServiceError("sentiment request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return schema.SentimentVerdict{}, contract.NewUpstreamServiceError("failed to read sentiment response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return schema.SentimentVerdict{}, contract.NewUpstreamServiceError(
			fmt.Sprintf("sentiment service returned %d: %s", resp.StatusCode, errorBody(raw)), nil)
	}

	scores, err := decodeScores(raw)
	if err != nil {
		return schema.SentimentVerdict{}, contract.NewUpstreamServiceError("malformed sentiment response", err)
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return schema.SentimentVerdict{Label: normalizeLabel(best.Label), Confidence: best.Score}, nil
}

// decodeScores accepts both the flat and the batched response shape.
func decodeScores(raw []byte) ([]labelScore, error) {
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 && flat[0].Label != "" {
		return flat, nil
	}
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, fmt.Errorf("no labels in response")
	}
	return nested[0], nil
}

// normalizeLabel maps provider labels onto the sentiment labels. Untrained
// SST-2 heads report LABEL_0/LABEL_1.
func normalizeLabel(label string) schema.SentimentLabel {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "POSITIVE", "POS", "LABEL_1":
		return schema.Positive
	case "NEGATIVE", "NEG", "LABEL_0":
		return schema.Negative
	default:
		return schema.Neutral
	}
}

// errorBody extracts {"error": "..."} when present.
func errorBody(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
