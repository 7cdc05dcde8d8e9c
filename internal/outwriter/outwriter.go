// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePredictions prints evaluation results using the configured output format.
func (ow *OutWriter) WritePredictions(result schema.EvaluationResult, cfg *contract.Config, duration time.Duration) error {
	return WritePredictions(result, cfg, duration)
}

// WriteTrainingSummary prints the outcome of a retrain using the configured output format.
func (ow *OutWriter) WriteTrainingSummary(summary schema.TrainingSummary, cfg *contract.Config) error {
	return WriteTrainingSummary(summary, cfg)
}

// WriteScore prints the breakdown of one heuristic score using the configured output format.
func (ow *OutWriter) WriteScore(bd schema.ScoreBreakdown, cfg *contract.Config) error {
	return WriteScore(bd, cfg)
}

// WriteModelVersions prints the stored model versions using the configured output format.
func (ow *OutWriter) WriteModelVersions(status schema.ModelStoreStatus, cfg *contract.Config) error {
	return WriteModelVersions(status, cfg)
}
