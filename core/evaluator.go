package core

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// Evaluator produces calibrated predictions with a trained model.
type Evaluator struct {
	scorer  *Scorer
	logger  *slog.Logger
	metrics *Metrics
}

// NewEvaluator creates an evaluator. A nil logger discards logs and nil metrics are skipped.
func NewEvaluator(scorer *Scorer, logger *slog.Logger, metrics *Metrics) *Evaluator {
	if logger == nil {
		logger = contract.NopLogger()
	}
	return &Evaluator{scorer: scorer, logger: logger, metrics: metrics}
}

// LoadModel fetches and decodes a model. A version of 0 or less selects the latest.
func LoadModel(ctx context.Context, store contract.ModelStore, name string, version int) (*Model, schema.ModelVersion, error) {
	var (
		payload []byte
		meta    schema.ModelVersion
		err     error
	)
	if version > 0 {
		payload, meta, err = store.LoadVersion(ctx, name, version)
	} else {
		payload, meta, err = store.Load(ctx, name)
	}
	if err != nil {
		return nil, meta, err
	}
	model, err := UnmarshalModel(payload)
	if err != nil {
		return nil, meta, err
	}
	return model, meta, nil
}

// Evaluate scores every comment and runs it through model. Inputs are standardized
// with the statistics stored in the model, never with statistics of this batch.
// Predictions keep the order of comments and are rounded to 2 decimals.
func (e *Evaluator) Evaluate(ctx context.Context, model *Model, comments []schema.CommentRecord) ([]schema.Prediction, error) {
	preds, err := e.evaluate(ctx, model, comments)
	if e.metrics != nil {
		e.metrics.ObserveEvaluation(len(preds), float64(time.Now().Unix()), err)
	}
	return preds, err
}

func (e *Evaluator) evaluate(ctx context.Context, model *Model, comments []schema.CommentRecord) ([]schema.Prediction, error) {
	if len(comments) == 0 {
		return nil, contract.NewEmptyDatasetError("No comments found in the database.")
	}
	preds := make([]schema.Prediction, 0, len(comments))
	for _, c := range comments {
		h, err := e.scorer.Score(ctx, c.Text, c.WebsiteRating)
		if err != nil {
			return nil, err
		}
		out := model.Predict([2]float64{h.Importance, h.Quality})
		preds = append(preds, schema.Prediction{
			Comment:             c.Text,
			PredictedImportance: Round2(out[0]),
			PredictedQuality:    Round2(out[1]),
			HeuristicImportance: Round2(h.Importance),
			HeuristicQuality:    Round2(h.Quality),
		})
	}
	e.logger.Debug("evaluation finished", "model_id", model.ID, "predictions", len(preds))
	return preds, nil
}

// Round2 rounds half away from zero to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
