package core

import (
	"context"
	"log/slog"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// Engine runs training and evaluation against the configured stores.
type Engine struct {
	cfg     *contract.Config
	scorer  *Scorer
	mgr     contract.StoreManager
	logger  *slog.Logger
	metrics *Metrics
}

// NewEngine wires the scorer to the stores owned by mgr.
func NewEngine(cfg *contract.Config, scorer *Scorer, mgr contract.StoreManager, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = contract.NopLogger()
	}
	return &Engine{cfg: cfg, scorer: scorer, mgr: mgr, logger: logger, metrics: metrics}
}

// Scorer returns the heuristic scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// BuildDataset reads every comment and feedback label and assembles the training batch.
func (e *Engine) BuildDataset(ctx context.Context) (*Dataset, error) {
	reviews := e.mgr.GetReviewStore()
	comments, err := reviews.FetchComments(ctx)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, contract.NewEmptyDatasetError("No comments found for training.")
	}
	feedback, err := reviews.FetchFeedback(ctx)
	if err != nil {
		return nil, err
	}
	return e.scorer.BuildDataset(ctx, comments, feedback)
}

// RunTraining performs a full retrain and saves a new model version.
// Older versions beyond the retention limit are pruned afterwards.
func (e *Engine) RunTraining(ctx context.Context) (schema.TrainingSummary, error) {
	ds, err := e.BuildDataset(ctx)
	if err != nil {
		return schema.TrainingSummary{Status: "error", Message: errorMessage(err)}, err
	}

	trainer := NewTrainer(e.cfg.Training, e.logger, e.metrics)
	store := e.mgr.GetModelStore()
	res, err := trainer.Train(ctx, ds, store, e.cfg.ModelName)
	if err != nil {
		return schema.TrainingSummary{Status: "error", Message: errorMessage(err), RunID: res.RunID}, err
	}

	if e.cfg.ModelRetain > 0 {
		removed, err := store.Prune(ctx, e.cfg.ModelName, e.cfg.ModelRetain)
		if err != nil {
			e.logger.Warn("failed to prune old model versions", "model", e.cfg.ModelName, "error", err)
		} else if removed > 0 {
			e.logger.Info("pruned old model versions", "model", e.cfg.ModelName, "removed", removed)
		}
	}

	return schema.TrainingSummary{
		Status:             "success",
		Message:            "Calibration model trained successfully.",
		RunID:              res.RunID,
		Model:              res.Version,
		Comments:           ds.CountSource(schema.CommentSource),
		Feedback:           ds.CountSource(schema.FeedbackSource),
		TrainExamples:      res.TrainExamples,
		ValidationExamples: res.ValidationExamples,
		Epochs:             e.cfg.Training.Epochs,
		FinalLoss:          res.FinalLoss,
		ValidationLoss:     res.ValidationLoss,
		Duration:           res.Duration,
	}, nil
}

// RunEvaluation predicts every stored comment with the latest model, or with a
// pinned version when version is positive.
func (e *Engine) RunEvaluation(ctx context.Context, version int) (schema.EvaluationResult, error) {
	comments, err := e.mgr.GetReviewStore().FetchComments(ctx)
	if err != nil {
		return schema.EvaluationResult{Status: "error"}, err
	}
	return e.Evaluate(ctx, version, comments)
}

// Evaluate predicts the given comments with the latest or a pinned model version.
func (e *Engine) Evaluate(ctx context.Context, version int, comments []schema.CommentRecord) (schema.EvaluationResult, error) {
	if len(comments) == 0 {
		return schema.EvaluationResult{Status: "error"}, contract.NewEmptyDatasetError("No comments found in the database.")
	}
	model, meta, err := LoadModel(ctx, e.mgr.GetModelStore(), e.cfg.ModelName, version)
	if err != nil {
		return schema.EvaluationResult{Status: "error"}, err
	}
	preds, err := NewEvaluator(e.scorer, e.logger, e.metrics).Evaluate(ctx, model, comments)
	if err != nil {
		return schema.EvaluationResult{Status: "error", Model: meta}, err
	}
	return schema.EvaluationResult{Status: "success", Model: meta, Ratings: preds}, nil
}

// ScoreText explains the heuristic score of one text. With calibrated set, the
// latest model also predicts it.
func (e *Engine) ScoreText(ctx context.Context, text string, rating *float64, calibrated bool) (schema.ScoreBreakdown, error) {
	bd, err := e.scorer.Explain(ctx, text, rating)
	if err != nil || !calibrated {
		return bd, err
	}
	model, meta, err := LoadModel(ctx, e.mgr.GetModelStore(), e.cfg.ModelName, 0)
	if err != nil {
		return bd, err
	}
	out := model.Predict([2]float64{bd.Heuristic.Importance, bd.Heuristic.Quality})
	bd.Calibrated = &schema.HeuristicScore{Importance: Round2(out[0]), Quality: Round2(out[1])}
	bd.CalibratedVersion = meta.Version
	return bd, nil
}

// errorMessage returns the human part of a domain error.
func errorMessage(err error) string {
	if e, ok := err.(*contract.Error); ok {
		return e.Message()
	}
	return err.Error()
}
