package cmd

import (
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/outwriter"
	"github.com/spf13/cobra"
)

// trainCmd retrains the calibration model from every stored comment and label.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the calibration model from stored comments and feedback",
	Long: `Score every stored comment with the keyword heuristic, add the human
feedback labels, and fit a fresh calibration model on the result.

Each run saves a new model version. Versions beyond --model-retain are
pruned afterwards, oldest first.

Examples:
  # Train with the defaults from .revscore.yaml
  revscore train

  # A quick run with a different seed, as JSON
  revscore train --epochs 20 --seed 7 --output json`,
	PreRunE: engineSetup,
	Run: func(_ *cobra.Command, _ []string) {
		summary, err := engine.RunTraining(rootCtx)
		flushMetrics()
		if err != nil {
			contract.LogFatal("Cannot train model", err)
		}
		if err := outwriter.NewOutWriter().WriteTrainingSummary(summary, cfg); err != nil {
			contract.LogFatal("Cannot write training summary", err)
		}
	},
}

// evaluateCmd predicts calibrated scores for every stored comment.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Predict calibrated scores for every stored comment",
	Long: `Load the calibration model and predict importance and quality for every
stored comment, next to the heuristic score it was derived from.

By default the latest model version is used. Pin another one with
--model-version.

Examples:
  # Evaluate with the latest model
  revscore evaluate

  # Evaluate with version 3 and export to Parquet
  revscore evaluate --model-version 3 --output parquet --output-file predictions.parquet`,
	PreRunE: engineSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		version, _ := cmd.Flags().GetInt("model-version")
		if version < 0 {
			contract.LogFatal("Cannot evaluate", contract.NewInvalidInputError("model-version", "must not be negative"))
		}

		start := time.Now()
		result, err := engine.RunEvaluation(rootCtx, version)
		flushMetrics()
		if err != nil {
			contract.LogFatal("Cannot evaluate comments", err)
		}
		if err := outwriter.NewOutWriter().WritePredictions(result, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write predictions", err)
		}
	},
}

// scoreCmd explains the heuristic score of one text.
var scoreCmd = &cobra.Command{
	Use:   "score <text>",
	Short: "Explain the heuristic score of a single comment",
	Long: `Show how a comment is scored: the matched keywords, the raw keyword
averages, the sentiment verdict, the optional website rating blend, and
the final clamped heuristic.

With --calibrated the latest model also predicts the comment.

Examples:
  revscore score "Great product, fast delivery!"
  revscore score "arrived broken" --rating 1 --calibrated`,
	Args:    cobra.ExactArgs(1),
	PreRunE: engineSetup,
	Run: func(cmd *cobra.Command, args []string) {
		var rating *float64
		if cmd.Flags().Changed("rating") {
			r, _ := cmd.Flags().GetFloat64("rating")
			rating = &r
		}
		calibrated, _ := cmd.Flags().GetBool("calibrated")

		bd, err := engine.ScoreText(rootCtx, args[0], rating, calibrated)
		if err != nil {
			contract.LogFatal("Cannot score comment", err)
		}
		if err := outwriter.NewOutWriter().WriteScore(bd, cfg); err != nil {
			contract.LogFatal("Cannot write score", err)
		}
	},
}
