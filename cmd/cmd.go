// Package cmd defines the command-line interface for revscore.
package cmd

import (
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	datasetCmd.AddCommand(datasetExportCmd)
	commentCmd.AddCommand(commentAddCmd)
	feedbackCmd.AddCommand(feedbackAddCmd)

	modelCmd.AddCommand(modelListCmd)
	modelCmd.AddCommand(modelShowCmd)
	modelCmd.AddCommand(modelExportCmd)
	modelCmd.AddCommand(modelPruneCmd)

	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Bind all persistent flags of rootCmd to Viper
	defaults := contract.DefaultRawInput()
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file")
	pf.String("lexicon", defaults.Lexicon, "Path to the keyword weight lexicon (json, txt or yaml)")
	pf.String("review-backend", defaults.ReviewBackend, "Review store backend: sqlite or mysql or postgresql")
	pf.String("review-db-connect", "", "Database connection string for the review store (e.g., user:pass@tcp(host:port)/dbname)")
	pf.String("model-backend", defaults.ModelBackend, "Model store backend: file or sqlite or mysql or postgresql or s3")
	pf.String("model-dir", "", "Root directory of the file model backend (default ~/.revscore/models)")
	pf.String("model-db-connect", "", "Database connection string for sql model backends")
	pf.String("model-name", defaults.ModelName, "Name of the calibration model")
	pf.Int("model-retain", defaults.ModelRetain, "Model versions kept after training (0 = keep all)")
	pf.String("sentiment-provider", defaults.SentimentProvider, "Sentiment provider: lexicon or http")
	pf.String("sentiment-endpoint", "", "Inference endpoint URL for the http sentiment provider")
	pf.String("sentiment-timeout", defaults.SentimentTimeout, "Timeout of one sentiment call")
	pf.String("cache-backend", defaults.CacheBackend, "Verdict cache backend: sqlite or mysql or postgresql or redis or none")
	pf.String("cache-db-connect", "", "Connection string for the verdict cache (redis://host:port/db for redis)")
	pf.String("cache-ttl", defaults.CacheTTL, "How long cached verdicts stay valid")
	pf.Int("epochs", defaults.Epochs, "Training epochs")
	pf.Int("batch-size", defaults.BatchSize, "Training mini-batch size")
	pf.Float64("learning-rate", defaults.LearningRate, "Adam learning rate")
	pf.Int64("seed", defaults.Seed, "Seed for weight init, shuffling and the validation split")
	pf.Float64("validation-split", defaults.ValidationSplit, "Share of examples held out for validation")
	pf.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	pf.String("output-file", "", "Optional path to write output to")
	pf.Int("precision", defaults.Precision, "Decimal precision for numeric columns")
	pf.String("color", defaults.Color, "Enable colored labels in output (yes/no/true/false/1/0)")
	pf.Int("width", 0, "Terminal width override (0 = auto-detect)")
	pf.String("log-level", defaults.LogLevel, "Log level: debug or info or warn or error")
	pf.String("log-format", defaults.LogFormat, "Log format: text or json")
	pf.String("metrics-file", "", "Write Prometheus metrics to this textfile after train or evaluate")
	pf.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	if err := viper.BindPFlags(pf); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Command-local flags are read from the command, not from Viper
	evaluateCmd.Flags().Int("model-version", 0, "Model version to evaluate with (0 = latest)")

	scoreCmd.Flags().Float64("rating", 0, "Website rating (1-5) to blend into the score")
	scoreCmd.Flags().Bool("calibrated", false, "Also predict with the latest calibration model")

	commentAddCmd.Flags().String("text", "", "Comment text")
	commentAddCmd.Flags().Float64("rating", 0, "Website rating given by the reviewer")
	commentAddCmd.Flags().Int64("user-id", 0, "ID of the reviewer")
	_ = commentAddCmd.MarkFlagRequired("text")

	feedbackAddCmd.Flags().Int64("comment-id", 0, "ID of the labeled comment")
	feedbackAddCmd.Flags().Float64("importance", 0, "True importance in [0, 5]")
	feedbackAddCmd.Flags().Float64("quality", 0, "True quality in [1, 5]")

	modelPruneCmd.Flags().Int("keep", 0, "Number of newest versions to keep (default model-retain)")

	scheduleCmd.Flags().String("cron", DefaultSchedule, "Cron schedule for retraining")
	scheduleCmd.Flags().Bool("run-now", false, "Train once immediately after starting")

	// Bind all flags of dbMigrateCmd to Viper
	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding db migrate flags", err)
	}
}
