package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/huangsam/revscore/internal/sentiment"
	"github.com/huangsam/revscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// logger is built from the validated config; it writes to stderr.
var logger = contract.NopLogger()

// engine and metrics are only populated by engineSetup.
var (
	engine  *core.Engine
	metrics *core.Metrics
)

// profilePrefix is non-empty when CPU and memory profiling were requested.
var profilePrefix string

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	cpuFile, err := os.Create(profilePrefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profilePrefix, profilePrefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profilePrefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profilePrefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "revscore",
	Short:              "Score review comments and calibrate the scores with feedback.",
	Long:               `Revscore rates how important and how good a review comment is, then learns from human feedback to correct its own heuristic.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("REVSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Every key needs a default so that Unmarshal sees its env override
	defaults := contract.DefaultRawInput()
	viper.SetDefault("lexicon", defaults.Lexicon)
	viper.SetDefault("review-backend", defaults.ReviewBackend)
	viper.SetDefault("review-db-connect", "")
	viper.SetDefault("model-backend", defaults.ModelBackend)
	viper.SetDefault("model-dir", "")
	viper.SetDefault("model-db-connect", "")
	viper.SetDefault("model-name", defaults.ModelName)
	viper.SetDefault("model-retain", defaults.ModelRetain)
	viper.SetDefault("s3-bucket", "")
	viper.SetDefault("s3-prefix", "")
	viper.SetDefault("s3-region", defaults.S3Region)
	viper.SetDefault("s3-endpoint", "")
	viper.SetDefault("s3-access-key", "")
	viper.SetDefault("s3-secret-key", "")
	viper.SetDefault("sentiment-provider", defaults.SentimentProvider)
	viper.SetDefault("sentiment-endpoint", "")
	viper.SetDefault("sentiment-token", "")
	viper.SetDefault("sentiment-timeout", defaults.SentimentTimeout)
	viper.SetDefault("cache-backend", defaults.CacheBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("cache-ttl", defaults.CacheTTL)
	viper.SetDefault("epochs", defaults.Epochs)
	viper.SetDefault("batch-size", defaults.BatchSize)
	viper.SetDefault("learning-rate", defaults.LearningRate)
	viper.SetDefault("seed", defaults.Seed)
	viper.SetDefault("validation-split", defaults.ValidationSplit)
	viper.SetDefault("output", defaults.Output)
	viper.SetDefault("output-file", "")
	viper.SetDefault("precision", defaults.Precision)
	viper.SetDefault("color", defaults.Color)
	viper.SetDefault("width", 0)
	viper.SetDefault("log-level", defaults.LogLevel)
	viper.SetDefault("log-format", defaults.LogFormat)
	viper.SetDefault("metrics-file", "")
}

// setConfigFile points viper at --config or at .revscore.yaml in the usual places.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".revscore")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfigFile reads the config file if present.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return contract.NewConfigurationError("error reading config file", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// configSetup merges file, env and flags into the validated cfg and builds the logger.
// It does not touch any store.
func configSetup() error {
	profilePrefix = viper.GetString("profile")
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return contract.NewConfigurationError("unable to unmarshal config", err)
	}
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	color.NoColor = !cfg.UseColors
	logger = contract.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	return nil
}

// sharedSetup validates config and opens the review store, model store and verdict cache.
func sharedSetup(_ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// engineSetup runs sharedSetup, then loads the lexicon and builds the scoring engine.
func engineSetup(cmd *cobra.Command, args []string) error {
	if err := sharedSetup(cmd, args); err != nil {
		return err
	}
	var err error
	engine, err = buildEngine(cfg, iocache.Manager)
	return err
}

// buildEngine wires the lexicon, the sentiment classifier and the stores together.
func buildEngine(cfg *contract.Config, mgr contract.StoreManager) (*core.Engine, error) {
	lexicon, err := core.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}

	var cache contract.CacheStore
	if cfg.CacheBackend != schema.NoneBackend {
		cache = mgr.GetVerdictCache()
	}
	classifier, err := sentiment.New(cfg, cache, logger)
	if err != nil {
		return nil, err
	}

	metrics = core.NewMetrics()
	scorer := core.NewScorer(lexicon, classifier, cfg.SentimentTimeout)
	logger.Debug("Engine ready", "lexicon", lexicon.Source(), "keywords", lexicon.Len(), "sentiment", cfg.SentimentProvider)
	return core.NewEngine(cfg, scorer, mgr, logger, metrics), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
