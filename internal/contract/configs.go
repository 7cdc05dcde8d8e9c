package contract

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/revscore/schema"
)

// Default values for configuration.
const (
	DefaultLexiconPath      = "baseline_weight.json"
	DefaultModelName        = "calibration"
	DefaultModelRetain      = 5
	DefaultEpochs           = 100
	DefaultBatchSize        = 32
	DefaultLearningRate     = 0.001
	DefaultSeed             = 42
	DefaultValidationSplit  = 0.2
	DefaultPrecision        = 2
	DefaultS3Region         = "us-east-1"
	DefaultSentimentTimeout = 10 * time.Second
	DefaultCacheTTL         = 30 * 24 * time.Hour
	MaxPrecision            = 4
	MaxValidationSplit      = 0.9
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

var modelNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// S3Config holds the settings of the S3 model backend.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // Custom endpoint for MinIO or LocalStack
	AccessKey string
	SecretKey string // Please use env var as this is plaintext
}

// TrainingConfig holds the trainer hyperparameters.
type TrainingConfig struct {
	Epochs          int
	BatchSize       int
	LearningRate    float64
	Seed            uint64
	ValidationSplit float64
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	LexiconPath string

	ReviewBackend   schema.DatabaseBackend
	ReviewDBConnect string // Please use env var as this is plaintext

	ModelBackend   schema.ModelBackend
	ModelDir       string
	ModelDBConnect string
	ModelName      string
	ModelRetain    int // 0 keeps every version
	S3             S3Config

	SentimentProvider schema.SentimentProvider
	SentimentEndpoint string
	SentimentToken    string
	SentimentTimeout  time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string
	CacheTTL       time.Duration

	Training TrainingConfig

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	UseColors  bool
	Width      int // Terminal width override (0 = auto-detect)

	LogLevel    slog.Level
	LogFormat   schema.LogFormat
	MetricsFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Lexicon string `mapstructure:"lexicon"`

	ReviewBackend   string `mapstructure:"review-backend"`
	ReviewDBConnect string `mapstructure:"review-db-connect"`

	ModelBackend   string `mapstructure:"model-backend"`
	ModelDir       string `mapstructure:"model-dir"`
	ModelDBConnect string `mapstructure:"model-db-connect"`
	ModelName      string `mapstructure:"model-name"`
	ModelRetain    int    `mapstructure:"model-retain"`

	S3Bucket    string `mapstructure:"s3-bucket"`
	S3Prefix    string `mapstructure:"s3-prefix"`
	S3Region    string `mapstructure:"s3-region"`
	S3Endpoint  string `mapstructure:"s3-endpoint"`
	S3AccessKey string `mapstructure:"s3-access-key"`
	S3SecretKey string `mapstructure:"s3-secret-key"`

	SentimentProvider string `mapstructure:"sentiment-provider"`
	SentimentEndpoint string `mapstructure:"sentiment-endpoint"`
	SentimentToken    string `mapstructure:"sentiment-token"`
	SentimentTimeout  string `mapstructure:"sentiment-timeout"`

	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	CacheTTL       string `mapstructure:"cache-ttl"`

	Epochs          int     `mapstructure:"epochs"`
	BatchSize       int     `mapstructure:"batch-size"`
	LearningRate    float64 `mapstructure:"learning-rate"`
	Seed            int64   `mapstructure:"seed"`
	ValidationSplit float64 `mapstructure:"validation-split"`

	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`

	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	MetricsFile string `mapstructure:"metrics-file"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Every failure is a configuration error.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	steps := []func(*Config, *ConfigRawInput) error{
		validateSimpleInputs,
		validateReviewBackend,
		validateModelBackend,
		validateSentiment,
		validateCacheBackend,
		validateTraining,
	}
	for _, step := range steps {
		if err := step(cfg, input); err != nil {
			return NewConfigurationError("invalid configuration", err)
		}
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with 'redis://' or 'rediss://'")
		}
	}
	return nil
}

// validateSimpleInputs processes the lexicon, output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile

	cfg.LexiconPath = strings.TrimSpace(input.Lexicon)
	if cfg.LexiconPath == "" {
		return fmt.Errorf("lexicon path must not be empty")
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.LogFormat = schema.LogFormat(strings.ToLower(input.LogFormat))
	if cfg.LogFormat != schema.TextLog && cfg.LogFormat != schema.JSONLog {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}
	return nil
}

// validateReviewBackend validates the comment and feedback store.
func validateReviewBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.ReviewBackend = schema.DatabaseBackend(strings.ToLower(input.ReviewBackend))
	if _, ok := schema.ValidReviewBackends[cfg.ReviewBackend]; !ok {
		return fmt.Errorf("invalid review backend '%s'. must be sqlite, mysql, postgresql", input.ReviewBackend)
	}
	cfg.ReviewDBConnect = input.ReviewDBConnect
	return ValidateDatabaseConnectionString(cfg.ReviewBackend, cfg.ReviewDBConnect)
}

// validateModelBackend validates where calibration models are kept.
func validateModelBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.ModelBackend = schema.ModelBackend(strings.ToLower(input.ModelBackend))
	if _, ok := schema.ValidModelBackends[cfg.ModelBackend]; !ok {
		return fmt.Errorf("invalid model backend '%s'. must be file, sqlite, mysql, postgresql, s3", input.ModelBackend)
	}

	cfg.ModelName = strings.TrimSpace(input.ModelName)
	if !modelNamePattern.MatchString(cfg.ModelName) {
		return fmt.Errorf("model name %q must only contain letters, digits, '-' and '_'", input.ModelName)
	}
	if input.ModelRetain < 0 {
		return fmt.Errorf("model-retain cannot be negative (received %d)", input.ModelRetain)
	}
	cfg.ModelRetain = input.ModelRetain

	switch cfg.ModelBackend {
	case schema.FileModels:
		cfg.ModelDir = input.ModelDir
		if cfg.ModelDir == "" {
			cfg.ModelDir = GetModelDirPath()
		}
	case schema.S3Models:
		cfg.S3 = S3Config{
			Bucket:    strings.TrimSpace(input.S3Bucket),
			Prefix:    strings.Trim(input.S3Prefix, "/"),
			Region:    input.S3Region,
			Endpoint:  input.S3Endpoint,
			AccessKey: input.S3AccessKey,
			SecretKey: input.S3SecretKey,
		}
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("s3-bucket is required when using the s3 model backend")
		}
		if cfg.S3.Region == "" {
			cfg.S3.Region = DefaultS3Region
		}
		if (cfg.S3.AccessKey == "") != (cfg.S3.SecretKey == "") {
			return fmt.Errorf("s3-access-key and s3-secret-key must be set together")
		}
	default:
		cfg.ModelDBConnect = input.ModelDBConnect
		if err := ValidateDatabaseConnectionString(cfg.ModelBackend.DatabaseBackend(), cfg.ModelDBConnect); err != nil {
			return err
		}
	}
	return nil
}

// validateSentiment validates the sentiment provider settings.
func validateSentiment(cfg *Config, input *ConfigRawInput) error {
	cfg.SentimentProvider = schema.SentimentProvider(strings.ToLower(input.SentimentProvider))
	if _, ok := schema.ValidSentimentProviders[cfg.SentimentProvider]; !ok {
		return fmt.Errorf("invalid sentiment provider '%s'. must be lexicon, http", input.SentimentProvider)
	}

	timeout, err := parsePositiveDuration("sentiment-timeout", input.SentimentTimeout, DefaultSentimentTimeout)
	if err != nil {
		return err
	}
	cfg.SentimentTimeout = timeout

	if cfg.SentimentProvider == schema.HTTPSentiment {
		u, err := url.Parse(input.SentimentEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("sentiment-endpoint must be an http(s) URL when using the http provider (received %q)", input.SentimentEndpoint)
		}
		cfg.SentimentEndpoint = input.SentimentEndpoint
		cfg.SentimentToken = input.SentimentToken
	}
	return nil
}

// validateCacheBackend validates the sentiment verdict cache.
func validateCacheBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	ttl, err := parsePositiveDuration("cache-ttl", input.CacheTTL, DefaultCacheTTL)
	if err != nil {
		return err
	}
	cfg.CacheTTL = ttl

	// Clearing the SQLite cache removes its file, so it must never be the review database.
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.ReviewBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		reviewPath := cfg.ReviewDBConnect
		if reviewPath == "" {
			reviewPath = GetReviewDBFilePath()
		}
		if cachePath == reviewPath {
			return fmt.Errorf("cache and review storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateTraining validates the trainer hyperparameters.
func validateTraining(cfg *Config, input *ConfigRawInput) error {
	if input.Epochs <= 0 {
		return fmt.Errorf("epochs must be greater than 0 (received %d)", input.Epochs)
	}
	if input.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0 (received %d)", input.BatchSize)
	}
	if input.LearningRate <= 0 {
		return fmt.Errorf("learning-rate must be greater than 0 (received %g)", input.LearningRate)
	}
	if input.Seed < 0 {
		return fmt.Errorf("seed cannot be negative (received %d)", input.Seed)
	}
	if input.ValidationSplit < 0 || input.ValidationSplit > MaxValidationSplit {
		return fmt.Errorf("validation-split must be between 0 and %.1f (received %g)", MaxValidationSplit, input.ValidationSplit)
	}
	cfg.Training = TrainingConfig{
		Epochs:          input.Epochs,
		BatchSize:       input.BatchSize,
		LearningRate:    input.LearningRate,
		Seed:            uint64(input.Seed),
		ValidationSplit: input.ValidationSplit,
	}
	return nil
}

// parsePositiveDuration parses a Go duration string, falling back when it is empty.
func parsePositiveDuration(key, s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive (received %s)", key, s)
	}
	return d, nil
}

// DefaultRawInput returns the raw input matching every default, for tests and embedding.
func DefaultRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		Lexicon:           DefaultLexiconPath,
		ReviewBackend:     string(schema.SQLiteBackend),
		ModelBackend:      string(schema.FileModels),
		ModelName:         DefaultModelName,
		ModelRetain:       DefaultModelRetain,
		S3Region:          DefaultS3Region,
		SentimentProvider: string(schema.LexiconSentiment),
		SentimentTimeout:  DefaultSentimentTimeout.String(),
		CacheBackend:      string(schema.NoneBackend),
		CacheTTL:          DefaultCacheTTL.String(),
		Epochs:            DefaultEpochs,
		BatchSize:         DefaultBatchSize,
		LearningRate:      DefaultLearningRate,
		Seed:              DefaultSeed,
		ValidationSplit:   DefaultValidationSplit,
		Output:            string(schema.TextOut),
		Precision:         DefaultPrecision,
		Color:             "yes",
		LogLevel:          "info",
		LogFormat:         string(schema.TextLog),
	}
}
