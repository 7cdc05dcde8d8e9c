package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for a store.
	DatabaseBackend string

	// ModelBackend represents where calibration model artifacts live.
	ModelBackend string

	// SentimentLabel is the polarity returned by a sentiment classifier.
	SentimentLabel string

	// SentimentProvider selects the sentiment classifier implementation.
	SentimentProvider string

	// ExampleSource marks where a training example came from.
	ExampleSource string

	// LogFormat selects the slog handler.
	LogFormat string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // verdict cache only
	NoneBackend       DatabaseBackend = "none"
)

// All model artifact backends supported.
const (
	FileModels       ModelBackend = "file" // default
	SQLiteModels     ModelBackend = "sqlite"
	MySQLModels      ModelBackend = "mysql"
	PostgreSQLModels ModelBackend = "postgresql"
	S3Models         ModelBackend = "s3"
)

// Sentiment labels. Anything else is treated as neutral.
const (
	Positive SentimentLabel = "POSITIVE"
	Negative SentimentLabel = "NEGATIVE"
	Neutral  SentimentLabel = "NEUTRAL"
)

// All sentiment providers supported.
const (
	LexiconSentiment SentimentProvider = "lexicon" // default
	HTTPSentiment    SentimentProvider = "http"
)

// Example sources.
const (
	CommentSource  ExampleSource = "comment"
	FeedbackSource ExampleSource = "feedback"
)

// Log formats.
const (
	TextLog LogFormat = "text" // default
	JSONLog LogFormat = "json"
)

// Score bounds shared by the heuristic pipeline and the calibration model.
const (
	MinImportance = 0.0
	MaxImportance = 5.0
	MinQuality    = 1.0
	MaxQuality    = 5.0
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidReviewBackends lists the backends that can hold comments and feedback.
var ValidReviewBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidCacheBackends lists all valid verdict cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidModelBackends lists all valid model artifact backends.
var ValidModelBackends = map[ModelBackend]struct{}{
	FileModels:       {},
	SQLiteModels:     {},
	MySQLModels:      {},
	PostgreSQLModels: {},
	S3Models:         {},
}

// ValidSentimentProviders lists all valid sentiment providers.
var ValidSentimentProviders = map[SentimentProvider]struct{}{
	LexiconSentiment: {},
	HTTPSentiment:    {},
}

// DatabaseBackend returns the SQL backend behind a model backend, or NoneBackend
// when the artifacts do not live in a SQL database.
func (b ModelBackend) DatabaseBackend() DatabaseBackend {
	switch b {
	case SQLiteModels:
		return SQLiteBackend
	case MySQLModels:
		return MySQLBackend
	case PostgreSQLModels:
		return PostgreSQLBackend
	default:
		return NoneBackend
	}
}
