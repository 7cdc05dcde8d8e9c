// Package parquet provides data structures and functions for exporting review
// data, training datasets and predictions to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/revscore/schema"
	"github.com/parquet-go/parquet-go"
)

// Comment is one row of the COMMENTS table.
type Comment struct {
	CommentID int64 `parquet:"comments_id,snappy"`

	Text string `parquet:"comment,snappy"`

	// WebsiteRating is null when the reviewer gave no star rating
	WebsiteRating *float64 `parquet:"website_rating,optional,snappy"`

	UserID *int64 `parquet:"user_id,optional,snappy"`

	// CreatedAt is null for rows inserted before timestamps were recorded
	CreatedAt *time.Time `parquet:"created_at,optional,snappy"`
}

// Feedback is one human label joined to its comment text.
type Feedback struct {
	CommentID      int64   `parquet:"comments_id,snappy"`
	Text           string  `parquet:"comment,snappy"`
	TrueImportance float64 `parquet:"true_importance,snappy"`
	TrueQuality    float64 `parquet:"true_quality,snappy"`
}

// DatasetRow is one training example with raw and standardized features.
type DatasetRow struct {
	Text string `parquet:"comment,snappy"`

	// Source is "comment" for heuristic targets and "feedback" for human labels
	Source string `parquet:"source,snappy,dict"`

	FeatureImportance float64 `parquet:"feature_importance,snappy"`
	FeatureQuality    float64 `parquet:"feature_quality,snappy"`

	StandardizedImportance float64 `parquet:"standardized_importance,snappy"`
	StandardizedQuality    float64 `parquet:"standardized_quality,snappy"`

	TargetImportance float64 `parquet:"target_importance,snappy"`
	TargetQuality    float64 `parquet:"target_quality,snappy"`
}

// Prediction is one evaluator output row.
type Prediction struct {
	ModelVersion        int32   `parquet:"model_version,snappy"`
	Text                string  `parquet:"comment,snappy"`
	PredictedImportance float64 `parquet:"predicted_importance,snappy"`
	PredictedQuality    float64 `parquet:"predicted_quality,snappy"`
	HeuristicImportance float64 `parquet:"heuristic_importance,snappy"`
	HeuristicQuality    float64 `parquet:"heuristic_quality,snappy"`
}

// writeRows writes rows to outputPath using the schema inferred from T.
func writeRows[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteCommentsParquet writes comment rows to a Parquet file.
func WriteCommentsParquet(data []Comment, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteFeedbackParquet writes feedback rows to a Parquet file.
func WriteFeedbackParquet(data []Feedback, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteDatasetParquet writes training examples to a Parquet file.
func WriteDatasetParquet(data []DatasetRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WritePredictionsParquet writes evaluator predictions to a Parquet file.
func WritePredictionsParquet(data []Prediction, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertCommentRecords converts schema.CommentRecord to Comment for Parquet export.
func ConvertCommentRecords(records []schema.CommentRecord) []Comment {
	result := make([]Comment, len(records))
	for i, record := range records {
		result[i] = Comment{
			CommentID:     record.ID,
			Text:          record.Text,
			WebsiteRating: record.WebsiteRating,
			UserID:        record.UserID,
		}
		if !record.CreatedAt.IsZero() {
			created := record.CreatedAt
			result[i].CreatedAt = &created
		}
	}
	return result
}

// ConvertFeedbackRecords converts schema.FeedbackRecord to Feedback for Parquet export.
func ConvertFeedbackRecords(records []schema.FeedbackRecord) []Feedback {
	result := make([]Feedback, len(records))
	for i, record := range records {
		result[i] = Feedback{
			CommentID:      record.CommentID,
			Text:           record.Text,
			TrueImportance: record.TrueImportance,
			TrueQuality:    record.TrueQuality,
		}
	}
	return result
}

// ConvertPredictions converts evaluator output to Prediction rows.
func ConvertPredictions(result schema.EvaluationResult) []Prediction {
	rows := make([]Prediction, len(result.Ratings))
	for i, p := range result.Ratings {
		rows[i] = Prediction{
			ModelVersion:        int32(result.Model.Version),
			Text:                p.Comment,
			PredictedImportance: p.PredictedImportance,
			PredictedQuality:    p.PredictedQuality,
			HeuristicImportance: p.HeuristicImportance,
			HeuristicQuality:    p.HeuristicQuality,
		}
	}
	return rows
}
