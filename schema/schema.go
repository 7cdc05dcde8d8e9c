// Package schema has the records, results and constants shared by all parts of revscore.
package schema

import "time"

// CommentRecord is a review as stored in the COMMENTS table.
type CommentRecord struct {
	ID            int64     `json:"comments_id"`
	Text          string    `json:"comment"`
	WebsiteRating *float64  `json:"website_rating,omitempty"` // nil when the reviewer gave no rating
	UserID        *int64    `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FeedbackRecord is a human label joined to the text of the comment it grades.
type FeedbackRecord struct {
	CommentID      int64   `json:"comments_id"`
	Text           string  `json:"comment"`
	TrueImportance float64 `json:"true_importance"`
	TrueQuality    float64 `json:"true_quality"`
}

// SentimentVerdict is the answer of a sentiment classifier for one text.
type SentimentVerdict struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"score"` // 0-1
}

// HeuristicScore is the clamped output of the keyword, sentiment and rating pipeline.
type HeuristicScore struct {
	Importance float64 `json:"importance"`
	Quality    float64 `json:"quality"`
}

// Prediction is one calibrated result produced by the evaluator.
type Prediction struct {
	Comment             string  `json:"comment"`
	PredictedImportance float64 `json:"predicted_importance"`
	PredictedQuality    float64 `json:"predicted_quality"`
	HeuristicImportance float64 `json:"heuristic_importance"`
	HeuristicQuality    float64 `json:"heuristic_quality"`
}

// ScoreBreakdown explains a single heuristic scoring call.
type ScoreBreakdown struct {
	Text              string           `json:"comment"`
	Tokens            []string         `json:"matched_keywords"`
	RawImportance     float64          `json:"raw_importance"`
	RawQuality        float64          `json:"raw_quality"`
	Sentiment         SentimentVerdict `json:"sentiment"`
	WebsiteRating     *float64         `json:"website_rating,omitempty"`
	Heuristic         HeuristicScore   `json:"heuristic"`
	Calibrated        *HeuristicScore  `json:"calibrated,omitempty"`
	CalibratedVersion int              `json:"model_version,omitempty"`
}
