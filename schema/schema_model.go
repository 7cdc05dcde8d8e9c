package schema

import "time"

// ModelVersion describes one persisted calibration model artifact.
type ModelVersion struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum,omitempty"` // sha256 of the payload
}

// TrainingSummary is the result of a full retrain.
type TrainingSummary struct {
	Status             string        `json:"status"`
	Message            string        `json:"message"`
	RunID              string        `json:"run_id"`
	Model              ModelVersion  `json:"model"`
	Comments           int           `json:"comments"`
	Feedback           int           `json:"feedback"`
	TrainExamples      int           `json:"train_examples"`
	ValidationExamples int           `json:"validation_examples"`
	Epochs             int           `json:"epochs"`
	FinalLoss          float64       `json:"final_loss"`
	ValidationLoss     *float64      `json:"validation_loss,omitempty"`
	Duration           time.Duration `json:"duration_ns"`
}

// EvaluationResult wraps ordered predictions with the model that produced them.
type EvaluationResult struct {
	Status  string       `json:"status"`
	Model   ModelVersion `json:"model"`
	Ratings []Prediction `json:"ratings"`
}
