package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/parquet"
)

// ExecuteReviewExport dumps the comment and feedback tables to
// <outputFile>.comments.parquet and <outputFile>.feedback.parquet.
func ExecuteReviewExport(ctx context.Context, store contract.ReviewStore, outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get review status: %w", err)
	}
	if status.Comments == 0 {
		return errors.New("no comments found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)

	comments, err := store.FetchComments(ctx)
	if err != nil {
		return err
	}
	feedback, err := store.FetchFeedback(ctx)
	if err != nil {
		return err
	}

	commentsFile := outputFile + ".comments.parquet"
	if err := parquet.WriteCommentsParquet(parquet.ConvertCommentRecords(comments), commentsFile); err != nil {
		return fmt.Errorf("failed to write comments: %w", err)
	}
	fmt.Printf("Exported %d comments to: %s\n", len(comments), commentsFile)

	feedbackFile := outputFile + ".feedback.parquet"
	if err := parquet.WriteFeedbackParquet(parquet.ConvertFeedbackRecords(feedback), feedbackFile); err != nil {
		return fmt.Errorf("failed to write feedback: %w", err)
	}
	fmt.Printf("Exported %d feedback labels to: %s\n", len(feedback), feedbackFile)

	return nil
}
