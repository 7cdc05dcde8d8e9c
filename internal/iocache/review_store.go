package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// ReviewStoreImpl reads and writes the COMMENTS and FEEDBACK tables.
type ReviewStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	now     func() time.Time
}

var _ contract.ReviewStore = &ReviewStoreImpl{} // Compile-time check

// NewReviewStore opens the review database and migrates it to the latest schema.
func NewReviewStore(backend schema.DatabaseBackend, connStr string) (*ReviewStoreImpl, error) {
	if _, ok := schema.ValidReviewBackends[backend]; !ok {
		return nil, fmt.Errorf("unsupported review backend: %s. Must be sqlite, mysql, or postgresql", backend)
	}

	db, err := openDB(backend, connStr, contract.GetReviewDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := migrateLatest(db, backend); err != nil {
		_ = db.Close()
		return nil, contract.NewDataSourceError(fmt.Sprintf("failed to prepare %s review store", backend), err)
	}

	return &ReviewStoreImpl{
		db:      db,
		backend: backend,
		connStr: connStr,
		now:     time.Now,
	}, nil
}

// FetchComments returns every comment in insertion order.
func (rs *ReviewStoreImpl) FetchComments(ctx context.Context) ([]schema.CommentRecord, error) {
	rows, err := rs.db.QueryContext(ctx, `SELECT comments_id, comment, website_rating, user_id, created_at FROM COMMENTS ORDER BY comments_id`)
	if err != nil {
		return nil, contract.NewDataSourceError("failed to query comments", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []schema.CommentRecord
	for rows.Next() {
		var (
			record  schema.CommentRecord
			rating  sql.NullFloat64
			userID  sql.NullInt64
			created int64
		)
		if err := rows.Scan(&record.ID, &record.Text, &rating, &userID, &created); err != nil {
			return nil, contract.NewDataSourceError("failed to scan comment", err)
		}
		if rating.Valid {
			record.WebsiteRating = &rating.Float64
		}
		if userID.Valid {
			record.UserID = &userID.Int64
		}
		if created > 0 {
			record.CreatedAt = time.Unix(created, 0)
		}
		comments = append(comments, record)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewDataSourceError("failed to read comments", err)
	}
	return comments, nil
}

// FetchFeedback returns every human label joined to the text it grades.
func (rs *ReviewStoreImpl) FetchFeedback(ctx context.Context) ([]schema.FeedbackRecord, error) {
	rows, err := rs.db.QueryContext(ctx, `SELECT f.comments_id, c.comment, f.true_importance, f.true_quality
		FROM FEEDBACK f INNER JOIN COMMENTS c ON f.comments_id = c.comments_id
		ORDER BY f.feedback_id`)
	if err != nil {
		return nil, contract.NewDataSourceError("failed to query feedback", err)
	}
	defer func() { _ = rows.Close() }()

	var feedback []schema.FeedbackRecord
	for rows.Next() {
		var record schema.FeedbackRecord
		if err := rows.Scan(&record.CommentID, &record.Text, &record.TrueImportance, &record.TrueQuality); err != nil {
			return nil, contract.NewDataSourceError("failed to scan feedback", err)
		}
		feedback = append(feedback, record)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewDataSourceError("failed to read feedback", err)
	}
	return feedback, nil
}

// AddComment inserts a comment and returns its generated ID.
func (rs *ReviewStoreImpl) AddComment(ctx context.Context, text string, rating *float64, userID *int64) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, contract.NewInvalidInputError("comment", "text must not be empty")
	}
	if rating != nil && (math.IsNaN(*rating) || math.IsInf(*rating, 0)) {
		return 0, contract.NewInvalidInputError("website_rating", "must be a finite number")
	}

	var ratingArg, userArg any
	if rating != nil {
		ratingArg = *rating
	}
	if userID != nil {
		userArg = *userID
	}
	created := rs.now().Unix()

	if rs.backend == schema.PostgreSQLBackend {
		// pgx does not report LastInsertId
		var id int64
		row := rs.db.QueryRowContext(ctx,
			`INSERT INTO COMMENTS (comment, website_rating, user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING comments_id`,
			text, ratingArg, userArg, created)
		if err := row.Scan(&id); err != nil {
			return 0, contract.NewDataSourceError("failed to insert comment", err)
		}
		return id, nil
	}

	res, err := rs.db.ExecContext(ctx,
		`INSERT INTO COMMENTS (comment, website_rating, user_id, created_at) VALUES (?, ?, ?, ?)`,
		text, ratingArg, userArg, created)
	if err != nil {
		return 0, contract.NewDataSourceError("failed to insert comment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, contract.NewDataSourceError("failed to read comment id", err)
	}
	return id, nil
}

// AddFeedback attaches a human label to an existing comment.
func (rs *ReviewStoreImpl) AddFeedback(ctx context.Context, commentID int64, importance, quality float64) error {
	if commentID <= 0 {
		return contract.NewInvalidInputError("comment_id", "must be positive")
	}
	if math.IsNaN(importance) || importance < schema.MinImportance || importance > schema.MaxImportance {
		return contract.NewInvalidInputError("true_importance", fmt.Sprintf("must be within [%g, %g]", schema.MinImportance, schema.MaxImportance))
	}
	if math.IsNaN(quality) || quality < schema.MinQuality || quality > schema.MaxQuality {
		return contract.NewInvalidInputError("true_quality", fmt.Sprintf("must be within [%g, %g]", schema.MinQuality, schema.MaxQuality))
	}

	var count int
	row := rs.db.QueryRowContext(ctx, rebind(rs.backend, `SELECT COUNT(*) FROM COMMENTS WHERE comments_id = ?`), commentID)
	if err := row.Scan(&count); err != nil {
		return contract.NewDataSourceError("failed to look up comment", err)
	}
	if count == 0 {
		return contract.NewInvalidInputError("comment_id", fmt.Sprintf("comment %d does not exist", commentID))
	}

	query := rebind(rs.backend, `INSERT INTO FEEDBACK (comments_id, true_importance, true_quality, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := rs.db.ExecContext(ctx, query, commentID, importance, quality, rs.now().Unix()); err != nil {
		return contract.NewDataSourceError("failed to insert feedback", err)
	}
	return nil
}

// GetStatus returns status information about the review store.
func (rs *ReviewStoreImpl) GetStatus() (schema.ReviewStatus, error) {
	status := schema.ReviewStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}
	if rs.db == nil {
		return status, nil
	}

	row := rs.db.QueryRow(`SELECT COUNT(*), COUNT(website_rating), COALESCE(MAX(created_at), 0) FROM COMMENTS`)
	var last int64
	if err := row.Scan(&status.Comments, &status.RatedComments, &last); err != nil {
		return status, fmt.Errorf("failed to count comments: %w", err)
	}
	if last > 0 {
		status.LastComment = time.Unix(last, 0)
	}

	row = rs.db.QueryRow(`SELECT COUNT(*) FROM FEEDBACK`)
	if err := row.Scan(&status.Feedback); err != nil {
		return status, fmt.Errorf("failed to count feedback: %w", err)
	}
	return status, nil
}

// Close closes the underlying DB connection.
func (rs *ReviewStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
