package cmd

import (
	"fmt"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/huangsam/revscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// commentCmd groups comment ingestion commands.
var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage stored review comments",
}

// commentAddCmd inserts one comment.
var commentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a review comment",
	Long: `Insert a comment into the review store. The optional website rating is
the 1-5 star rating the reviewer gave on the site.

Examples:
  revscore comment add --text "Great product, fast delivery!" --rating 5
  revscore comment add --text "arrived broken" --user-id 42`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		text, _ := cmd.Flags().GetString("text")
		var rating *float64
		if cmd.Flags().Changed("rating") {
			r, _ := cmd.Flags().GetFloat64("rating")
			rating = &r
		}
		var userID *int64
		if cmd.Flags().Changed("user-id") {
			id, _ := cmd.Flags().GetInt64("user-id")
			userID = &id
		}

		id, err := iocache.Manager.GetReviewStore().AddComment(rootCtx, text, rating, userID)
		if err != nil {
			contract.LogFatal("Cannot store comment", err)
		}
		fmt.Printf("Stored comment %d.\n", id)
	},
}

// feedbackCmd groups feedback ingestion commands.
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Manage human feedback labels",
}

// feedbackAddCmd attaches a human label to a stored comment.
var feedbackAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Label a stored comment with the true importance and quality",
	Long: `Attach a human label to an existing comment. Importance must be within
[0, 5] and quality within [1, 5]. Labels become training targets on the
next "revscore train".

Examples:
  revscore feedback add --comment-id 12 --importance 4.5 --quality 2`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range []string{"comment-id", "importance", "quality"} {
			if !cmd.Flags().Changed(name) {
				contract.LogFatal("Cannot store feedback", contract.NewInvalidInputError(name, "is required"))
			}
		}
		commentID, _ := cmd.Flags().GetInt64("comment-id")
		importance, _ := cmd.Flags().GetFloat64("importance")
		quality, _ := cmd.Flags().GetFloat64("quality")

		if err := iocache.Manager.GetReviewStore().AddFeedback(rootCtx, commentID, importance, quality); err != nil {
			contract.LogFatal("Cannot store feedback", err)
		}
		fmt.Printf("Stored feedback for comment %d.\n", commentID)
	},
}

// dbCmd focused on review store management.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the review database (comments and feedback)",
	Long: `Manage the database holding the COMMENTS and FEEDBACK tables.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and connection info
  export  - Export comments and feedback to Parquet
  migrate - Run database schema migrations`,
}

// dbStatusCmd shows review store status.
var dbStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display review store statistics and connection details",
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetReviewStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get review status", err)
		}
		iocache.PrintReviewStatus(status)
	},
}

// dbExportCmd exports comments and feedback to Parquet files.
var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export comments and feedback to Parquet for BI tools and analytics",
	Long: `Export the review tables to two Parquet files:
<output-file>.comments.parquet and <output-file>.feedback.parquet.

Requires: --output-file parameter

Examples:
  revscore db export --output-file reviews
  duckdb -c "SELECT * FROM 'reviews.comments.parquet' LIMIT 10"`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteReviewExport(rootCtx, iocache.Manager.GetReviewStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export review data", err)
		}
	},
}

// dbMigrateSetup loads minimal configuration needed for migrate operations.
// It does NOT open the review store, since opening it migrates to latest.
func dbMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	if cfg.ReviewBackend == schema.SQLiteBackend && cfg.ReviewDBConnect == "" {
		cfg.ReviewDBConnect = contract.GetReviewDBFilePath()
	}
	return nil
}

// dbMigrateCmd runs database migrations for the review store.
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the review store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  revscore db migrate

  # Migrate to specific version
  revscore db migrate --target-version 1

  # Rollback everything
  revscore db migrate --target-version 0`,
	PreRunE: dbMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateReviews(cfg.ReviewBackend, cfg.ReviewDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
