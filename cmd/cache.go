package cmd

import (
	"fmt"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/spf13/cobra"
)

// cacheSetup loads the configuration needed for cache operations.
// It skips the review and model stores entirely.
func cacheSetup(_ *cobra.Command, _ []string) error {
	return configSetup()
}

// cacheCmd focused on cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the sentiment verdict cache",
	Long: `Manage the cache of sentiment verdicts, keyed by provider and comment text.

Remote sentiment calls are slow and rate limited, so every successful verdict
is cached and reused on the next training or evaluation run.

Supported backends: SQLite, MySQL, PostgreSQL, Redis, or None (default)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached verdicts

Examples:
  # Check cache status
  revscore cache status --cache-backend sqlite

  # Clear the Redis cache
  REVSCORE_CACHE_BACKEND=redis REVSCORE_CACHE_DB_CONNECT=redis://localhost:6379/0 revscore cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached sentiment verdicts",
	Long: `Delete all cached verdicts from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table
For Redis: Deletes the verdict keys`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.CacheDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetCacheDBFilePath()
		}
		if err := iocache.ClearCache(cfg.CacheBackend, dbFilePath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the cache backend, connection status, entry count, entry
timestamps and storage size.`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := iocache.NewVerdictCache(cfg)
		if err != nil {
			contract.LogFatal("Failed to open cache", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
