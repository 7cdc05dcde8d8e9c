//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts req and returns host:port of its first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port nat.Port) (string, string) {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseBackends runs the full workflow against whatever backends env selects.
func exerciseBackends(t *testing.T, env ...string) {
	w := newWorkspace(t, env...)

	w.mustRun("db", "migrate")
	w.seed()
	w.mustRun("train")
	w.mustRun("train")

	out := w.mustRun("evaluate", "--output", "csv")
	assert.Contains(t, out, "fast delivery but the box arrived broken")

	out = w.mustRun("model", "list", "--output", "csv")
	assert.Contains(t, out, "calibration,2,")

	out = w.mustRun("model", "prune", "--keep", "1")
	assert.Contains(t, out, "Removed 1 model versions.")

	w.mustRun("cache", "status")
	w.mustRun("cache", "clear")
}

// TestRevscoreWithMySQL stores reviews, models and verdicts in MySQL.
func TestRevscoreWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "revscore",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/revscore?parseTime=true&multiStatements=true", host, port)
	exerciseBackends(t,
		"REVSCORE_REVIEW_BACKEND=mysql",
		"REVSCORE_REVIEW_DB_CONNECT="+connStr,
		"REVSCORE_MODEL_BACKEND=mysql",
		"REVSCORE_MODEL_DB_CONNECT="+connStr,
		"REVSCORE_CACHE_BACKEND=mysql",
		"REVSCORE_CACHE_DB_CONNECT="+connStr,
	)
}

// TestRevscoreWithPostgres stores reviews, models and verdicts in PostgreSQL.
func TestRevscoreWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port)
	exerciseBackends(t,
		"REVSCORE_REVIEW_BACKEND=postgresql",
		"REVSCORE_REVIEW_DB_CONNECT="+connStr,
		"REVSCORE_MODEL_BACKEND=postgresql",
		"REVSCORE_MODEL_DB_CONNECT="+connStr,
		"REVSCORE_CACHE_BACKEND=postgresql",
		"REVSCORE_CACHE_DB_CONNECT="+connStr,
	)
}

// TestRevscoreWithRedisCache keeps reviews in SQLite and verdicts in Redis.
func TestRevscoreWithRedisCache(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	w := newWorkspace(t,
		"REVSCORE_CACHE_BACKEND=redis",
		fmt.Sprintf("REVSCORE_CACHE_DB_CONNECT=redis://%s:%s/0", host, port),
	)

	w.mustRun("score", "an excellent purchase")
	w.mustRun("score", "a slow refund")
	out := w.mustRun("cache", "status")
	assert.Contains(t, out, "Cache Backend: redis")
	assert.Contains(t, out, "Total Entries: 2")

	w.mustRun("cache", "clear")
	out = w.mustRun("cache", "status")
	assert.Contains(t, out, "Total Entries: 0")
}
