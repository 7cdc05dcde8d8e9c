//go:build basic || database

// Package integration drives the revscore binary end to end.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// With containers: go test -tags database ./integration
package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedRevscorePath holds the path to a shared revscore binary built once for all tests.
	sharedRevscorePath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// testLexicon is a small keyword table shared by every scenario.
const testLexicon = `{
  "fast": {"importance": 4, "quality": 1},
  "broken": {"importance": 5, "quality": 1},
  "excellent": {"importance": 1, "quality": 5},
  "slow": {"importance": 4, "quality": 2},
  "refund": {"importance": 5, "quality": 2}
}`

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getRevscoreBinary returns the path to the revscore binary, building it once if needed.
func getRevscoreBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "revscore-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		revscorePath := filepath.Join(tempDir, "revscore")
		buildCmd := exec.Command("go", "build", "-o", revscorePath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build revscore: %v", err))
		}

		sharedRevscorePath = revscorePath
	})

	return sharedRevscorePath
}

// workspace is an isolated HOME with a lexicon file, so default SQLite paths
// and model directories never touch the real user directory.
type workspace struct {
	t    *testing.T
	home string
	env  []string
}

func newWorkspace(t *testing.T, env ...string) *workspace {
	t.Helper()
	home := t.TempDir()
	lexiconPath := filepath.Join(home, "lexicon.json")
	require.NoError(t, os.WriteFile(lexiconPath, []byte(testLexicon), 0o644))

	base := []string{
		"HOME=" + home,
		"PATH=" + os.Getenv("PATH"),
		"REVSCORE_LEXICON=" + lexiconPath,
		"REVSCORE_COLOR=no",
		"REVSCORE_EPOCHS=10",
		"REVSCORE_BATCH_SIZE=4",
	}
	return &workspace{t: t, home: home, env: append(base, env...)}
}

// run executes revscore and returns stdout and stderr, logging both on failure.
func (w *workspace) run(args ...string) (string, string, error) {
	w.t.Helper()
	cmd := exec.Command(getRevscoreBinary(), args...)
	cmd.Dir = w.home
	cmd.Env = w.env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		w.t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
	}
	return stdout.String(), stderr.String(), err
}

// mustRun is run with a required success.
func (w *workspace) mustRun(args ...string) string {
	w.t.Helper()
	stdout, _, err := w.run(args...)
	require.NoError(w.t, err)
	return stdout
}

// seed stores a few comments and one feedback label.
func (w *workspace) seed() {
	w.t.Helper()
	w.mustRun("comment", "add", "--text", "fast delivery but the box arrived broken", "--rating", "2")
	w.mustRun("comment", "add", "--text", "excellent quality", "--rating", "5", "--user-id", "7")
	w.mustRun("comment", "add", "--text", "slow refund")
	w.mustRun("comment", "add", "--text", "fast and excellent", "--rating", "4")
	w.mustRun("feedback", "add", "--comment-id", "1", "--importance", "4.5", "--quality", "1.5")
}
