package iocache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"

	"github.com/huangsam/revscore/internal/contract"
)

// maxSaveAttempts bounds how often Save retries after losing a version race.
const maxSaveAttempts = 5

var (
	modelNamePattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	versionFilePattern = regexp.MustCompile(`^v(\d{6,})\.json$`)
)

// validateModelName keeps model names safe to use as paths, keys and SQL values.
func validateModelName(name string) error {
	if !modelNamePattern.MatchString(name) {
		return contract.NewInvalidInputError("model name", fmt.Sprintf("%q must match ^[a-zA-Z0-9_-]+$", name))
	}
	return nil
}

// versionFileName is the artifact name of one version, e.g. v000003.json.
func versionFileName(version int) string {
	return fmt.Sprintf("v%06d.json", version)
}

// parseVersionFileName extracts the version from an artifact name.
func parseVersionFileName(name string) (int, bool) {
	m := versionFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// checksum is the hex sha256 of an artifact payload.
func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
