package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckSchemaCompatibility checks whether a config file's schema version can
// be loaded by this build.
//
// Compatibility rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The file's minor version must not be newer than the engine's
//   - Patch versions can differ freely
func CheckSchemaCompatibility(engineVersion, fileVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	fileVersion = strings.TrimPrefix(fileVersion, "v")

	if engineVersion == "main" || fileVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	fileSemver, err := semver.NewVersion(fileVersion)
	if err != nil {
		return fmt.Errorf("invalid schema version '%s': %w", fileVersion, err)
	}

	if engineSemver.Major() != fileSemver.Major() {
		return fmt.Errorf("incompatible schema version: engine %s cannot load schema %s (major version mismatch)",
			engineVersion, fileVersion)
	}

	if fileSemver.Minor() > engineSemver.Minor() {
		return fmt.Errorf("incompatible schema version: engine %s cannot load schema %s (file requires a newer engine)",
			engineVersion, fileVersion)
	}

	return nil
}
