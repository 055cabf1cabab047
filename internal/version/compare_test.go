package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSchemaCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		engineVersion string
		fileVersion   string
		expectError   bool
		errorContains string
	}{
		{
			name:          "exact match",
			engineVersion: "1.2.0",
			fileVersion:   "1.2.0",
			expectError:   false,
		},
		{
			name:          "patch differs",
			engineVersion: "1.2.1",
			fileVersion:   "1.2.5",
			expectError:   false,
		},
		{
			name:          "file minor older",
			engineVersion: "1.3.0",
			fileVersion:   "1.2.0",
			expectError:   false,
		},
		{
			name:          "file minor newer",
			engineVersion: "1.2.0",
			fileVersion:   "1.3.0",
			expectError:   true,
			errorContains: "newer engine",
		},
		{
			name:          "major mismatch",
			engineVersion: "2.0.0",
			fileVersion:   "1.2.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{
			name:          "dev engine skips check",
			engineVersion: "main",
			fileVersion:   "1.2.0",
			expectError:   false,
		},
		{
			name:          "dev file skips check",
			engineVersion: "1.2.0",
			fileVersion:   "main",
			expectError:   false,
		},
		{
			name:          "v prefix accepted",
			engineVersion: "v1.2.0",
			fileVersion:   "v1.2.3",
			expectError:   false,
		},
		{
			name:          "garbage file version",
			engineVersion: "1.2.0",
			fileVersion:   "not-a-version",
			expectError:   true,
			errorContains: "invalid schema version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchemaCompatibility(tt.engineVersion, tt.fileVersion)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
