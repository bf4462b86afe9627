package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChange_IsValid checks that only defined change values pass validation.
func TestChange_IsValid(t *testing.T) {
	assert.True(t, ChangeUpdated.IsValid())
	assert.True(t, ChangeUnchanged.IsValid())
	assert.True(t, ChangeSkipped.IsValid())
	assert.True(t, ChangeCreated.IsValid())
	assert.True(t, ChangeFailed.IsValid())
	assert.False(t, Change("renamed").IsValid())
	assert.False(t, Change("").IsValid())
}

// TestParseChange verifies string-to-change conversion,
// including case normalization and error cases.
func TestParseChange(t *testing.T) {
	tests := []struct {
		input    string
		expected Change
		hasError bool
	}{
		{"updated", ChangeUpdated, false},
		{"Skipped", ChangeSkipped, false}, // case insensitive
		{"CREATED", ChangeCreated, false}, // case insensitive
		{"bogus", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseChange(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestValidatePackageName covers scoped and unscoped npm names.
func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "my-package", false},
		{"scoped", "@scope/my-package", false},
		{"dots and underscores", "my.pkg_name", false},
		{"single char", "a", false},
		{"empty", "", true},
		{"uppercase", "MyPackage", true},
		{"leading dot", ".hidden", true},
		{"scope without name", "@scope/", true},
		{"space", "my package", true},
		{"double scope", "@a/@b/c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("too long", func(t *testing.T) {
		long := make([]byte, maxPackageNameLength+1)
		for i := range long {
			long[i] = 'a'
		}
		assert.Error(t, ValidatePackageName(string(long)))
	})
}

func TestUnscopedName(t *testing.T) {
	assert.Equal(t, "my-package", UnscopedName("@scope/my-package"))
	assert.Equal(t, "my-package", UnscopedName("my-package"))
	assert.Equal(t, "@weird", UnscopedName("@weird"))
}

// TestReport_Tally verifies that summary counts cover both locations and
// artifacts, and that Warnings only returns failed entries.
func TestReport_Tally(t *testing.T) {
	r := &Report{
		Locations: []LocationResult{
			{Path: "package.json", Change: ChangeUpdated},
			{Path: ".github/codeql/codeql-config.yml", Change: ChangeSkipped},
			{Path: ".github/workflows/ci.yml", Change: ChangeFailed, Warning: "boom"},
		},
		Artifacts: []LocationResult{
			{Path: ".github/workflows/publish.yml", Change: ChangeCreated},
		},
		Occurrences: []Occurrence{{Path: "README.md", Line: 1, Snippet: "# my-devcode"}},
	}

	r.Tally()

	assert.Equal(t, Summary{Updated: 1, Skipped: 1, Created: 1, Failed: 1, Occurrences: 1}, r.Summary)

	warnings := r.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, ".github/workflows/ci.yml", warnings[0].Path)
	assert.Equal(t, "boom", warnings[0].Warning)
}

func TestOccurrence_String(t *testing.T) {
	o := Occurrence{Path: "docs/intro.md", Line: 12, Snippet: "Install my-devcode"}
	assert.Equal(t, "docs/intro.md:12: Install my-devcode", o.String())
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitInvalidName, "invalid package name")
		assert.Equal(t, ExitInvalidName, err.Code)
		assert.Equal(t, "invalid package name", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitGeneralError, "failed to read package.json", inner)
		assert.Equal(t, ExitGeneralError, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, inner, err.Unwrap())
	})

	// The fatal precondition sentinels must survive CLIError wrapping so the
	// caller can choose its exit behavior with errors.Is.
	t.Run("errors.Is sentinel chain", func(t *testing.T) {
		err := WrapCLIError(ExitNotADevelopmentProject, "package.json is not private", ErrNotADevelopmentProject)
		assert.True(t, errors.Is(err, ErrNotADevelopmentProject))
		assert.False(t, errors.Is(err, ErrPackageMetadataNotFound))
	})
}
