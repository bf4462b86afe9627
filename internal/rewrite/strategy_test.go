package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devcode/internal/templates"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(
		ManagedLocation{Description: "package metadata", Strategy: FieldPatch{Path: "package.json"}},
		ManagedLocation{Description: "codeql", Strategy: LinePatch{Path: "./.github/codeql/codeql-config.yml", Marker: "name:"}},
		ManagedLocation{Description: "ci", Strategy: Regenerate{Path: ".github/workflows/ci.yml", Template: templates.CIWorkflow, Data: templateData}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{
		"package.json",
		".github/codeql/codeql-config.yml",
		".github/workflows/ci.yml",
	}, reg.Paths())

	// Mutating the returned slice does not affect the registry.
	locs := reg.Locations()
	locs[0].Description = "changed"
	assert.Equal(t, "package metadata", reg.Locations()[0].Description)
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name      string
		locations []ManagedLocation
		wantErr   string
	}{
		{
			name: "duplicate path",
			locations: []ManagedLocation{
				{Strategy: FieldPatch{Path: "package.json"}},
				{Strategy: FieldPatch{Path: "./package.json"}},
			},
			wantErr: "declared twice",
		},
		{
			name: "conflicting strategies",
			locations: []ManagedLocation{
				{Strategy: FieldPatch{Path: "a.yml"}},
				{Strategy: LinePatch{Path: "a.yml", Marker: "name:"}},
			},
			wantErr: "conflicting strategies",
		},
		{
			name:      "nil strategy",
			locations: []ManagedLocation{{Description: "broken"}},
			wantErr:   "no strategy",
		},
		{
			name:      "absolute path",
			locations: []ManagedLocation{{Strategy: FieldPatch{Path: "/etc/package.json"}}},
			wantErr:   "relative",
		},
		{
			name:      "escaping path",
			locations: []ManagedLocation{{Strategy: FieldPatch{Path: "../package.json"}}},
			wantErr:   "escapes",
		},
		{
			name:      "empty path",
			locations: []ManagedLocation{{Strategy: FieldPatch{}}},
			wantErr:   "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.locations...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.Paths())
}
