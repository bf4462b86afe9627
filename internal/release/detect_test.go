package release

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devcode/internal/model"
)

func TestDetectPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     string
		wantErr  error
		wantCode model.ExitCode
	}{
		{name: "private project", content: `{"name": "foo", "private": true}`, want: "foo"},
		{name: "scoped placeholder", content: `{"name": "@acme/foo", "private": true}`, want: "@acme/foo"},
		{
			name:    "jsonc",
			content: "{\n  // draft\n  \"name\": \"foo\",\n  \"private\": true,\n}",
			want:    "foo",
		},
		{
			name:     "no private field",
			content:  `{"name": "foo", "version": "0.0.0"}`,
			wantErr:  model.ErrNotADevelopmentProject,
			wantCode: model.ExitNotADevelopmentProject,
		},
		{
			name:     "private false",
			content:  `{"name": "foo", "private": false}`,
			wantErr:  model.ErrNotADevelopmentProject,
			wantCode: model.ExitNotADevelopmentProject,
		},
		{
			name:     "private as string",
			content:  `{"name": "foo", "private": "true"}`,
			wantErr:  model.ErrNotADevelopmentProject,
			wantCode: model.ExitNotADevelopmentProject,
		},
		{
			name:     "empty name",
			content:  `{"name": "", "private": true}`,
			wantErr:  model.ErrNotADevelopmentProject,
			wantCode: model.ExitNotADevelopmentProject,
		},
		{
			name:     "missing name",
			content:  `{"private": true}`,
			wantErr:  model.ErrNotADevelopmentProject,
			wantCode: model.ExitNotADevelopmentProject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, PackageFile), []byte(tt.content), 0o644))

			got, err := DetectPlaceholder(root)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, tt.wantCode, cliErr.Code)
		})
	}
}

func TestDetectPlaceholder_MissingFile(t *testing.T) {
	_, err := DetectPlaceholder(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPackageMetadataNotFound)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitPackageMetadataNotFound, cliErr.Code)
}

func TestDetectPlaceholder_Malformed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, PackageFile), []byte(`{"name": `), 0o644))

	_, err := DetectPlaceholder(root)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotADevelopmentProject)
	assert.NotErrorIs(t, err, model.ErrPackageMetadataNotFound)
}
