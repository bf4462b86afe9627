package rewrite

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devcode/internal/templates"
)

// writeTestFile creates root/rel with content, making parent directories.
func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func templateData(placeholder, target string) templates.Data {
	return templates.Data{
		Name:              target,
		Description:       "A small package",
		Credential:        "ACCESS_TOKEN",
		AmbientCredential: "GITHUB_TOKEN",
		PublishCredential: "NPM_TOKEN",
		ActionVersions: map[string]string{
			"actions/checkout":     "v4",
			"actions/setup-node":   "v4",
			"actions/labeler":      "v5",
			"pnpm/action-setup":    "v4",
			"github/codeql-action": "v3",
		},
		PackageVersions: map[string]string{
			"typescript": "5.6.3",
			"vitest":     "2.1.4",
			"pnpm":       "9.12.3",
		},
		DevDependencies: []string{"typescript", "vitest"},
	}
}

func compactJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
