package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noUserFile points the user layer at a path that never exists, so tests
// are not affected by the developer's own ~/.config/devcode/config.toml.
func noUserFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.toml")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{UserFile: noUserFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "ACCESS_TOKEN", cfg.Release.Credential)
	assert.Equal(t, "GITHUB_TOKEN", cfg.Release.AmbientCredential)
	assert.Equal(t, "NPM_TOKEN", cfg.Release.PublishCredential)
	assert.Equal(t, []string{".git", "node_modules", "dist", "coverage", "lib"}, cfg.Scan.ExcludeDirs)
	assert.Contains(t, cfg.Scan.ExcludeFiles, "pnpm-lock.yaml")
	assert.Equal(t, 100, cfg.Scan.SnippetLength)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, "https://registry.npmjs.org", cfg.Registry.NPMURL)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
}

func TestLoad_ProjectFileOverridesUserFile(t *testing.T) {
	userFile := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, userFile, `
[release]
credential = "USER_TOKEN"

[scan]
snippet_length = 40
`)

	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, ProjectFileName), `
[scan]
snippet_length = 60
exclude_dirs = ["vendor"]

[registry]
timeout = "250ms"
`)

	cfg, err := Load(LoadOptions{ProjectDir: projectDir, UserFile: userFile})
	require.NoError(t, err)

	assert.Equal(t, "USER_TOKEN", cfg.Release.Credential, "user layer applies when project does not override")
	assert.Equal(t, 60, cfg.Scan.SnippetLength, "project layer wins over user layer")
	assert.Equal(t, []string{"vendor"}, cfg.Scan.ExcludeDirs)
	assert.Equal(t, 250*time.Millisecond, cfg.Registry.Timeout)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, ProjectFileName), "[scan]\nsnippet_length = 60\n")

	t.Setenv("DEVCODE_SCAN_SNIPPET_LENGTH", "20")
	t.Setenv("DEVCODE_SCAN_EXCLUDE_FILES", "*.lock,*.png")
	t.Setenv("DEVCODE_RELEASE_CREDENTIAL", "BOT_TOKEN")

	cfg, err := Load(LoadOptions{ProjectDir: projectDir, UserFile: noUserFile(t)})
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Scan.SnippetLength)
	assert.Equal(t, []string{"*.lock", "*.png"}, cfg.Scan.ExcludeFiles)
	assert.Equal(t, "BOT_TOKEN", cfg.Release.Credential)
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Run("replaces project layer", func(t *testing.T) {
		projectDir := t.TempDir()
		writeFile(t, filepath.Join(projectDir, ProjectFileName), "[scan]\nsnippet_length = 60\n")
		explicit := filepath.Join(t.TempDir(), "custom.toml")
		writeFile(t, explicit, "[scan]\nsnippet_length = 30\n")

		cfg, err := Load(LoadOptions{ProjectDir: projectDir, File: explicit, UserFile: noUserFile(t)})
		require.NoError(t, err)
		assert.Equal(t, 30, cfg.Scan.SnippetLength)
	})

	t.Run("must exist", func(t *testing.T) {
		_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "missing.toml"), UserFile: noUserFile(t)})
		assert.Error(t, err)
	})

	t.Run("malformed toml", func(t *testing.T) {
		explicit := filepath.Join(t.TempDir(), "bad.toml")
		writeFile(t, explicit, "[scan\nsnippet_length = ")
		_, err := Load(LoadOptions{File: explicit, UserFile: noUserFile(t)})
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Release:  ReleaseConfig{Credential: "ACCESS_TOKEN", AmbientCredential: "GITHUB_TOKEN"},
			Scan:     ScanConfig{SnippetLength: 100, Concurrency: 4},
			Registry: RegistryConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty credential", func(c *Config) { c.Release.Credential = " " }, "release.credential"},
		{"empty ambient", func(c *Config) { c.Release.AmbientCredential = "" }, "release.ambient_credential"},
		{"same credentials", func(c *Config) { c.Release.Credential = "GITHUB_TOKEN" }, "must differ"},
		{"zero snippet", func(c *Config) { c.Scan.SnippetLength = 0 }, "snippet_length"},
		{"zero concurrency", func(c *Config) { c.Scan.Concurrency = 0 }, "concurrency"},
		{"zero timeout", func(c *Config) { c.Registry.Timeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUserConfigPath(t *testing.T) {
	p := UserConfigPath()
	assert.Equal(t, "config.toml", filepath.Base(p))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(p)))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ACCESS_TOKEN", cfg.Release.Credential)
	assert.Equal(t, 100, cfg.Scan.SnippetLength)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
}
