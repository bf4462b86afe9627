package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName is used for the XDG config directory.
	AppName = "devcode"

	// ProjectFileName is the per-project config file looked up in the
	// project root.
	ProjectFileName = ".devcode.toml"

	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "DEVCODE_"
)

// Config is the fully merged configuration.
type Config struct {
	Release  ReleaseConfig  `koanf:"release"`
	Scan     ScanConfig     `koanf:"scan"`
	Registry RegistryConfig `koanf:"registry"`
}

// ReleaseConfig controls the credential rewrite performed when a project
// is released.
type ReleaseConfig struct {
	// Credential is the repository secret holding the long-lived token used
	// by post-release automation. It replaces AmbientCredential in CI.
	Credential string `koanf:"credential"`

	// AmbientCredential is the short-lived token GitHub Actions injects into
	// every workflow run. Pre-release CI uses it.
	AmbientCredential string `koanf:"ambient_credential"`

	// PublishCredential is the registry token the publish workflow uses.
	PublishCredential string `koanf:"publish_credential"`
}

// ScanConfig controls the unmanaged-occurrence scanner.
type ScanConfig struct {
	// ExcludeDirs are directory base names that are never descended into.
	ExcludeDirs []string `koanf:"exclude_dirs"`

	// ExcludeFiles are glob patterns matched against file base names.
	ExcludeFiles []string `koanf:"exclude_files"`

	// SnippetLength is the maximum number of runes kept per reported line.
	SnippetLength int `koanf:"snippet_length"`

	// Concurrency bounds parallel file reads.
	Concurrency int `koanf:"concurrency"`
}

// RegistryConfig controls the version lookups used when rendering templates.
type RegistryConfig struct {
	NPMURL       string        `koanf:"npm_url"`
	GitHubAPIURL string        `koanf:"github_api_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

// Defaults returns the built-in configuration layer as a flat koanf map.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"release.credential":         "ACCESS_TOKEN",
		"release.ambient_credential": "GITHUB_TOKEN",
		"release.publish_credential": "NPM_TOKEN",
		"scan.exclude_dirs":          []string{".git", "node_modules", "dist", "coverage", "lib"},
		"scan.exclude_files":         []string{"pnpm-lock.yaml", "package-lock.json", "yarn.lock"},
		"scan.snippet_length":        100,
		"scan.concurrency":           8,
		"registry.npm_url":           "https://registry.npmjs.org",
		"registry.github_api_url":    "https://api.github.com",
		"registry.timeout":           "5s",
	}
}

// LoadOptions selects which files participate in Load.
type LoadOptions struct {
	// ProjectDir is searched for ProjectFileName. Empty skips the project layer.
	ProjectDir string

	// File is an explicit config file (from --config). When set it replaces
	// the project layer and must exist.
	File string

	// UserFile overrides the XDG user config path. Empty uses UserConfigPath().
	UserFile string
}

// UserConfigPath returns $XDG_CONFIG_HOME/devcode/config.toml.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// Load merges all configuration layers and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. User config if it exists
	userFile := opts.UserFile
	if userFile == "" {
		userFile = UserConfigPath()
	}
	if err := loadOptionalFile(k, userFile); err != nil {
		return nil, err
	}

	// 3. Explicit file, or project config if it exists
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, fmt.Errorf("config file %s: %w", opts.File, err)
		}
		if err := k.Load(file.Provider(opts.File), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", opts.File, err)
		}
	} else if opts.ProjectDir != "" {
		if err := loadOptionalFile(k, filepath.Join(opts.ProjectDir, ProjectFileName)); err != nil {
			return nil, err
		}
	}

	// 4. Env vars: DEVCODE_SCAN_SNIPPET_LENGTH -> scan.snippet_length
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	cfg, err := unmarshal(k)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	return cfg
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the release pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Release.Credential) == "" {
		return fmt.Errorf("invalid config: release.credential must not be empty")
	}
	if strings.TrimSpace(c.Release.AmbientCredential) == "" {
		return fmt.Errorf("invalid config: release.ambient_credential must not be empty")
	}
	if c.Release.Credential == c.Release.AmbientCredential {
		return fmt.Errorf("invalid config: release.credential must differ from release.ambient_credential (%s)", c.Release.AmbientCredential)
	}
	if c.Scan.SnippetLength <= 0 {
		return fmt.Errorf("invalid config: scan.snippet_length must be positive, got %d", c.Scan.SnippetLength)
	}
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("invalid config: scan.concurrency must be positive, got %d", c.Scan.Concurrency)
	}
	if c.Registry.Timeout <= 0 {
		return fmt.Errorf("invalid config: registry.timeout must be positive, got %s", c.Registry.Timeout)
	}
	return nil
}
