package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
)

// Options controls which files are read and how matches are reported.
type Options struct {
	// ExcludeDirs are directory base names that are never descended into.
	ExcludeDirs []string

	// ExcludeFiles are filepath.Match patterns tested against file base names.
	ExcludeFiles []string

	// SnippetLength is the maximum number of runes kept per snippet.
	SnippetLength int

	// Concurrency bounds the number of files read at once.
	Concurrency int
}

// OptionsFromConfig converts the scan section of the configuration.
func OptionsFromConfig(cfg config.ScanConfig) Options {
	return Options{
		ExcludeDirs:   cfg.ExcludeDirs,
		ExcludeFiles:  cfg.ExcludeFiles,
		SnippetLength: cfg.SnippetLength,
		Concurrency:   cfg.Concurrency,
	}
}

// Scanner reports literal occurrences of a name across a project tree.
type Scanner struct {
	opts        Options
	excludeDirs map[string]bool
}

// New returns a Scanner. Zero SnippetLength and Concurrency values fall
// back to the configuration defaults.
func New(opts Options) (*Scanner, error) {
	defaults := config.Default().Scan
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = defaults.SnippetLength
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	for _, pattern := range opts.ExcludeFiles {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	dirs := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		dirs[d] = true
	}
	return &Scanner{opts: opts, excludeDirs: dirs}, nil
}

// Scan walks root and returns every line containing placeholder, in walk
// order. Paths in managed (slash-separated, relative to root) are never
// read. Binary and unreadable files are skipped without error.
func (s *Scanner) Scan(ctx context.Context, root, placeholder string, managed []string) ([]model.Occurrence, error) {
	logger := logging.GetLogger("scan")
	if placeholder == "" {
		return nil, errors.New("placeholder name must not be empty")
	}

	skip := make(map[string]bool, len(managed))
	for _, p := range managed {
		skip[path.Clean(filepath.ToSlash(p))] = true
	}

	files, err := s.collect(root, skip)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("files", len(files)).Str("root", root).Msg("collected files to scan")

	results := make([][]model.Occurrence, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.scanFile(root, rel, placeholder)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Occurrence
	for _, r := range results {
		out = append(out, r...)
	}
	logger.Debug().Int("occurrences", len(out)).Msg("scan complete")
	return out, nil
}

// collect lists the regular files under root in lexical walk order.
func (s *Scanner) collect(root string, managed map[string]bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			// Unreadable entries are treated as having nothing to report.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != root && s.excludeDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.excludedFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if managed[rel] {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

func (s *Scanner) excludedFile(name string) bool {
	for _, pattern := range s.opts.ExcludeFiles {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) scanFile(root, rel, placeholder string) []model.Occurrence {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil || IsBinary(data) {
		return nil
	}

	var out []model.Occurrence
	for i, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, placeholder) {
			continue
		}
		out = append(out, model.Occurrence{
			Path:    rel,
			Line:    i + 1,
			Snippet: Truncate(strings.TrimSpace(line), s.opts.SnippetLength),
		})
	}
	return out
}

// IsBinary reports whether data looks like a non-text file: it contains a
// NUL byte or is not valid UTF-8.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}

// Truncate shortens s to at most n runes, marking a cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
