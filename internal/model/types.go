package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Change describes what a rewrite strategy or artifact generator did to a
// single file.
type Change string

const (
	// ChangeUpdated indicates the file existed and its content was rewritten.
	ChangeUpdated Change = "updated"

	// ChangeUnchanged indicates the file existed but the rewrite produced
	// identical bytes (e.g., a second run, or no anchored line was found).
	ChangeUnchanged Change = "unchanged"

	// ChangeSkipped indicates the file does not exist in this project.
	// Managed locations are optional, so this is a success, not a failure.
	ChangeSkipped Change = "skipped"

	// ChangeCreated indicates a release-only file was written for the first time.
	ChangeCreated Change = "created"

	// ChangeFailed indicates the strategy returned an error. The error text
	// is carried in LocationResult.Warning.
	ChangeFailed Change = "failed"
)

// String returns the string representation of Change.
func (c Change) String() string {
	return string(c)
}

// IsValid checks whether the Change value is one of the predefined values.
func (c Change) IsValid() bool {
	switch c {
	case ChangeUpdated, ChangeUnchanged, ChangeSkipped, ChangeCreated, ChangeFailed:
		return true
	default:
		return false
	}
}

// ParseChange converts a string to a Change.
func ParseChange(s string) (Change, error) {
	c := Change(strings.ToLower(s))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid change: %q (valid: updated, unchanged, skipped, created, failed)", s)
	}
	return c, nil
}

// LocationResult is the outcome of applying one managed location's strategy
// (or generating one release-only artifact).
type LocationResult struct {
	// Path is the slash-separated path relative to the project root.
	Path string `json:"path"`

	// Description is the human-readable purpose of the location.
	Description string `json:"description"`

	// Change is what happened to the file.
	Change Change `json:"change"`

	// Warning holds the formatted error when Change is ChangeFailed.
	Warning string `json:"warning,omitempty"`
}

// Failed reports whether the location could not be rewritten.
func (r LocationResult) Failed() bool {
	return r.Change == ChangeFailed
}

// Occurrence is a leftover literal appearance of the placeholder name in a
// file no managed location covers.
type Occurrence struct {
	// Path is the slash-separated path relative to the project root.
	Path string `json:"path"`

	// Line is the 1-based line number.
	Line int `json:"line"`

	// Snippet is the trimmed line content, truncated to a bounded length.
	Snippet string `json:"snippet"`
}

// String returns "path:line: snippet".
func (o Occurrence) String() string {
	return fmt.Sprintf("%s:%d: %s", o.Path, o.Line, o.Snippet)
}

// Summary holds overall counts for a release run.
type Summary struct {
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Skipped     int `json:"skipped"`
	Created     int `json:"created"`
	Failed      int `json:"failed"`
	Occurrences int `json:"occurrences"`
}

// Report is the audit trail of one release-preparation run.
//
// It separates what was changed (Locations/Artifacts without a warning),
// what failed to change (entries with a warning), what was found but not
// touched (Occurrences), and the manual follow-up actions (FollowUps).
type Report struct {
	// PlaceholderName is the development code name that was replaced.
	PlaceholderName string `json:"placeholderName"`

	// TargetName is the public release name.
	TargetName string `json:"targetName"`

	// DryRun is true when no file was written.
	DryRun bool `json:"dryRun,omitempty"`

	Locations   []LocationResult `json:"locations"`
	Artifacts   []LocationResult `json:"artifacts"`
	Occurrences []Occurrence     `json:"occurrences"`
	FollowUps   []string         `json:"followUps"`
	Summary     Summary          `json:"summary"`
}

// Warnings returns every location and artifact result that failed, in
// report order.
func (r *Report) Warnings() []LocationResult {
	var out []LocationResult
	for _, res := range r.Locations {
		if res.Failed() {
			out = append(out, res)
		}
	}
	for _, res := range r.Artifacts {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Tally recomputes Summary from the current entries.
func (r *Report) Tally() {
	var s Summary
	count := func(results []LocationResult) {
		for _, res := range results {
			switch res.Change {
			case ChangeUpdated:
				s.Updated++
			case ChangeUnchanged:
				s.Unchanged++
			case ChangeSkipped:
				s.Skipped++
			case ChangeCreated:
				s.Created++
			case ChangeFailed:
				s.Failed++
			}
		}
	}
	count(r.Locations)
	count(r.Artifacts)
	s.Occurrences = len(r.Occurrences)
	r.Summary = s
}

// packageNameRegex follows the npm naming rules: lowercase, URL-safe
// characters, optionally scoped as @scope/name.
var packageNameRegex = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._~-]*/)?[a-z0-9][a-z0-9._~-]*$`)

// maxPackageNameLength is the npm registry limit.
const maxPackageNameLength = 214

// ValidatePackageName checks if the given name is acceptable as a target
// (publish) name on the npm registry.
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name must not be empty")
	}
	if len(name) > maxPackageNameLength {
		return fmt.Errorf("invalid package name %q: longer than %d characters", name, maxPackageNameLength)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must be lowercase URL-safe characters, optionally scoped as @scope/name", name)
	}
	return nil
}

// UnscopedName strips an "@scope/" prefix from an npm package name.
func UnscopedName(name string) string {
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i >= 0 {
			return name[i+1:]
		}
	}
	return name
}

// Fatal release preconditions. Both abort a run before any file is written
// and can be matched with errors.Is through a wrapping CLIError.
var (
	// ErrPackageMetadataNotFound indicates package.json is absent.
	ErrPackageMetadataNotFound = errors.New("package metadata not found")

	// ErrNotADevelopmentProject indicates package.json is not marked
	// "private": true, i.e. the project is not release-eligible.
	ErrNotADevelopmentProject = errors.New("not a release-eligible project")
)

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitPackageMetadataNotFound indicates package.json was not found
	// in the project directory.
	ExitPackageMetadataNotFound ExitCode = 2

	// ExitNotADevelopmentProject indicates package.json is not marked
	// private, so there is no placeholder name to release.
	ExitNotADevelopmentProject ExitCode = 3

	// ExitInvalidName indicates the requested package name is not a
	// valid npm package name.
	ExitInvalidName ExitCode = 4

	// ExitConfigError indicates the configuration could not be loaded.
	ExitConfigError ExitCode = 5

	// ExitTargetExists indicates the scaffold target directory is not empty.
	ExitTargetExists ExitCode = 6

	// ExitGitError indicates a git command failed.
	ExitGitError ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
