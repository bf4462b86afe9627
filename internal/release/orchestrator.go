package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/rewrite"
	"github.com/shinji-kodama/devcode/internal/scan"
)

// State is a step of a release run.
type State string

const (
	StateStart     State = "start"
	StateDetect    State = "detect"
	StateRewrite   State = "rewrite"
	StateArtifacts State = "artifacts"
	StateScan      State = "scan"
	StateDone      State = "done"
)

// Options describes one run.
type Options struct {
	// Root is the project directory.
	Root string

	// Target is the public package name.
	Target string

	// DryRun computes the report without writing any file.
	DryRun bool

	// FollowUps are extra notes appended to the report, e.g. a warning
	// that the working tree had uncommitted changes.
	FollowUps []string
}

// Orchestrator runs release preparation against a fixed set of managed
// locations and artifacts.
type Orchestrator struct {
	registry    *rewrite.Registry
	artifacts   []Artifact
	scanner     *scan.Scanner
	data        DataFunc
	credentials config.ReleaseConfig
	logger      zerolog.Logger
}

// New creates an Orchestrator. The registry, artifacts and template data
// are injected so tests can substitute their own tables.
func New(registry *rewrite.Registry, artifacts []Artifact, scanner *scan.Scanner, data DataFunc, credentials config.ReleaseConfig) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("release: registry is required")
	}
	if scanner == nil {
		return nil, errors.New("release: scanner is required")
	}
	if data == nil && len(artifacts) > 0 {
		return nil, errors.New("release: template data is required to render artifacts")
	}
	return &Orchestrator{
		registry:    registry,
		artifacts:   artifacts,
		scanner:     scanner,
		data:        data,
		credentials: credentials,
		logger:      logging.GetLogger("release"),
	}, nil
}

// ManagedPaths returns every path the run writes, which the scanner skips.
func (o *Orchestrator) ManagedPaths() []string {
	paths := o.registry.Paths()
	for _, a := range o.artifacts {
		paths = append(paths, a.Path)
	}
	return paths
}

// Run performs release preparation. It returns an error only when the
// project fails detection, the target name is invalid, or ctx is done;
// every other failure is recorded in the report.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*model.Report, error) {
	done := logging.LogOperationStart(o.logger, "release")
	defer done()
	o.transition(StateStart)

	if err := model.ValidatePackageName(opts.Target); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidName, "invalid target name", err)
	}

	o.transition(StateDetect)
	placeholder, err := DetectPlaceholder(opts.Root)
	if err != nil {
		return nil, err
	}
	o.logger.Info().Str("placeholder", placeholder).Str("target", opts.Target).Bool("dry_run", opts.DryRun).
		Msg("preparing release")

	report := &model.Report{
		PlaceholderName: placeholder,
		TargetName:      opts.Target,
		DryRun:          opts.DryRun,
	}

	o.transition(StateRewrite)
	if err := o.rewrite(ctx, opts, placeholder, report); err != nil {
		return nil, err
	}

	o.transition(StateArtifacts)
	if err := o.generateArtifacts(ctx, opts, placeholder, report); err != nil {
		return nil, err
	}

	o.transition(StateScan)
	occurrences, err := o.scanner.Scan(ctx, opts.Root, placeholder, o.ManagedPaths())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.logger.Warn().Err(err).Msg("scan for leftover references failed")
		report.FollowUps = append(report.FollowUps,
			fmt.Sprintf("Search the project for %q by hand: the scan failed (%v).", placeholder, err))
	}
	report.Occurrences = occurrences

	o.transition(StateDone)
	report.FollowUps = append(report.FollowUps, o.followUps(report)...)
	report.FollowUps = append(report.FollowUps, opts.FollowUps...)
	report.Tally()
	return report, nil
}

func (o *Orchestrator) transition(s State) {
	o.logger.Debug().Str("state", string(s)).Msg("release state")
}

func (o *Orchestrator) rewrite(ctx context.Context, opts Options, placeholder string, report *model.Report) error {
	for _, loc := range o.registry.Locations() {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := model.LocationResult{Path: loc.Path(), Description: loc.Description}
		change, err := o.apply(loc, opts, placeholder)
		if err != nil {
			result.Change = model.ChangeFailed
			result.Warning = err.Error()
			o.logger.Warn().Err(err).Str("path", result.Path).Str("strategy", loc.Strategy.Kind()).
				Msg("managed location not rewritten")
		} else {
			result.Change = change
			o.logger.Info().Str("path", result.Path).Str("strategy", loc.Strategy.Kind()).
				Str("change", change.String()).Msg("managed location processed")
		}
		report.Locations = append(report.Locations, result)
	}
	return nil
}

// apply runs one strategy. A dry run applies it to a scratch copy of the
// file so the reported change is exact while the project stays untouched.
func (o *Orchestrator) apply(loc rewrite.ManagedLocation, opts Options, placeholder string) (model.Change, error) {
	if !opts.DryRun {
		return loc.Strategy.Apply(opts.Root, placeholder, opts.Target)
	}

	scratch, err := os.MkdirTemp("", "devcode-dry-run-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	rel := filepath.FromSlash(loc.Path())
	data, err := os.ReadFile(filepath.Join(opts.Root, rel))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return model.ChangeSkipped, nil
	case err != nil:
		return "", fmt.Errorf("failed to read %s: %w", loc.Path(), err)
	}
	if err := rewrite.WriteFile(filepath.Join(scratch, rel), data); err != nil {
		return "", err
	}
	return loc.Strategy.Apply(scratch, placeholder, opts.Target)
}

func (o *Orchestrator) generateArtifacts(ctx context.Context, opts Options, placeholder string, report *model.Report) error {
	for _, a := range o.artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := model.LocationResult{Path: a.Path, Description: a.Description}
		change, err := o.generate(a, opts, placeholder)
		if err != nil {
			result.Change = model.ChangeFailed
			result.Warning = err.Error()
			o.logger.Warn().Err(err).Str("path", a.Path).Msg("release artifact not generated")
		} else {
			result.Change = change
			o.logger.Info().Str("path", a.Path).Str("change", change.String()).Msg("release artifact processed")
		}
		report.Artifacts = append(report.Artifacts, result)
	}
	return nil
}

func (o *Orchestrator) generate(a Artifact, opts Options, placeholder string) (model.Change, error) {
	out, err := rewrite.RenderRelease(a.Template, o.data(placeholder, opts.Target))
	if err != nil {
		return "", err
	}

	full := filepath.Join(opts.Root, filepath.FromSlash(a.Path))
	prev, err := os.ReadFile(full)
	change := model.ChangeUpdated
	switch {
	case errors.Is(err, fs.ErrNotExist):
		change = model.ChangeCreated
	case err != nil:
		return "", fmt.Errorf("failed to read %s: %w", a.Path, err)
	case bytes.Equal(prev, out):
		return model.ChangeUnchanged, nil
	}

	if opts.DryRun {
		return change, nil
	}
	if err := rewrite.WriteFile(full, out); err != nil {
		return "", err
	}
	return change, nil
}

// followUps lists the manual steps the rewrite depends on. The credential
// reminder is always present.
func (o *Orchestrator) followUps(report *model.Report) []string {
	notes := []string{
		fmt.Sprintf("Add a repository secret named %s holding a long-lived token; CI now uses it instead of %s.",
			o.credentials.Credential, o.credentials.AmbientCredential),
	}
	if len(report.Artifacts) > 0 && o.credentials.PublishCredential != "" {
		notes = append(notes, fmt.Sprintf("Add a repository secret named %s so the publish workflow can push to the registry.",
			o.credentials.PublishCredential))
	}
	if n := len(report.Occurrences); n > 0 {
		notes = append(notes, fmt.Sprintf("Review %d leftover reference(s) to %q listed above.", n, report.PlaceholderName))
	}
	if warnings := report.Warnings(); len(warnings) > 0 {
		notes = append(notes, fmt.Sprintf("Fix %d file(s) that could not be rewritten, then update them by hand.", len(warnings)))
	}
	if report.DryRun {
		notes = append(notes, "This was a dry run; nothing was written.")
	}
	return notes
}
