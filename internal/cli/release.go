package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/gitrepo"
	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/release"
	"github.com/shinji-kodama/devcode/internal/scan"
	"github.com/shinji-kodama/devcode/internal/versions"
)

type releaseFlags struct {
	name    string
	dir     string
	dryRun  bool
	offline bool
}

func newReleaseCommand(a *app) *cobra.Command {
	flags := &releaseFlags{}

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Rename a draft package to its public name",
		Long: `Rewrite a draft project for public release.

package.json gets the new name and loses "private", the CodeQL config is
renamed, and CI is regenerated to use the long-lived credential. A
publish workflow is added. Any other reference to the placeholder name is
listed for manual review.

Examples:
  devcode release --name @scope/my-package
  devcode release --name my-package --dir ./packages/tool --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRelease(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Public package name (required)")
	cmd.Flags().StringVar(&flags.dir, "dir", ".", "Project directory")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&flags.offline, "offline", false, "Use built-in action versions instead of querying GitHub")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func (a *app) runRelease(ctx context.Context, flags *releaseFlags) error {
	root, err := filepath.Abs(flags.dir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve directory", err)
	}

	cfg, err := a.loadConfig(root)
	if err != nil {
		return err
	}

	// Fail on an ineligible project before any network lookup.
	if _, err := release.DetectPlaceholder(root); err != nil {
		return err
	}

	actions := versions.DefaultActions
	if !flags.offline {
		actions = versions.NewClient(cfg.Registry).
			LatestActionTags(ctx, versions.Keys(versions.DefaultActions), versions.DefaultActions)
	}

	orchestrator, err := newOrchestrator(cfg, actions)
	if err != nil {
		return err
	}

	report, err := orchestrator.Run(ctx, release.Options{
		Root:      root,
		Target:    flags.name,
		DryRun:    flags.dryRun,
		FollowUps: gitAdvisory(root),
	})
	if err != nil {
		return err
	}
	return a.renderer().Report(report)
}

func newOrchestrator(cfg *config.Config, actions map[string]string) (*release.Orchestrator, error) {
	data := release.TemplateData(cfg.Release, actions)
	registry, err := release.DefaultLocations(data)
	if err != nil {
		return nil, err
	}
	scanner, err := newScanner(cfg)
	if err != nil {
		return nil, err
	}
	return release.New(registry, release.DefaultArtifacts(), scanner, data, cfg.Release)
}

func newScanner(cfg *config.Config) (*scan.Scanner, error) {
	scanner, err := scan.New(scan.OptionsFromConfig(cfg.Scan))
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid scan configuration", err)
	}
	return scanner, nil
}

// gitAdvisory returns a follow-up note when root is a git work tree with
// uncommitted changes. Anything else, including git being unavailable,
// yields no note.
func gitAdvisory(root string) []string {
	gm := gitrepo.NewManager()
	if !gm.IsRepo(root) {
		return nil
	}
	entries, err := gm.Status(root)
	if err != nil {
		log.Debug().Err(err).Msg("git status failed")
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	return []string{fmt.Sprintf(
		"The working tree had %d uncommitted change(s) before the rewrite; review the diff carefully before committing.",
		len(entries))}
}
