package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/scaffold"
	"github.com/shinji-kodama/devcode/internal/versions"
)

type newFlags struct {
	name        string
	description string
	offline     bool
	git         bool
	branch      string
}

func newNewCommand(a *app) *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new <dir>",
		Short: "Scaffold a private TypeScript package",
		Long: `Create a new TypeScript package in <dir> under a placeholder name.

The package is marked "private": true and its CI uses the ambient
GITHUB_TOKEN until it is released with "devcode release".

Examples:
  devcode new my-devcode
  devcode new ./packages/tool --name tool-devcode --description "A tool"
  devcode new my-devcode --offline --git`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNew(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Placeholder package name (default: directory name)")
	cmd.Flags().StringVar(&flags.description, "description", "", "One-line package description")
	cmd.Flags().BoolVar(&flags.offline, "offline", false, "Use built-in versions instead of querying the registries")
	cmd.Flags().BoolVar(&flags.git, "git", false, "Initialize a git repository")
	cmd.Flags().StringVar(&flags.branch, "branch", "main", "Initial branch for --git")

	return cmd
}

func (a *app) runNew(ctx context.Context, dir string, flags *newFlags) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve directory", err)
	}

	cfg, err := a.loadConfig("")
	if err != nil {
		return err
	}

	name := flags.name
	if name == "" {
		name = filepath.Base(abs)
	}

	packages, actions := versions.DefaultPackages, versions.DefaultActions
	if !flags.offline {
		client := versions.NewClient(cfg.Registry)
		packages = client.LatestPackages(ctx, append([]string{"pnpm"}, versions.DevDependencies...), versions.DefaultPackages)
		actions = client.LatestActionTags(ctx, versions.Keys(versions.DefaultActions), versions.DefaultActions)
	}

	result, err := scaffold.New(abs, scaffold.Options{
		Name:            name,
		Description:     flags.description,
		Release:         cfg.Release,
		PackageVersions: packages,
		ActionVersions:  actions,
		DevDependencies: versions.DevDependencies,
		Git:             flags.git,
		Branch:          flags.branch,
	})
	if err != nil {
		return err
	}
	return a.renderer().Scaffold(result)
}
