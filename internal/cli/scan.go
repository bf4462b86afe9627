package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/release"
	"github.com/shinji-kodama/devcode/internal/render"
	"github.com/shinji-kodama/devcode/internal/versions"
)

func newScanCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List references to the placeholder name outside managed files",
		Long: `Scan a draft project for references to its placeholder name that
"devcode release" would not rewrite. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd.Context(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Project directory")
	return cmd
}

func (a *app) runScan(ctx context.Context, dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve directory", err)
	}

	cfg, err := a.loadConfig(root)
	if err != nil {
		return err
	}

	placeholder, err := release.DetectPlaceholder(root)
	if err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(cfg, versions.DefaultActions)
	if err != nil {
		return err
	}
	scanner, err := newScanner(cfg)
	if err != nil {
		return err
	}

	occurrences, err := scanner.Scan(ctx, root, placeholder, orchestrator.ManagedPaths())
	if err != nil {
		return err
	}
	return a.renderer().Scan(render.ScanResult{PlaceholderName: placeholder, Occurrences: occurrences})
}
