// Package cli implements the cobra-based CLI commands for devcode.
//
// Each subcommand (new, release, scan) is defined in its own file within
// this package. This file defines the root command, the global flags, and
// the translation of errors into exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/render"
)

// version, commit, and date are set at build time via ldflags.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// app holds the global flags and the output streams shared by every
// subcommand.
type app struct {
	jsonOutput bool
	verbose    int
	configFile string
	noColor    bool

	stdout io.Writer
	stderr io.Writer

	// userConfig overrides the XDG user config path. Tests point it at a
	// missing file.
	userConfig string
}

// NewRootCommand creates the root command writing to the process's
// standard streams.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{stdout: os.Stdout, stderr: os.Stderr})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devcode",
		Short: "Scaffold TypeScript packages under a code name and release them under their real one",
		Long: `devcode scaffolds private npm packages under a placeholder development
name, then rewrites them for public release: package.json is renamed and
made public, CI switches to a long-lived credential, a publish workflow is
added, and leftover references to the placeholder are reported.`,

		// Errors are printed by Run in text or JSON; cobra stays quiet.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(a.verbose, a.stderr, a.noColor || !isTerminal(a.stderr))
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: <dir>/"+config.ProjectFileName+")")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newNewCommand(a))
	rootCmd.AddCommand(newReleaseCommand(a))
	rootCmd.AddCommand(newScanCommand(a))

	return rootCmd
}

// Execute runs the root command and exits with the resulting code.
func Execute(rootCmd *cobra.Command) {
	os.Exit(int(Run(context.Background(), rootCmd, os.Stderr)))
}

// Run executes rootCmd and maps its error to an exit code. Errors are
// written to errOut as text, or as JSON when --json is set.
func Run(ctx context.Context, rootCmd *cobra.Command, errOut io.Writer) model.ExitCode {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return model.ExitSuccess
	}

	code := ExitCodeFor(err)
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json")
	_ = render.New(errOut, jsonOutput, true).Error(err, code)
	return code
}

// ExitCodeFor returns the exit code carried by err, or ExitGeneralError.
func ExitCodeFor(err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitGeneralError
}

// loadConfig loads the layered configuration for a project directory.
func (a *app) loadConfig(projectDir string) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir: projectDir,
		File:       a.configFile,
		UserFile:   a.userConfig,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to load configuration", err)
	}
	return cfg, nil
}

func (a *app) renderer() *render.Renderer {
	return render.New(a.stdout, a.jsonOutput, a.noColor)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && render.IsTerminal(f)
}
