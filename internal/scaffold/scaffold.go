// Package scaffold generates a new draft project from the embedded
// templates. Drafts are private npm packages whose CI uses the ambient
// credential; release.Orchestrator later turns them into public ones.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/gitrepo"
	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/rewrite"
	"github.com/shinji-kodama/devcode/internal/templates"
)

// DraftTemplates are the files written into every new project. The
// publish workflow is missing on purpose: it only exists after release.
var DraftTemplates = []templates.ID{
	templates.PackageJSON,
	templates.Readme,
	templates.Gitignore,
	templates.TSConfig,
	templates.IndexTS,
	templates.CodeQLConfig,
	templates.CIWorkflow,
}

// Options describes the project to generate.
type Options struct {
	// Name is the placeholder package name.
	Name string

	// Description is the one-line package description.
	Description string

	// Release holds the credential names written into CI.
	Release config.ReleaseConfig

	// PackageVersions maps npm packages (including "pnpm") to versions.
	PackageVersions map[string]string

	// ActionVersions maps owner/repo actions to tags.
	ActionVersions map[string]string

	// DevDependencies lists the packages written to devDependencies.
	DevDependencies []string

	// Git initializes a repository in the new directory.
	Git bool

	// Branch is the initial branch when Git is set. Empty defers to git.
	Branch string
}

// Result lists what New wrote.
type Result struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
	Git   bool     `json:"git"`
}

// New renders the draft project into dir, which must be absent or empty.
// Every template is rendered before anything is written, so a render
// error leaves dir untouched.
func New(dir string, opts Options) (*Result, error) {
	logger := logging.GetLogger("scaffold")

	if err := model.ValidatePackageName(opts.Name); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidName, "invalid package name", err)
	}
	if err := ensureEmpty(dir); err != nil {
		return nil, err
	}

	data := templates.Data{
		Name:              opts.Name,
		Description:       opts.Description,
		Release:           false,
		Credential:        opts.Release.Credential,
		AmbientCredential: opts.Release.AmbientCredential,
		PublishCredential: opts.Release.PublishCredential,
		ActionVersions:    opts.ActionVersions,
		PackageVersions:   opts.PackageVersions,
		DevDependencies:   opts.DevDependencies,
	}

	rendered := make(map[templates.ID][]byte, len(DraftTemplates))
	for _, id := range DraftTemplates {
		out, err := templates.Render(id, data)
		if err != nil {
			return nil, err
		}
		rendered[id] = out
	}

	result := &Result{Dir: dir}
	for _, id := range DraftTemplates {
		rel := id.Path()
		if err := rewrite.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), rendered[id]); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", rel).Msg("wrote file")
		result.Files = append(result.Files, rel)
	}

	if opts.Git {
		if err := gitrepo.NewManager().Init(dir, opts.Branch); err != nil {
			return nil, err
		}
		result.Git = true
	}

	logger.Info().Str("dir", dir).Int("files", len(result.Files)).Msg("project scaffolded")
	return result, nil
}

// ensureEmpty accepts a missing directory or an empty one.
func ensureEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", dir, err)
	case len(entries) > 0:
		return model.NewCLIError(model.ExitTargetExists, fmt.Sprintf("%s already exists and is not empty", dir))
	}
	return nil
}
