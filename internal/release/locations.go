package release

import (
	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/rewrite"
	"github.com/shinji-kodama/devcode/internal/templates"
)

// DataFunc supplies template values for a placeholder/target pair.
type DataFunc func(placeholder, target string) templates.Data

// Artifact is a file that only exists in the released form of a project.
type Artifact struct {
	// Path is the slash-separated path relative to the project root.
	Path string

	// Description explains the artifact in the report.
	Description string

	// Template renders the file's content.
	Template templates.ID
}

// TemplateData returns the DataFunc used for release templates: the
// target becomes the package name and the credentials come from cfg.
func TemplateData(cfg config.ReleaseConfig, actions map[string]string) DataFunc {
	return func(_, target string) templates.Data {
		return templates.Data{
			Name:              target,
			Release:           true,
			Credential:        cfg.Credential,
			AmbientCredential: cfg.AmbientCredential,
			PublishCredential: cfg.PublishCredential,
			ActionVersions:    actions,
		}
	}
}

// DefaultLocations returns the files every scaffolded project contains
// that change on release, in the order they are rewritten.
func DefaultLocations(data DataFunc) (*rewrite.Registry, error) {
	return rewrite.NewRegistry(
		rewrite.ManagedLocation{
			Description: "package name and private flag",
			Strategy:    rewrite.FieldPatch{Path: templates.PackageJSON.Path()},
		},
		rewrite.ManagedLocation{
			Description: "CodeQL configuration name",
			Strategy: rewrite.LinePatch{
				Path:     templates.CodeQLConfig.Path(),
				Marker:   "name:",
				Validate: rewrite.ValidYAML,
			},
		},
		rewrite.ManagedLocation{
			Description: "CI workflow credentials",
			Strategy: rewrite.Regenerate{
				Path:     templates.CIWorkflow.Path(),
				Template: templates.CIWorkflow,
				Data:     data,
			},
		},
	)
}

// DefaultArtifacts returns the release-only files.
func DefaultArtifacts() []Artifact {
	return []Artifact{
		{
			Path:        templates.PublishFlow.Path(),
			Description: "publish workflow",
			Template:    templates.PublishFlow,
		},
	}
}
