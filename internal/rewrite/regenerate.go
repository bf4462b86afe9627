package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/templates"
)

// Regenerate re-renders a file from its template with the release flag
// set, overwriting the file. Any manual edits to the generated file are
// lost; this is accepted for files whose draft and release variants differ
// in several non-adjacent places.
type Regenerate struct {
	// Path is the slash-separated file path relative to the project root.
	Path string

	// Template is the template the file was generated from.
	Template templates.ID

	// Data supplies template values for a given placeholder/target pair.
	Data func(placeholder, target string) templates.Data
}

// Kind implements Strategy.
func (r Regenerate) Kind() string { return "regenerate" }

// Target implements Strategy.
func (r Regenerate) Target() string { return r.Path }

// Apply implements Strategy.
func (r Regenerate) Apply(root, placeholder, target string) (model.Change, error) {
	logger := logging.GetLogger("rewrite")
	if r.Data == nil {
		return "", fmt.Errorf("regenerate for %s has no template data", r.Path)
	}

	full := resolve(root, r.Path)
	prev, err := readOptional(full)
	if err != nil {
		return "", err
	}
	if prev == nil {
		logger.Debug().Str("path", r.Path).Msg("file absent, skipping regeneration")
		return model.ChangeSkipped, nil
	}

	data := r.Data(placeholder, target)
	data.Release = true
	out, err := RenderRelease(r.Template, data)
	if err != nil {
		return "", err
	}

	logger.Debug().Str("path", r.Path).Str("template", string(r.Template)).Msg("regenerated from template")
	return writeIfChanged(full, prev, out)
}

// RenderRelease renders the release variant of a workflow template and
// verifies the credential rewrite held: the ambient credential is gone,
// the named credential appears at every site the draft used the ambient
// one, no release marker comment remains, and the output is valid YAML.
func RenderRelease(id templates.ID, data templates.Data) ([]byte, error) {
	data.Release = true
	out, err := templates.Render(id, data)
	if err != nil {
		return nil, err
	}

	draftData := data
	draftData.Release = false
	draft, err := templates.Render(id, draftData)
	if err != nil {
		return nil, err
	}

	if err := verifyCredentialRewrite(string(draft), string(out), data); err != nil {
		return nil, fmt.Errorf("template %s: %w", id, err)
	}
	if err := ValidYAML(out); err != nil {
		return nil, fmt.Errorf("template %s: %w", id, err)
	}
	return out, nil
}

func verifyCredentialRewrite(draft, release string, data templates.Data) error {
	if data.Credential == "" {
		return errors.New("no long-lived credential configured")
	}
	ambient := templates.CredentialRef(data.AmbientCredential)
	named := templates.CredentialRef(data.Credential)

	if n := strings.Count(release, ambient); n > 0 {
		return fmt.Errorf("release variant still references %s %d time(s)", ambient, n)
	}
	if sites, got := strings.Count(draft, ambient), strings.Count(release, named); got < sites {
		return fmt.Errorf("release variant references %s %d time(s), expected at least %d", named, got, sites)
	}
	if strings.Contains(release, templates.ReleaseMarker) {
		return fmt.Errorf("release variant still contains %q comments", templates.ReleaseMarker)
	}
	return nil
}
