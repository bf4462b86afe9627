// Package templates holds the embedded project templates and renders them.
//
// Templates use [[ ]] delimiters instead of {{ }} because GitHub Actions
// expressions (${{ secrets.X }}) appear verbatim in the workflow files.
// Each template is addressed by a stable ID and rendered against Data;
// the Release flag selects the draft or release variant.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"
)

//go:embed files
var files embed.FS

// ID identifies a template.
type ID string

const (
	PackageJSON  ID = "package.json"
	Readme       ID = "README.md"
	Gitignore    ID = ".gitignore"
	TSConfig     ID = "tsconfig.json"
	IndexTS      ID = "src/index.ts"
	CodeQLConfig ID = "codeql-config.yml"
	CIWorkflow   ID = "workflows/ci.yml"
	PublishFlow  ID = "workflows/publish.yml"
)

// ReleaseMarker prefixes every inline comment that tells the user to
// change something once the project is public. Release variants must not
// contain it.
const ReleaseMarker = "update after release"

// sources maps IDs to their embedded file names.
var sources = map[ID]string{
	PackageJSON:  "files/package.json.tmpl",
	Readme:       "files/README.md.tmpl",
	Gitignore:    "files/gitignore.tmpl",
	TSConfig:     "files/tsconfig.json.tmpl",
	IndexTS:      "files/src/index.ts.tmpl",
	CodeQLConfig: "files/codeql-config.yml.tmpl",
	CIWorkflow:   "files/workflows/ci.yml.tmpl",
	PublishFlow:  "files/workflows/publish.yml.tmpl",
}

// outputs maps IDs to the path, relative to the project root, that the
// rendered file is written to.
var outputs = map[ID]string{
	PackageJSON:  "package.json",
	Readme:       "README.md",
	Gitignore:    ".gitignore",
	TSConfig:     "tsconfig.json",
	IndexTS:      "src/index.ts",
	CodeQLConfig: ".github/codeql/codeql-config.yml",
	CIWorkflow:   ".github/workflows/ci.yml",
	PublishFlow:  ".github/workflows/publish.yml",
}

// Path returns the slash-separated path the template renders to inside a
// project, or "" for an unknown ID.
func (id ID) Path() string {
	return outputs[id]
}

// IDs returns every known template ID, sorted.
func IDs() []ID {
	ids := make([]ID, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Data is the fixed set of named values every template may reference.
type Data struct {
	// Name is the npm package name (placeholder in drafts, target in releases).
	Name string

	// Description is the one-line package description.
	Description string

	// Release selects the release variant of templates that differ.
	Release bool

	// Credential is the long-lived secret used by release CI.
	Credential string

	// AmbientCredential is the short-lived secret used by draft CI.
	AmbientCredential string

	// PublishCredential is the registry secret used by the publish workflow.
	PublishCredential string

	// ActionVersions maps an action (e.g. "actions/checkout") to its tag.
	ActionVersions map[string]string

	// PackageVersions maps an npm package to its exact version.
	PackageVersions map[string]string

	// DevDependencies lists the packages written to devDependencies.
	DevDependencies []string
}

// CredentialRef formats a GitHub Actions secret reference.
func CredentialRef(secret string) string {
	return "${{ secrets." + secret + " }}"
}

// Token is the credential reference for every token site in a workflow:
// the ambient credential in drafts and the long-lived one in releases.
func (d Data) Token() string {
	if d.Release {
		return CredentialRef(d.Credential)
	}
	return CredentialRef(d.AmbientCredential)
}

// PublishToken is the registry credential reference.
func (d Data) PublishToken() string {
	return CredentialRef(d.PublishCredential)
}

// Action returns "owner/repo@tag". A missing version is a render error so
// a file with an unpinned action is never written.
func (d Data) Action(name string) (string, error) {
	v, ok := d.ActionVersions[lookupAction(name)]
	if !ok || v == "" {
		return "", fmt.Errorf("no version for action %q", name)
	}
	return name + "@" + v, nil
}

// lookupAction maps sub-actions such as github/codeql-action/init to the
// repository that carries the tags.
func lookupAction(name string) string {
	slashes := 0
	for i, r := range name {
		if r == '/' {
			slashes++
			if slashes == 2 {
				return name[:i]
			}
		}
	}
	return name
}

// Dependency returns the exact version of an npm package.
func (d Data) Dependency(name string) (string, error) {
	v, ok := d.PackageVersions[name]
	if !ok || v == "" {
		return "", fmt.Errorf("no version for package %q", name)
	}
	return v, nil
}

// DevDependenciesJSON renders the devDependencies object with caret ranges,
// indented to sit one level deep in package.json.
func (d Data) DevDependenciesJSON() (string, error) {
	deps := make(map[string]string, len(d.DevDependencies))
	for _, name := range d.DevDependencies {
		v, err := d.Dependency(name)
		if err != nil {
			return "", err
		}
		deps[name] = "^" + v
	}
	out, err := json.MarshalIndent(deps, "  ", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var funcs = template.FuncMap{
	"marker": func() string { return ReleaseMarker },
	"json": func(v interface{}) (string, error) {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
	},
}

// Render executes the template identified by id against data.
func Render(id ID, data Data) ([]byte, error) {
	src, ok := sources[id]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", id)
	}
	raw, err := files.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %q: %w", id, err)
	}
	tmpl, err := template.New(string(id)).
		Delims("[[", "]]").
		Option("missingkey=error").
		Funcs(funcs).
		Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", id, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %q: %w", id, err)
	}
	return buf.Bytes(), nil
}
