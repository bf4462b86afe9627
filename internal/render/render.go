package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shinji-kodama/devcode/internal/model"
	"github.com/shinji-kodama/devcode/internal/scaffold"
)

// Renderer writes results in one output format.
type Renderer struct {
	w      io.Writer
	json   bool
	styles styles
}

// New returns a Renderer writing to w. jsonOut selects JSON; noColor
// disables ANSI styling in text mode.
func New(w io.Writer, jsonOut, noColor bool) *Renderer {
	return &Renderer{w: w, json: jsonOut, styles: newStyles(w, noColor)}
}

// JSON reports whether the renderer emits JSON.
func (r *Renderer) JSON() bool {
	return r.json
}

// Report writes a release report.
func (r *Renderer) Report(report *model.Report) error {
	if r.json {
		out := *report
		for _, list := range []*[]model.LocationResult{&out.Locations, &out.Artifacts} {
			if *list == nil {
				*list = []model.LocationResult{}
			}
		}
		if out.Occurrences == nil {
			out.Occurrences = []model.Occurrence{}
		}
		if out.FollowUps == nil {
			out.FollowUps = []string{}
		}
		return r.encode(out)
	}

	var b strings.Builder
	title := fmt.Sprintf("Release %s -> %s", report.PlaceholderName, report.TargetName)
	if report.DryRun {
		title += " (dry run)"
	}
	b.WriteString(r.styles.title.Render(title) + "\n")

	var changed []model.LocationResult
	for _, res := range append(append([]model.LocationResult{}, report.Locations...), report.Artifacts...) {
		if !res.Failed() {
			changed = append(changed, res)
		}
	}
	if len(changed) > 0 {
		r.section(&b, "Changed")
		for _, res := range changed {
			fmt.Fprintf(&b, "  %s %s  %s\n", r.changeMark(res.Change), r.styles.path.Render(res.Path),
				r.styles.muted.Render(res.Change.String()+": "+res.Description))
		}
	}

	if warnings := report.Warnings(); len(warnings) > 0 {
		r.section(&b, "Warnings")
		for _, res := range warnings {
			fmt.Fprintf(&b, "  %s %s: %s\n", r.styles.failure.Render("!"), r.styles.path.Render(res.Path), res.Warning)
		}
	}

	if len(report.Occurrences) > 0 {
		r.section(&b, "Unmanaged occurrences")
		r.occurrences(&b, report.Occurrences)
	}

	if len(report.FollowUps) > 0 {
		r.section(&b, "Follow-ups")
		for _, note := range report.FollowUps {
			fmt.Fprintf(&b, "  %s %s\n", r.styles.warning.Render("*"), note)
		}
	}

	s := report.Summary
	fmt.Fprintf(&b, "\n%s %d updated, %d unchanged, %d skipped, %d created, %d failed, %d occurrence(s)\n",
		r.styles.title.Render("Summary:"), s.Updated, s.Unchanged, s.Skipped, s.Created, s.Failed, s.Occurrences)

	_, err := io.WriteString(r.w, b.String())
	return err
}

// ScanResult is the output of `devcode scan`.
type ScanResult struct {
	PlaceholderName string             `json:"placeholderName"`
	Occurrences     []model.Occurrence `json:"occurrences"`
}

// Scan writes the leftover references found by a read-only scan.
func (r *Renderer) Scan(result ScanResult) error {
	if result.Occurrences == nil {
		result.Occurrences = []model.Occurrence{}
	}
	if r.json {
		return r.encode(result)
	}

	var b strings.Builder
	if len(result.Occurrences) == 0 {
		fmt.Fprintf(&b, "%s no references to %q outside managed files\n",
			r.styles.success.Render("ok"), result.PlaceholderName)
	} else {
		b.WriteString(r.styles.title.Render(fmt.Sprintf("%d reference(s) to %q outside managed files",
			len(result.Occurrences), result.PlaceholderName)) + "\n")
		r.occurrences(&b, result.Occurrences)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Scaffold writes the list of files a new project was created with.
func (r *Renderer) Scaffold(result *scaffold.Result) error {
	if r.json {
		return r.encode(result)
	}

	var b strings.Builder
	b.WriteString(r.styles.title.Render("Created "+result.Dir) + "\n")
	for _, f := range result.Files {
		fmt.Fprintf(&b, "  %s %s\n", r.changeMark(model.ChangeCreated), r.styles.path.Render(f))
	}
	if result.Git {
		fmt.Fprintf(&b, "  %s initialized git repository\n", r.changeMark(model.ChangeCreated))
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// errorOutput is the JSON shape of a fatal error.
type errorOutput struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Error writes a fatal error and its exit code.
func (r *Renderer) Error(err error, code model.ExitCode) error {
	if r.json {
		return r.encode(errorOutput{Error: err.Error(), Code: int(code)})
	}
	_, werr := fmt.Fprintf(r.w, "%s %v\n", r.styles.failure.Render("Error:"), err)
	return werr
}

func (r *Renderer) section(b *strings.Builder, name string) {
	b.WriteString("\n" + r.styles.section.Render(name) + "\n")
}

func (r *Renderer) occurrences(b *strings.Builder, occurrences []model.Occurrence) {
	for _, o := range occurrences {
		fmt.Fprintf(b, "  %s %s\n", r.styles.path.Render(fmt.Sprintf("%s:%d:", o.Path, o.Line)), o.Snippet)
	}
}

func (r *Renderer) changeMark(c model.Change) string {
	switch c {
	case model.ChangeUpdated:
		return r.styles.success.Render("~")
	case model.ChangeCreated:
		return r.styles.success.Render("+")
	case model.ChangeFailed:
		return r.styles.failure.Render("!")
	default:
		return r.styles.muted.Render("-")
	}
}

func (r *Renderer) encode(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
