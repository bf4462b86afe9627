package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
)

// LinePatch replaces the placeholder with the target on the first line
// whose trimmed content begins with Marker, and nowhere else.
//
// Whole-file regular expressions over user content risk catastrophic
// backtracking and matches in unrelated regions, so the file is scanned
// line by line and the replacement is a literal substring replacement.
type LinePatch struct {
	// Path is the slash-separated file path relative to the project root.
	Path string

	// Marker is the structural prefix of the anchored line, e.g. "name:".
	Marker string

	// Validate, if set, checks the patched content before it is written.
	Validate func([]byte) error
}

// Kind implements Strategy.
func (p LinePatch) Kind() string { return "line-patch" }

// Target implements Strategy.
func (p LinePatch) Target() string { return p.Path }

// Apply implements Strategy.
func (p LinePatch) Apply(root, placeholder, target string) (model.Change, error) {
	logger := logging.GetLogger("rewrite")
	if placeholder == "" {
		return "", errors.New("placeholder name must not be empty")
	}
	if p.Marker == "" {
		return "", fmt.Errorf("line patch for %s has no marker", p.Path)
	}

	full := resolve(root, p.Path)
	data, err := readOptional(full)
	if err != nil {
		return "", err
	}
	if data == nil {
		logger.Debug().Str("path", p.Path).Msg("file absent, skipping line patch")
		return model.ChangeSkipped, nil
	}

	out, line := PatchLine(data, p.Marker, placeholder, target)
	if line == 0 {
		logger.Debug().Str("path", p.Path).Str("marker", p.Marker).Msg("marker line not found")
	} else {
		logger.Debug().Str("path", p.Path).Int("line", line).Msg("patched anchored line")
	}

	if p.Validate != nil {
		if err := p.Validate(out); err != nil {
			return "", fmt.Errorf("refusing to write %s: %w", p.Path, err)
		}
	}
	return writeIfChanged(full, data, out)
}

// PatchLine returns content with old replaced by new on the first line
// whose trimmed content starts with marker. Line endings are preserved.
// The returned line number is 1-based, or 0 when no line matched.
func PatchLine(content []byte, marker, old, new string) ([]byte, int) {
	lines := bytes.SplitAfter(content, []byte("\n"))
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(string(line)), marker) {
			continue
		}
		lines[i] = []byte(strings.ReplaceAll(string(line), old, new))
		return bytes.Join(lines, nil), i + 1
	}
	return content, 0
}

// ValidYAML reports whether data parses as a YAML document.
func ValidYAML(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	return nil
}
