package rewrite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/devcode/internal/logging"
	"github.com/shinji-kodama/devcode/internal/model"
)

// FieldPatch assigns the target name to one field of a JSON document and
// deletes the Remove fields entirely. Every other member keeps its value
// and its position.
type FieldPatch struct {
	// Path is the slash-separated file path relative to the project root.
	Path string

	// Field receives the target name. Defaults to "name".
	Field string

	// Remove lists top-level keys to delete. Defaults to ["private"].
	Remove []string
}

// Kind implements Strategy.
func (p FieldPatch) Kind() string { return "field-patch" }

// Target implements Strategy.
func (p FieldPatch) Target() string { return p.Path }

// Apply implements Strategy.
func (p FieldPatch) Apply(root, placeholder, target string) (model.Change, error) {
	logger := logging.GetLogger("rewrite")
	full := resolve(root, p.Path)

	data, err := readOptional(full)
	if err != nil {
		return "", err
	}
	if data == nil {
		logger.Debug().Str("path", p.Path).Msg("file absent, skipping field patch")
		return model.ChangeSkipped, nil
	}

	field, remove := p.Field, p.Remove
	if field == "" {
		field = "name"
	}
	if remove == nil {
		remove = []string{"private"}
	}

	out, previous, err := PatchFields(data, field, target, remove...)
	if err != nil {
		return "", fmt.Errorf("failed to patch %s: %w", p.Path, err)
	}
	if previous != placeholder && previous != target {
		logger.Warn().
			Str("path", p.Path).
			Str("found", previous).
			Str("expected", placeholder).
			Msg("field did not hold the placeholder name")
	}
	return writeIfChanged(full, data, out)
}

// PatchPackageJSON sets "name" to target and deletes "private". It returns
// the new document and the name it held before.
func PatchPackageJSON(data []byte, target string) ([]byte, string, error) {
	return PatchFields(data, "name", target, "private")
}

// member is one top-level key/value pair, kept in authored order. The
// value stays raw so it is re-emitted with the exact same JSON value.
type member struct {
	Key   string
	Value json.RawMessage
}

// PatchFields assigns value to field (inserting it first when absent) and
// deletes every key in remove from the top-level object of data. The
// result uses 2-space indentation and ends with a newline. The previous
// string value of field is returned ("" if absent or not a string).
func PatchFields(data []byte, field, value string, remove ...string) ([]byte, string, error) {
	members, err := decodeObject(jsonc.ToJSON(data))
	if err != nil {
		return nil, "", err
	}

	encoded, err := encodeString(value)
	if err != nil {
		return nil, "", err
	}

	drop := make(map[string]bool, len(remove))
	for _, k := range remove {
		drop[k] = true
	}

	var (
		previous string
		found    bool
		kept     = members[:0]
	)
	for _, m := range members {
		if drop[m.Key] && m.Key != field {
			continue
		}
		if m.Key == field {
			if !found {
				_ = json.Unmarshal(m.Value, &previous)
			}
			found = true
			m.Value = encoded
		}
		kept = append(kept, m)
	}
	if !found {
		kept = append([]member{{Key: field, Value: encoded}}, kept...)
	}

	out, err := encodeObject(kept)
	if err != nil {
		return nil, "", err
	}
	return out, previous, nil
}

// decodeObject reads a single top-level JSON object as ordered members.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("invalid JSON: top-level value is not an object")
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}
		members = append(members, member{Key: key, Value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON: unexpected data after top-level object")
	}
	return members, nil
}

// encodeObject writes members as a 2-space indented object.
func encodeObject(members []member) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  ")

		key, err := encodeString(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")

		if err := json.Indent(&buf, m.Value, "  ", "  "); err != nil {
			return nil, fmt.Errorf("failed to format value of %q: %w", m.Key, err)
		}
	}
	if len(members) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// encodeString encodes s as a JSON string without HTML escaping, so names
// like "@scope/pkg" and descriptions with "<" or "&" stay readable.
func encodeString(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
