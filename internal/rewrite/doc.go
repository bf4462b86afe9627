// Package rewrite implements the rewrite strategies used when a project is
// moved from its development code name to its public release name.
//
// Three strategies share one capability, Strategy.Apply(root, placeholder,
// target):
//
//   - FieldPatch: parses a JSON document, assigns one field and deletes
//     others, and re-serializes with the authored key order preserved.
//   - LinePatch: finds the first line whose trimmed content starts with a
//     marker and performs a literal replacement on that line only. No
//     regular expression is ever applied to file content.
//   - Regenerate: re-renders a whole file from its embedded template with
//     the release flag set, for files whose draft and release variants
//     differ in too many places to patch.
//
// A Registry is the ordered, validated table of ManagedLocations the
// release orchestrator walks. Every strategy treats a missing file as a
// successful no-op (model.ChangeSkipped) and never creates it.
//
// JSONC (JSON with Comments) is tolerated via github.com/tidwall/jsonc, so a
// hand-edited package.json with stray comments or trailing commas can still
// be patched.
package rewrite
