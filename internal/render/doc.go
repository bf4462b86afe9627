// Package render writes command results to stdout, either as styled text
// or as JSON (--json).
//
// Text output keeps four sections apart: what changed, what failed to
// change, what was found but left alone, and what the user still has to
// do. Colour is only emitted when the writer is a terminal; lipgloss
// detects the colour profile through termenv, and NoColor forces plain
// ASCII.
package render
