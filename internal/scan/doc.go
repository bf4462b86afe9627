// Package scan finds leftover references to a project's placeholder name.
//
// The release pipeline only rewrites the files it manages. Every other
// literal occurrence of the placeholder (in docs, source, examples) is
// reported back for a human to review. The scanner is strictly read-only.
package scan
