// Package release moves a project from its placeholder development name to
// its public release name.
//
// A run goes through a fixed sequence of states:
//
//	start -> detect -> rewrite -> artifacts -> scan -> done
//
// Only detect can fail the run. It requires a package.json still marked
// "private": true and reads the placeholder name from it. Every later state
// records its failures in the report and moves on, so a run that got past
// detect always produces a complete model.Report.
package release
