// Package model defines the domain types and value objects for the
// devcode CLI.
//
// This package contains pure data structures with no external dependencies.
// The release report (Report, LocationResult, Occurrence) is built during a
// single run and discarded once printed; nothing here is persisted to disk.
//
// The package also defines exit codes (ExitCode), a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling,
// and the sentinel errors for the two fatal release preconditions.
package model
