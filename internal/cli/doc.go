// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags, with BUILDGRID_* environment variables as defaults,
// into the application's configuration.
package cli
