// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the build lifecycle: load the descriptor,
// orchestrate the build and render the report, decoupled from any specific
// entrypoint like a CLI.
package app
