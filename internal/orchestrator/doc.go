// Package orchestrator drives a build through its phases.
//
// A build runs Resolve, then Compile, then Test, strictly in that order, and
// ends in exactly one terminal state:
//
//	Idle -> Resolving -> Compiling -> Testing -> Succeeded
//	             \            \           \
//	              `------------`-----------`--> Failed
//
// The orchestrator owns none of the heavy lifting. It translates a
// config.ProjectDescriptor into requests for three collaborators (Resolver,
// Compiler, TestRunner), enforces the phase ordering and attaches every failure
// to the phase it happened in. Each Run is independent: nothing is shared
// between invocations except the collaborators themselves.
package orchestrator
