// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package config defines the format-agnostic build descriptor model and the
// Loader interface implemented by the concrete descriptor formats.
//
// # Core Concepts
//
//   - ProjectDescriptor: the root of a build. It carries the project identity,
//     the platform compatibility, every dependency, processor and platform (BOM)
//     declaration, and the test settings.
//
//   - DependencyDeclaration: a Coordinate visible in exactly one Scope. The same
//     library may appear in several scopes at different versions; scopes are
//     never merged.
//
//   - ProcessorDeclaration: a dependency that generates sources during
//     compilation. It must also be declared as a dependency at a scope that puts
//     it on the processor path.
//
// A ProjectDescriptor is built once per invocation by a Loader and is read-only
// from then on. The `hcl` and `yamlconfig` packages provide the loaders; both
// finish with Finalize so they share defaulting, platform alignment and the
// MalformedConfig checks.
//
// Validate inspects a loaded descriptor and returns every Violation it finds. It
// never fails by itself: the orchestrator decides which severities are fatal.
package config
