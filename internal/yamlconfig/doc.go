// Package yamlconfig provides a YAML implementation of config.Loader.
//
// The YAML shape mirrors the HCL descriptor one to one: a `project` mapping,
// `locals`, and lists of `repositories`, `platforms`, `dependencies` and
// `processors`. String values may interpolate locals with `${local.name}` and
// call the same functions as HCL descriptors, e.g. `${env("VERSION", "1.0")}`.
package yamlconfig
