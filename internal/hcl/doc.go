// Package hcl provides the HCL implementation of config.Loader. It is
// responsible for parsing descriptor files, evaluating `locals` and functions,
// and translating the decoded blocks into the format-agnostic config model.
//
// The evaluation helpers (ResolveLocals, EvalContext, ExpandTemplate) are
// exported so other descriptor formats can offer the same `${local.name}`
// interpolation.
package hcl
