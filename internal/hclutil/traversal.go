package hclutil

import (
	"github.com/hashicorp/hcl/v2"
)

// References returns the attribute names an expression reads from the given
// root object, e.g. References(expr, "local") for `"${local.a}-${local.b}"`
// returns ["a", "b"].
func References(expr hcl.Expression, root string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, t := range expr.Variables() {
		if t.RootName() != root || len(t) < 2 {
			continue
		}
		attr, ok := t[1].(hcl.TraverseAttr)
		if !ok {
			continue
		}
		if _, dup := seen[attr.Name]; dup {
			continue
		}
		seen[attr.Name] = struct{}{}
		names = append(names, attr.Name)
	}
	return names
}
