package hcl

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/buildgrid/internal/hclutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// EnvFunc reads an environment variable: env("NAME") or env("NAME", "fallback").
var EnvFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	VarParam: &function.Parameter{Name: "default", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		name := args[0].AsString()
		if v, ok := os.LookupEnv(name); ok {
			return cty.StringVal(v), nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return cty.NilVal, fmt.Errorf("environment variable %q is not set and no default was given", name)
	},
})

// functions is the function table available to every descriptor expression.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"env":    EnvFunc,
		"format": stdlib.FormatFunc,
		"join":   stdlib.JoinFunc,
		"lower":  stdlib.LowerFunc,
		"upper":  stdlib.UpperFunc,
	}
}

// EvalContext builds the evaluation context holding the resolved locals
// (reachable as `local.<name>`) and the descriptor functions.
func EvalContext(locals map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"local": cty.ObjectVal(locals),
		},
		Functions: functions(),
	}
}

// ResolveLocals evaluates local values that may reference each other. Values
// are evaluated once all the locals they read are known; a reference cycle or
// a reference to an undeclared local is reported as a diagnostic.
func ResolveLocals(exprs map[string]hcl.Expression) (map[string]cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	values := make(map[string]cty.Value, len(exprs))

	pending := make([]string, 0, len(exprs))
	for name := range exprs {
		pending = append(pending, name)
	}
	sort.Strings(pending)

	for len(pending) > 0 {
		var next []string
		for _, name := range pending {
			expr := exprs[name]
			if !refsResolved(expr, values) {
				next = append(next, name)
				continue
			}
			val, valDiags := expr.Value(EvalContext(values))
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				return nil, diags
			}
			values[name] = val
		}

		if len(next) == len(pending) {
			return nil, append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unresolvable local values",
				Detail: fmt.Sprintf("The locals %s reference each other in a cycle or reference an undeclared local.",
					strings.Join(next, ", ")),
				Subject: exprs[next[0]].Range().Ptr(),
			})
		}
		pending = next
	}
	return values, diags
}

func refsResolved(expr hcl.Expression, values map[string]cty.Value) bool {
	for _, ref := range hclutil.References(expr, "local") {
		if _, ok := values[ref]; !ok {
			return false
		}
	}
	return true
}

// ParseTemplate parses a plain string that may contain `${...}` interpolation.
func ParseTemplate(src, filename string) (hcl.Expression, hcl.Diagnostics) {
	return hclsyntax.ParseTemplate([]byte(src), filename, hcl.InitialPos)
}

// ExpandTemplate evaluates src as an HCL string template.
func ExpandTemplate(evalCtx *hcl.EvalContext, src, filename string) (string, error) {
	expr, diags := ParseTemplate(src, filename)
	if diags.HasErrors() {
		return "", diags
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("template %q does not produce a string: %w", src, err)
	}
	if str.IsNull() || !str.IsKnown() {
		return "", fmt.Errorf("template %q produced no value", src)
	}
	return str.AsString(), nil
}
