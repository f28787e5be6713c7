package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

// Diagnostic describes one reference or evaluation failure of a formula.
// Diagnostics are data, not errors: one broken formula must not prevent
// rendering of an entire entity.
type Diagnostic struct {
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// FormulaResult is the outcome of evaluating one formula field. Value is nil
// whenever Diagnostics is non-empty.
type FormulaResult struct {
	Value       any          `json:"value"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// parseFormula parses an expression and records every root variable name it
// references. Sibling resolution happens later in NormalizeSet.
func parseFormula(expression string) (*FormulaSpec, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("expression is empty")
	}
	expr, diags := hclsyntax.ParseExpression([]byte(expression), "formula", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}

	seen := make(map[string]bool)
	var names []string
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return &FormulaSpec{Expression: expression, RefNames: names, expr: expr}, nil
}

// EvaluateFormula computes one formula field against a value snapshot.
// Missing or unresolvable references yield a nil value plus diagnostics
// naming each failed reference.
func EvaluateFormula(def *FieldDefinition, reg *Registry, values Values) FormulaResult {
	if def.Formula == nil {
		return FormulaResult{Diagnostics: []Diagnostic{{Message: "field is not a formula"}}}
	}
	spec := def.Formula
	if spec.expr == nil {
		parsed, err := parseFormula(spec.Expression)
		if err != nil {
			return FormulaResult{Diagnostics: []Diagnostic{{Message: err.Error()}}}
		}
		*spec = *parsed
	}

	vars := make(map[string]cty.Value, len(spec.RefNames))
	var diagnostics []Diagnostic
	for _, name := range spec.RefNames {
		sibling, ok := reg.ByAPIName(name)
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{Ref: name, Message: "unknown field reference"})
			continue
		}
		raw, present := values[sibling.ID]
		if !present || raw == nil {
			diagnostics = append(diagnostics, Diagnostic{Ref: name, Message: "no value for referenced field"})
			continue
		}
		cv, err := valueToCty(raw)
		if err != nil {
			diagnostics = append(diagnostics, Diagnostic{Ref: name, Message: err.Error()})
			continue
		}
		vars[name] = cv
	}
	if len(diagnostics) > 0 {
		return FormulaResult{Diagnostics: diagnostics}
	}

	out, diags := spec.expr.Value(&hcl.EvalContext{
		Variables: vars,
		Functions: formulaFunctions,
	})
	if diags.HasErrors() {
		return FormulaResult{Diagnostics: []Diagnostic{{Message: diags.Error()}}}
	}
	if !out.IsWhollyKnown() {
		return FormulaResult{Diagnostics: []Diagnostic{{Message: "expression result is not known"}}}
	}
	return FormulaResult{Value: valueFromCty(out)}
}

// EvaluateFormulas computes every formula field of the registry in dependency
// order, feeding each result into the snapshot used for its dependents. A
// cycle at evaluation time (unreachable given normalization) is a single
// fatal configuration error, not a per-field failure.
func EvaluateFormulas(reg *Registry, values Values) (map[uuid.UUID]FormulaResult, *CycleError) {
	order, cycle := topoSort(dependencyEdges(reg.Definitions(), false))
	if cycle != nil {
		return nil, cycle
	}

	snapshot := make(Values, len(values))
	for k, v := range values {
		snapshot[k] = v
	}

	results := make(map[uuid.UUID]FormulaResult)
	for _, id := range order {
		def, ok := reg.Get(id)
		if !ok || def.Type != FieldTypeFormula {
			continue
		}
		res := EvaluateFormula(def, reg, snapshot)
		results[id] = res
		if res.Value != nil {
			snapshot[id] = res.Value
		}
	}
	return results, nil
}

// formulaFunctions is the fixed function library available to expressions.
var formulaFunctions = map[string]function.Function{
	"IF":       ifFunc,
	"ROUND":    roundFunc,
	"CONCAT":   concatFunc,
	"UPPER":    upperFunc,
	"LOWER":    lowerFunc,
	"LEN":      lenFunc,
	"COALESCE": coalesceFunc,
}

var ifFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "condition", Type: cty.Bool},
		{Name: "then", Type: cty.DynamicPseudoType, AllowNull: true},
		{Name: "else", Type: cty.DynamicPseudoType, AllowNull: true},
	},
	Type: func(args []cty.Value) (cty.Type, error) {
		t, _ := convert.UnifyUnsafe([]cty.Type{args[1].Type(), args[2].Type()})
		if t == cty.NilType {
			return cty.NilType, fmt.Errorf("IF branches have incompatible types")
		}
		return t, nil
	},
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		branch := args[2]
		if args[0].True() {
			branch = args[1]
		}
		return convert.Convert(branch, retType)
	},
})

var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "number", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		f, _ := args[0].AsBigFloat().Float64()
		return cty.NumberFloatVal(math.Round(f)), nil
	},
})

var concatFunc = function.New(&function.Spec{
	VarParam: &function.Parameter{Name: "parts", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		var b strings.Builder
		for _, arg := range args {
			b.WriteString(arg.AsString())
		}
		return cty.StringVal(b.String()), nil
	},
})

var upperFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "str", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(strings.ToUpper(args[0].AsString())), nil
	},
})

var lowerFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "str", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(strings.ToLower(args[0].AsString())), nil
	},
})

var lenFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		v := args[0]
		if v.Type() == cty.String {
			return cty.NumberIntVal(int64(len(v.AsString()))), nil
		}
		if v.Type().IsTupleType() || v.Type().IsListType() || v.Type().IsSetType() {
			return cty.NumberIntVal(int64(v.LengthInt())), nil
		}
		return cty.NilVal, fmt.Errorf("LEN expects a string or array, got %s", v.Type().FriendlyName())
	},
})

var coalesceFunc = function.New(&function.Spec{
	VarParam: &function.Parameter{Name: "values", Type: cty.DynamicPseudoType, AllowNull: true},
	Type: func(args []cty.Value) (cty.Type, error) {
		for _, arg := range args {
			if !arg.IsNull() {
				return arg.Type(), nil
			}
		}
		return cty.DynamicPseudoType, nil
	},
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		for _, arg := range args {
			if !arg.IsNull() {
				return convert.Convert(arg, retType)
			}
		}
		return cty.NullVal(retType), nil
	},
})
