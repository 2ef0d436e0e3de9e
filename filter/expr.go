package filter

import (
	"maps"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/s0up4200/dexbrowse/catalog"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	logger     zerolog.Logger
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// WithLogger reports evaluation errors at debug level
func WithLogger(logger zerolog.Logger) ExprCompilerOption {
	return func(c *exprCompiler) {
		c.logger = logger
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) Compiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	logger      zerolog.Logger
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(), // item fields are bound at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &exprFilter{
		expression: expression,
		program:    program,
		logger:     c.logger,
	}, nil
}

// Evaluate evaluates the filter against an item. Run-time errors such as a
// type mismatch exclude the item.
func (f *exprFilter) Evaluate(item catalog.ItemDetail) bool {
	result, err := expr.Run(f.program, createRuntimeEnvironment(item))
	if err != nil {
		f.logger.Debug().Err(err).Str("expression", f.expression).Str("item", item.Name).Msg("Filter evaluation failed")
		return false
	}

	// AsBool guarantees the type
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds the item-independent helpers to env
func addHelperFunctions(env map[string]any) {
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper

	// Placeholders so compilation knows the item helpers exist
	env["hasCategory"] = func(string) bool { return false }
	env["hasType"] = func(string) bool { return false }
	env["hasTrait"] = func(string) bool { return false }
	env["hasAbility"] = func(string) bool { return false }
	env["stat"] = func(string) int { return 0 }
}

// createRuntimeEnvironment creates the runtime environment for filter evaluation
func createRuntimeEnvironment(item catalog.ItemDetail) map[string]any {
	env := make(map[string]any, 32)
	addHelperFunctions(env)

	env["Item"] = item

	categories := lowered(item.Categories)
	traits := lowered(item.Traits)
	hasCategory := func(c string) bool { return slices.Contains(categories, strings.ToLower(c)) }
	hasTrait := func(t string) bool { return slices.Contains(traits, strings.ToLower(t)) }

	env["hasCategory"] = hasCategory
	env["hasType"] = hasCategory
	env["hasTrait"] = hasTrait
	env["hasAbility"] = hasTrait
	env["stat"] = item.StatValue

	stats := make(map[string]int, len(item.Stats))
	for _, s := range item.Stats {
		stats[s.Label] = s.Value
	}

	// Direct item properties for convenience
	env["ID"] = item.ID
	env["Name"] = item.Name
	env["Types"] = item.Categories
	env["Abilities"] = item.Traits
	env["Mass"] = item.Mass
	env["Size"] = item.Size
	env["Weight"] = float64(item.Mass) / 10
	env["Height"] = float64(item.Size) / 10
	env["Stats"] = stats
	env["Total"] = item.StatTotal()
	env["HasImage"] = item.ImageURL != ""

	return env
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
