package settings

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx ResolveContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	registry := e.effectiveRegistry(ctx)
	program, err := e.loadOrCompile(expression, ctx.Bindings, registry)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx, registry))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, bindings map[string]any, registry *FunctionRegistry) (*celProgram, error) {
	if bindings == nil {
		bindings = map[string]any{}
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(bindings, registry)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(bindings map[string]any, registry *FunctionRegistry) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("key", celgo.StringType),
		celgo.Variable("stack", celgo.StringType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if registry != nil {
		callOpts := []celgo.FunctionOpt{}
		argTypes := []*celgo.Type{celgo.StringType}
		for i := 0; i <= 5; i++ {
			callOpts = append(callOpts, celgo.Overload(
				fmt.Sprintf("call_dyn_%d", i),
				append([]*celgo.Type(nil), argTypes...),
				celgo.DynType,
			))
			argTypes = append(argTypes, celgo.DynType)
		}
		callOpts = append(callOpts, celgo.SingletonFunctionBinding(callBinding(registry)))
		opts = append(opts, celgo.Function("call", callOpts...))
	}
	for key := range bindings {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx ResolveContext, registry *FunctionRegistry) map[string]any {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"key":      ctx.Key,
		"stack":    ctx.StackID,
		"metadata": ctx.Metadata,
	}
	for key, value := range ctx.Bindings {
		activation[key] = value
	}
	if registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return registry.Call(name, arguments...)
		}
	}
	return activation
}

func (e *celEvaluator) effectiveRegistry(ctx ResolveContext) *FunctionRegistry {
	if ctx.Functions != nil {
		return ctx.Functions
	}
	if e == nil {
		return nil
	}
	return e.registry
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx ResolveContext) (any, error) {
	if r.evaluator == nil {
		return nil, fmt.Errorf("cel compiled rule missing evaluator")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	registry := r.evaluator.effectiveRegistry(ctx)
	program, err := r.evaluator.loadOrCompile(r.expression, ctx.Bindings, registry)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(r.evaluator.activation(ctx, registry))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func callBinding(registry *FunctionRegistry) functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if registry == nil {
			return types.NewErr("settings: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("settings: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("settings: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
