package settings

import (
	"fmt"
	"time"
)

// ResolveContext carries inputs needed when evaluating a resolve expression.
type ResolveContext struct {
	Key       string
	StackID   string
	Now       *time.Time
	Bindings  map[string]any
	Metadata  map[string]any
	Functions *FunctionRegistry
}

func (ctx ResolveContext) withDefaultNow() ResolveContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx ResolveContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx ResolveContext) withDefaultMaps() ResolveContext {
	if ctx.Bindings == nil {
		ctx.Bindings = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx ResolveContext) withDefaults() ResolveContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx ResolveContext) keyLabel() string {
	if ctx.Key == "" {
		return "unknown"
	}
	return ctx.Key
}

// Evaluator executes resolve expressions against a resolve context.
type Evaluator interface {
	Evaluate(ctx ResolveContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx ResolveContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

func (s *GlobalStack) evaluatorLogger() EvaluatorLogger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopEvaluatorLogger{}
}

// evaluateResolve computes the effective resolve result for key. Literal
// values pass through; expression strings run on the configured evaluator
// with the stack's functions bound. Evaluation failures are logged and
// reported as absent so the value phase can proceed.
func (s *GlobalStack) evaluateResolve(key string, raw any) any {
	expression, ok := raw.(string)
	if !ok {
		return raw
	}
	evaluator := s.cfg.evaluator
	if evaluator == nil {
		return raw
	}
	ctx := ResolveContext{
		Key:       key,
		StackID:   s.id,
		Functions: s.cfg.functions,
	}.withDefaultNow().withDefaultMaps()
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expression)
	duration := time.Since(start)
	err = wrapEvaluationError("", expression, key, err)
	s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   evaluatorEngineName(evaluator),
		Expr:     expression,
		Key:      key,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil
	}
	return value
}

// registerBuiltins exposes the stack-bound helper functions available to
// resolve expressions.
func (s *GlobalStack) registerBuiltins() {
	if s.cfg.functions == nil {
		s.cfg.functions = NewFunctionRegistry()
	}
	_ = s.cfg.functions.Register("extruderValues", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("settings: extruderValues expects a setting key")
		}
		key, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("settings: extruderValues key must be a string")
		}
		values := make([]any, 0, len(s.extruders))
		for _, extruder := range s.extruders {
			if value := extruder.GetProperty(key, PropertyValue); value != nil {
				values = append(values, value)
			}
		}
		return values, nil
	})
	_ = s.cfg.functions.Register("extruderValue", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("settings: extruderValue expects a position and a setting key")
		}
		position, ok := toInt(args[0])
		if !ok {
			return nil, fmt.Errorf("settings: extruderValue position must be an integer")
		}
		key, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("settings: extruderValue key must be a string")
		}
		if position < 0 || position >= len(s.extruders) {
			return nil, fmt.Errorf("settings: no extruder at position %d", position)
		}
		return s.extruders[position].GetProperty(key, PropertyValue), nil
	})
	_ = s.cfg.functions.Register("resolveOrValue", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("settings: resolveOrValue expects a setting key")
		}
		key, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("settings: resolveOrValue key must be a string")
		}
		return s.GetProperty(key, PropertyValue), nil
	})
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*settings.exprEvaluator":
		return "expr"
	case "*settings.celEvaluator":
		return "cel"
	case "*settings.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
