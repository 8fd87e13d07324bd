package settings

import "github.com/goliatone/go-settings-stack/pkg/signal"

// StackOption configures a stack at construction time.
type StackOption func(*stackConfig)

type stackConfig struct {
	evaluator Evaluator
	functions *FunctionRegistry
	logger    EvaluatorLogger
	lookup    ContainerLookup
	hooks     signal.Hooks
}

func applyStackOptions(opts []StackOption) stackConfig {
	cfg := stackConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator configures the engine used to compute expression-valued
// resolve properties. Without one, resolve values pass through untouched.
func WithEvaluator(e Evaluator) StackOption {
	return func(cfg *stackConfig) {
		cfg.evaluator = e
	}
}

// WithFunctionRegistry configures custom functions exposed to resolve
// expressions. The registry is cloned so later registrations on the original
// do not leak into the stack.
func WithFunctionRegistry(registry *FunctionRegistry) StackOption {
	return func(cfg *stackConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for resolve expressions.
func WithCustomFunction(name string, fn Function) StackOption {
	return func(cfg *stackConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithEvaluatorLogger attaches a logger observing resolve evaluations.
func WithEvaluatorLogger(logger EvaluatorLogger) StackOption {
	return func(cfg *stackConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithContainerLookup injects the registry collaborator consulted during
// deserialization.
func WithContainerLookup(lookup ContainerLookup) StackOption {
	return func(cfg *stackConfig) {
		cfg.lookup = lookup
	}
}

// WithChangeHooks attaches hooks notified when the stack's composition
// changes. Nil entries are dropped; delivery is best effort.
func WithChangeHooks(hooks signal.Hooks) StackOption {
	normalized := cloneChangeHooks(hooks)
	return func(cfg *stackConfig) {
		cfg.hooks = normalized
	}
}

func cloneChangeHooks(hooks signal.Hooks) signal.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]signal.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return signal.Hooks(normalized)
}
