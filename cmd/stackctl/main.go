// stackctl inspects serialized printer stacks and resolves effective setting
// values against a directory of container files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	settings "github.com/goliatone/go-settings-stack"
	"github.com/goliatone/go-settings-stack/registry"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	containersDir string
	engine        string
	verbose       bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "stackctl",
		Short:         "Inspect and resolve printer settings stacks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.containersDir, "containers", "c", "", "directory holding *.def.json and *.inst.cfg container files")
	cmd.PersistentFlags().StringVar(&flags.engine, "engine", "expr", "resolve expression engine (expr or cel)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log resolve evaluations")
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newGetCmd(flags))
	return cmd
}

func newShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <stack file>",
		Short: "Print the container occupying each slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, cleanup, err := loadStack(args[0], flags)
			if err != nil {
				return err
			}
			defer cleanup()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stack: %s\n", stack.ID())
			if stack.Name() != "" {
				fmt.Fprintf(out, "name: %s\n", stack.Name())
			}
			fmt.Fprintf(out, "%s = %s\n", settings.SlotUserChanges, stack.UserChanges().ID())
			fmt.Fprintf(out, "%s = %s\n", settings.SlotQualityChanges, stack.QualityChanges().ID())
			fmt.Fprintf(out, "%s = %s\n", settings.SlotQuality, stack.Quality().ID())
			fmt.Fprintf(out, "%s = %s\n", settings.SlotMaterial, stack.Material().ID())
			fmt.Fprintf(out, "%s = %s\n", settings.SlotVariant, stack.Variant().ID())
			fmt.Fprintf(out, "%s = %s\n", settings.SlotDefinitionChanges, stack.DefinitionChanges().ID())
			fmt.Fprintf(out, "%s = %s\n", settings.SlotDefinition, stack.Definition().ID())
			return nil
		},
	}
}

func newGetCmd(flags *rootFlags) *cobra.Command {
	var property string
	cmd := &cobra.Command{
		Use:   "get <stack file> <setting key>",
		Short: "Resolve the effective value of a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, cleanup, err := loadStack(args[0], flags)
			if err != nil {
				return err
			}
			defer cleanup()
			value := stack.GetProperty(args[1], property)
			if value == nil {
				return fmt.Errorf("setting %q has no %s in this stack", args[1], property)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&property, "property", "p", settings.PropertyValue, "property to resolve")
	return cmd
}

func loadStack(path string, flags *rootFlags) (*settings.GlobalStack, func(), error) {
	logger := zap.NewNop()
	if flags.verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
	}
	cleanup := func() { _ = logger.Sync() }

	lookup := registry.New()
	if flags.containersDir != "" {
		if err := lookup.LoadDir(flags.containersDir); err != nil {
			return nil, nil, err
		}
	}
	logger.Debug("containers loaded", zap.Int("count", lookup.Len()))

	evaluator, err := newEvaluator(flags.engine)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read stack file: %w", err)
	}

	stack := settings.NewGlobalStack("",
		settings.WithContainerLookup(lookup),
		settings.WithEvaluator(evaluator),
		settings.WithEvaluatorLogger(settings.EvaluatorLoggerFunc(func(event settings.EvaluatorLogEvent) {
			logger.Debug("resolve evaluated",
				zap.String("engine", event.Engine),
				zap.String("key", event.Key),
				zap.String("expr", event.Expr),
				zap.Duration("duration", event.Duration),
				zap.Error(event.Err))
		})),
	)
	if err := stack.Deserialize(data); err != nil {
		return nil, nil, err
	}
	return stack, cleanup, nil
}

func newEvaluator(engine string) (settings.Evaluator, error) {
	cache := settings.NewProgramCache()
	switch engine {
	case "expr":
		return settings.NewExprEvaluator(settings.ExprWithProgramCache(cache)), nil
	case "cel":
		return settings.NewCELEvaluator(settings.CELWithProgramCache(cache)), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (expected expr or cel)", engine)
	}
}
