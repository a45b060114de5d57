package cmds

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/gtcs8803/submit/internal/quiz"
	"github.com/gtcs8803/submit/internal/types"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/submit")

// Values of the persistent flags
type globals struct {
	provider    types.Provider
	environment types.Environment
	configPath  string
	dir         string
	out         io.Writer
}

func NewRootCmd(out io.Writer) *cobra.Command {
	g := &globals{
		provider:    types.ProviderGT,
		environment: types.EnvironmentProduction,
		out:         out,
	}

	rootCmd := &cobra.Command{
		Use:           "submit",
		Short:         "Submit quiz files to the grading service and report the outcome",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.Var(&g.provider, "provider", `"gt" or "udacity"`)
	flags.Var(&g.environment, "environment", `"local", "development", "staging" or "production"`)
	flags.StringVar(&g.configPath, "config", "", "Path to an alternate config file")
	flags.StringVar(&g.dir, "dir", ".", "Directory quiz paths are relative to")
	for _, hidden := range []string{"config", "dir"} {
		if err := flags.MarkHidden(hidden); err != nil {
			panic("Internal error contact a contributor [hide-flag]")
		}
	}

	for _, tool := range quiz.Tools {
		rootCmd.AddCommand(newToolCmd(g, tool))
	}

	return rootCmd
}

func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout).ExecuteContext(ctx)
}
