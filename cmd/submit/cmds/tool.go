package cmds

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/cmd/submit/internal/common"
	"github.com/gtcs8803/submit/internal/config"
	exiterrors "github.com/gtcs8803/submit/internal/exit_errors"
	"github.com/gtcs8803/submit/internal/lifecycle"
	"github.com/gtcs8803/submit/internal/logger"
	otelsubmit "github.com/gtcs8803/submit/internal/otel"
	"github.com/gtcs8803/submit/internal/quiz"
)

const endpointHelp = `The grading service URL is read from endpoints.<environment>.<provider> in submit.yaml.
Only the local environment has a default; production and staging URLs must be configured.`

func newToolCmd(g *globals, tool quiz.Tool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   tool.Name + " <quiz>",
		Short: tool.Description,
		Long: fmt.Sprintf(`%s

Quizzes: %s

- Exits with 0 once the outcome is reported.
- Exits with 1 when the submission could not be made or followed to completion.

%s`,
			tool.Description, strings.Join(tool.Names(), ", "), endpointHelp),
		ValidArgs: tool.Names(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), g, tool, args[0])
		},
	}

	if tool.Default != "" {
		cmd.Use = tool.Name
		cmd.Long = tool.Description + "\n\n" + endpointHelp
		cmd.ValidArgs = nil
		cmd.Args = cobra.NoArgs
		cmd.RunE = func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), g, tool, "")
		}
	}

	return cmd
}

func run(ctx context.Context, g *globals, tool quiz.Tool, name string) error {
	q, err := tool.Lookup(name)
	if err != nil {
		return err
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	exporter, err := otelsubmit.ParseExporter(cfg.Telemetry.Exporter, cfg.Logging.UseOTLP)
	if err != nil {
		return err
	}
	shutdown, err := otelsubmit.SetupOTelSDK(ctx, exporter)
	if err != nil {
		logger.Logger.WarnContext(ctx, "failed to setup otel sdk", "error", err)
	}
	defer func() {
		if fail := shutdown(context.WithoutCancel(ctx)); fail != nil {
			logger.Logger.WarnContext(ctx, "no clean shutdown for otel", "error", fail)
		}
	}()

	ctx, span := tracer.Start(ctx, "submit", trace.WithAttributes(
		attribute.String("tool", tool.Name),
		attribute.String("quiz", q.Key),
	))
	defer span.End()

	svc, err := common.GetService(cfg, g.environment, g.provider)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no grading service")
		return err
	}

	trail, closer, err := common.GetAuditTrail(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open audit trail")
		return err
	}
	defer closer.Close()

	archiver, err := common.GetArchiver(cfg, trail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make archiver")
		return err
	}

	opts := []lifecycle.Option{
		lifecycle.WithOutput(g.out),
		lifecycle.WithAuditTrail(trail),
	}
	if archiver != nil {
		opts = append(opts, lifecycle.WithArchiver(archiver))
	}
	client := lifecycle.New(lifecycle.HTTPSubmitter(svc), opts...)

	report, err := client.Run(ctx, lifecycle.Request{
		Quiz:        q,
		CourseID:    cfg.CourseID,
		Environment: g.environment,
		Provider:    g.provider,
		Root:        g.dir,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		return err
	}

	span.SetStatus(codes.Ok, "submission reported")
	if code := lifecycle.ExitCode(report, cfg.ExitCodes.Distinct); code != exiterrors.ExitNormal {
		return exiterrors.ExitErrorWrap(code, nil)
	}

	return nil
}
