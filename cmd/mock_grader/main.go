package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtcs8803/submit/cmd/mock_grader/internal/grader"
	"github.com/gtcs8803/submit/internal/logger"
	otelsubmit "github.com/gtcs8803/submit/internal/otel"
)

var (
	address      string
	pendingPolls int
	inlineLimit  int
	exporter     string
)

var rootCmd = &cobra.Command{
	Use:           "mock_grader",
	Short:         "In-memory grading service for local submissions",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := otelsubmit.ParseExporter(exporter, false)
		if err != nil {
			return err
		}
		shutdown, err := otelsubmit.SetupOTelSDK(ctx, e)
		if err != nil {
			logger.Logger.Warn("failed to setup otel sdk", "error", err)
		}
		defer func() {
			if fail := shutdown(context.WithoutCancel(ctx)); fail != nil {
				logger.Logger.Warn("no clean shutdown for otel", "error", fail)
			}
		}()

		router := grader.New(pendingPolls, inlineLimit).BuildEcho(logger.Logger)

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Logger.Error("failed to shut down server", "error", err)
			}
		}()

		logger.Logger.Info("serving", "address", address, "pending_polls", pendingPolls)
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&address, "address", ":1323", "Address to listen on")
	rootCmd.Flags().IntVar(&pendingPolls, "pending-polls", 2, "Status reads answered with pending before a submission completes")
	rootCmd.Flags().IntVar(&inlineLimit, "inline-limit", 64<<10, "Results larger than this many bytes are served by URL")
	rootCmd.Flags().StringVar(&exporter, "telemetry", "none", `"none", "stdout" or "otlp"`)
}

func main() {
	logger.InitSlog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
