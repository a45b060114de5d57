package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Where telemetry is exported to
type Exporter string

const (
	// Nothing is installed; the global no-op providers stay in place
	ExporterNone Exporter = "none"
	// Human readable telemetry on stderr, stdout is reserved for reports
	ExporterStdout Exporter = "stdout"
	// OTLP over gRPC, configured through the standard OTEL_EXPORTER_OTLP_* variables
	ExporterOTLP Exporter = "otlp"
)

var ErrUnknownExporter = errors.New("unknown exporter")

// Picks the exporter from config. `useOTLP` forces OTLP regardless of `name`.
func ParseExporter(name string, useOTLP bool) (Exporter, error) {
	if useOTLP {
		return ExporterOTLP, nil
	}

	switch e := Exporter(name); e {
	case ExporterNone, ExporterStdout, ExporterOTLP:
		return e, nil
	case "":
		return ExporterNone, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownExporter, name)
	}
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func SetupOTelSDK(
	ctx context.Context,
	exporter Exporter,
) (func(context.Context) error, error) {
	return setup(ctx, exporter, os.Stderr)
}

func setup(
	ctx context.Context,
	exporter Exporter,
	w io.Writer,
) (func(context.Context) error, error) {
	var shutdownFuncs []func(context.Context) error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined.
	// Each registered cleanup will be invoked once.
	shutdown := func(ctx context.Context) error {
		var er error
		for _, fn := range shutdownFuncs {
			er = errors.Join(er, fn(ctx))
		}
		shutdownFuncs = nil
		return er
	}

	if exporter == ExporterNone {
		return shutdown, nil
	}

	// handleErr calls shutdown for cleanup and makes sure that all errors are returned.
	handleErr := func(inErr error) error {
		return errors.Join(inErr, shutdown(ctx))
	}

	otel.SetTextMapPropagator(newPropagator())

	tracerProvider, err := newTracerProvider(ctx, exporter, w)
	if err != nil {
		return shutdown, handleErr(err)
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx, exporter, w)
	if err != nil {
		return shutdown, handleErr(err)
	}
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	loggerProvider, err := newLoggerProvider(ctx, exporter, w)
	if err != nil {
		return shutdown, handleErr(err)
	}
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

//nolint:ireturn // no control over otel's propagator interface return.
func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func newTracerProvider(ctx context.Context, exporter Exporter, w io.Writer) (*trace.TracerProvider, error) {
	var err error
	var traceExporter trace.SpanExporter

	if exporter == ExporterOTLP {
		traceExporter, err = otlptracegrpc.New(ctx)
	} else {
		traceExporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	}
	if err != nil {
		return nil, err
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithBatcher(traceExporter),
	)
	return tracerProvider, nil
}

func newMeterProvider(ctx context.Context, exporter Exporter, w io.Writer) (*metric.MeterProvider, error) {
	var err error
	var metricExporter metric.Exporter

	if exporter == ExporterOTLP {
		metricExporter, err = otlpmetricgrpc.New(ctx)
	} else {
		metricExporter, err = stdoutmetric.New(stdoutmetric.WithWriter(w))
	}
	if err != nil {
		return nil, err
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
	)
	return meterProvider, nil
}

func newLoggerProvider(ctx context.Context, exporter Exporter, w io.Writer) (*log.LoggerProvider, error) {
	var err error
	var logExporter log.Exporter

	if exporter == ExporterOTLP {
		logExporter, err = otlploggrpc.New(ctx)
	} else {
		logExporter, err = stdoutlog.New(stdoutlog.WithWriter(w))
	}
	if err != nil {
		return nil, err
	}

	loggerProvider := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(logExporter)),
	)
	return loggerProvider, nil
}
