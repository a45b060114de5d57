package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gtcs8803/submit/cmd/submit/cmds"
	exiterrors "github.com/gtcs8803/submit/internal/exit_errors"
	"github.com/gtcs8803/submit/internal/logger"
)

func runApp(ctx context.Context) int {
	err := cmds.Execute(ctx)
	if err == nil {
		return exiterrors.ExitNormal
	}

	var ee exiterrors.ExitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			fmt.Fprintln(os.Stderr, "Error: "+ee.Err.Error())
		}
		return ee.Code
	}

	logger.Logger.DebugContext(ctx, "error executing subcommands", "error", err)
	fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	return exiterrors.ExitErrored
}

func main() {
	logger.InitSlog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runApp(ctx)
	stop()

	os.Exit(code)
}
