package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joacominatel/queryreport/internal/app"
)

// errReportFailed signals that the report ran but some entries failed.
var errReportFailed = errors.New("report finished with failed queries")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReportFailed) {
			fmt.Fprintln(os.Stderr, errorMessage(err))
		}
		stop()
		os.Exit(1)
	}
}

// errorMessage formats a fatal error for stderr.
func errorMessage(err error) string {
	var ce *app.ErrConnection
	if errors.As(err, &ce) && ce.Cause != nil {
		return "Connection failed: " + ce.Cause.Error()
	}
	return "Error: " + err.Error()
}
