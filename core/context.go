package core

import "context"

// Context keys for run options
type contextKey string

const (
	suppressProgressKey contextKey = "suppressProgress"
	runIDKey            contextKey = "runID"
)

// withSuppressProgress disables the progress bar for runs in the context
func withSuppressProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressProgressKey, true)
}

// shouldSuppressProgress returns whether the progress bar should be hidden
func shouldSuppressProgress(ctx context.Context) bool {
	val := ctx.Value(suppressProgressKey)
	if val == nil {
		return false // default: show progress on a terminal
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withRunID stores the tracked run id in the context
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the tracked run id, or 0 when the run is not tracked
func runIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(runIDKey).(int64)
	return id
}
