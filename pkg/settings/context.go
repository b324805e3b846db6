package settings

import "context"

type runKey struct{}

// IntoContext returns a child of ctx carrying the run settings of the
// current invocation.
func IntoContext(ctx context.Context, run *Run) context.Context {
	return context.WithValue(ctx, runKey{}, run)
}

// FromContext returns the run settings stored by IntoContext. The second
// result is false when ctx carries none.
func FromContext(ctx context.Context) (*Run, bool) {
	run, ok := ctx.Value(runKey{}).(*Run)
	return run, ok
}
