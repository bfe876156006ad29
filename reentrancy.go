package runlocker

import "context"

// frameKey is the unexported context key type for the reentrancy frame.
// Go has no implicit per-goroutine storage, so context.Context is the
// idiomatic place to carry it, since the body a Lock call invokes already
// receives one.
type frameKey struct{}

// IsInsideLock reports whether ctx carries a reentrancy frame, i.e.
// whether the calling chain is nested inside an outer Lock call.
func IsInsideLock(ctx context.Context) bool {
	_, ok := ctx.Value(frameKey{}).(string)
	return ok
}

// CurrentResources returns the canonical resource form held by the
// enclosing Lock call, if any.
func CurrentResources(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(frameKey{}).(string)
	return v, ok
}

// runWithFrame pushes a reentrancy frame naming canonicalForm onto ctx and
// invokes body with the resulting context. The frame is scoped entirely to
// this call: it is visible to body and anything body calls, and disappears
// the instant runWithFrame returns (value returned, error returned, or
// panic propagated) — there is nothing to explicitly pop, since the
// original ctx the caller holds was never mutated.
func runWithFrame(ctx context.Context, canonicalForm string, body func(context.Context) (interface{}, error)) (interface{}, error) {
	framed := context.WithValue(ctx, frameKey{}, canonicalForm)
	return body(framed)
}
