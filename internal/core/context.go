package core

import "context"

type contextKey string

const ctxKeyRequester contextKey = "requester"

// Requester identifies who triggered an operation. It is copied into
// audit entries.
type Requester struct {
	IP        string
	UserAgent string
}

// WithRequester attaches requester details to ctx.
func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, ctxKeyRequester, r)
}

// RequesterFromContext returns the requester stored in ctx, if any.
func RequesterFromContext(ctx context.Context) (Requester, bool) {
	r, ok := ctx.Value(ctxKeyRequester).(Requester)
	return r, ok
}
