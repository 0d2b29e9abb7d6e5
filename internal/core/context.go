package core

import "context"

// Request metadata travels on the context so audit entries can record who
// did what from where without threading extra parameters through every
// service call.

type contextKey string

const (
	ctxKeyIPAddress contextKey = "ip_address"
	ctxKeyUserAgent contextKey = "user_agent"
	ctxKeyActor     contextKey = "actor"
)

// ContextWithIPAddress returns a context carrying the client IP address.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent returns a context carrying the client user agent.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ContextWithActor returns a context carrying the acting user's identity,
// e.g. a Discord username.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// IPAddressFromContext extracts the client IP, or "" when absent.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext extracts the client user agent, or "" when absent.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext extracts the acting user, or "system" when absent so
// audit entries from background jobs still carry an actor.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok && v != "" {
		return v
	}
	return "system"
}
