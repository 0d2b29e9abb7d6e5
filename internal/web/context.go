package web

import (
	"context"
	"net/http"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
)

// WithRequestMetadata attaches the client IP and User-Agent to the context
// so mutations carry them into the audit trail. RemoteAddr is already
// proxy-resolved by the time handlers run.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	return core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
}
