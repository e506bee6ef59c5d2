package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// withRequester attaches the caller's IP and User-Agent for logging of
// destructive operations.
func withRequester(r *http.Request) context.Context {
	ip := r.RemoteAddr // already resolved by TrustedRealIP
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return core.WithRequester(r.Context(), core.Requester{
		IP:        ip,
		UserAgent: r.UserAgent(),
	})
}
