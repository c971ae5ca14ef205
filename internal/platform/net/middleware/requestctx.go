package middleware

import (
	"net/http"

	"sentimentd/internal/platform/logger"
	pnet "sentimentd/internal/platform/net"
)

// UserHeader optionally attributes a request to a caller before the body is read
const UserHeader = "X-User-ID"

// RequestContext copies the chi request id and the X-User-ID header onto the context
// so logger.C and pnet getters see them; run it after RequestID
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := pnet.RequestID(ctx)
		userID := r.Header.Get(UserHeader)

		ctx = pnet.WithUser(ctx, userID)
		ctx = logger.WithRequest(ctx, reqID, userID)
		if reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
