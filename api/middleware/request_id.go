package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarquezg/storefront-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID keeps the caller's request id when it is a well-formed UUID and
// mints a fresh one otherwise. The id is echoed in the response header and
// attached to the log context for the rest of the request.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
