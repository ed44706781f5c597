package middleware

import (
	"net/http"

	"github.com/dmarquezg/storefront-backend/internal/sessions"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
)

// Session validates or mints the guest session identifier and echoes it
// back so the client can persist it.
func Session(provider *sessions.Provider, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inbound := r.Header.Get(sessions.Header)
			sessionID := inbound
			if provider != nil {
				sessionID, _ = provider.Ensure(r.Context(), inbound)
			}

			w.Header().Set(sessions.Header, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
