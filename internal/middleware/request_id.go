package middleware

import (
	"net/http"

	"github.com/S1riyS/vaultfs/pkg/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request context with an id, taken from the
// X-Request-ID header when the caller sent one, and echoes it back.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := logging.GetRequestIDFromCtx(ctx)
		if requestID == "" {
			requestID = r.Header.Get(requestIDHeader)
		}

		if requestID == "" {
			ctx = logging.MakeContextWithNewRequestID(ctx)
		} else {
			ctx = logging.MakeContextWithRequestID(ctx, requestID)
		}

		w.Header().Set(requestIDHeader, logging.GetRequestIDFromCtx(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
