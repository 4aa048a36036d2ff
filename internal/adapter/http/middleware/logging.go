package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("HTTP request failed", "method", r.Method, "path", r.URL.Path,
					"status", ww.Status(), "duration", duration.String())
			} else {
				log.Info("HTTP request completed", "method", r.Method, "path", r.URL.Path,
					"status", ww.Status(), "duration", duration.String())
			}
		})
	}
}
