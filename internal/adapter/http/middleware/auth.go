package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

type viewerCtxKeyType string

const viewerCtxKey viewerCtxKeyType = "viewer"

// Claims is the token payload issued by the identity service. Role
// derivation happens there; this service only reads the resulting
// is_moderator flag.
type Claims struct {
	UserID      string `json:"user_id"`
	IsModerator bool   `json:"is_moderator"`
	jwt.RegisteredClaims
}

// JWTAuth derives the Viewer for the request. Requests without an
// Authorization header proceed as anonymous; the handlers decide which
// operations require authentication. A present but invalid token is
// rejected outright.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), domain.AnonymousViewer())))
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("JWTAuth: invalid Authorization header format", "path", r.URL.Path)
				http.Error(w, "authorization header format must be 'Bearer <token>'", http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.Warn("JWTAuth: token validation failed", "path", r.URL.Path, "error", err)
				http.Error(w, "token is invalid", http.StatusUnauthorized)
				return
			}
			if claims.UserID == "" {
				log.Warn("JWTAuth: token valid but user_id claim missing", "path", r.URL.Path)
				http.Error(w, "token is invalid", http.StatusUnauthorized)
				return
			}

			viewer := domain.Viewer{ID: claims.UserID, Role: domain.RoleUser}
			if claims.IsModerator {
				viewer.Role = domain.RoleModerator
			}
			log.Debug("JWTAuth: viewer authenticated", "user_id", viewer.ID, "role", string(viewer.Role))
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey, v)
}

// ViewerFromContext returns the viewer derived by JWTAuth, anonymous
// when the middleware did not run.
func ViewerFromContext(ctx context.Context) domain.Viewer {
	if v, ok := ctx.Value(viewerCtxKey).(domain.Viewer); ok {
		return v
	}
	return domain.AnonymousViewer()
}
