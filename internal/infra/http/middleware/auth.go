package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/covermapio/api/pkg/apierror"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/logger"
)

const viewerKey contextKey = "viewer"

// Viewer is the authenticated user extracted from the bearer token.
type Viewer struct {
	Username string
	Provider string
	Owner    string
	Tier     plan.Tier
}

// IsOwnerPage reports whether the viewer is looking at their own owner
// page on the given provider.
func (v Viewer) IsOwnerPage(provider, owner string) bool {
	return v.Provider == provider && v.Owner == owner
}

// viewerClaims is the JWT claim set issued by the auth frontend.
type viewerClaims struct {
	jwt.RegisteredClaims
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Tier     string `json:"tier"`
}

// GetViewer extracts the viewer from context.
func GetViewer(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(Viewer)
	return v, ok
}

// WithViewer returns a context carrying the viewer.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// Authenticator validates bearer tokens and loads the viewer into the
// request context.
type Authenticator struct {
	secret []byte
	log    *logger.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(secret string, log *logger.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: log}
}

// Middleware requires a valid bearer token on every request it wraps.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				apierror.Unauthorized("").WriteJSON(w)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &viewerClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return a.secret, nil
			})
			if err != nil || !token.Valid {
				a.log.Warn("invalid bearer token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				apierror.Unauthorized("Invalid or expired token").WriteJSON(w)
				return
			}

			viewer := Viewer{
				Username: claims.Subject,
				Provider: claims.Provider,
				Owner:    claims.Owner,
				Tier:     plan.ParseTier(claims.Tier),
			}

			ctx := WithViewer(r.Context(), viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
