package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

type actorKey struct{}

// Claims are the bearer token claims this service reads. Tokens are issued
// by the account subsystem.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig configures bearer verification.
type AuthConfig struct {
	Secret []byte // HS256 key
	Issuer string // expected "iss" when non-empty
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor, or nil for anonymous requests.
func ActorFrom(ctx context.Context) *domain.Actor {
	actor, ok := ctx.Value(actorKey{}).(*domain.Actor)
	if !ok {
		return nil
	}
	return actor
}

// Authenticate verifies an optional bearer token. Requests without an
// Authorization header pass through anonymously; a present but invalid
// token is rejected with 401.
func Authenticate(cfg AuthConfig, log logger.Logger) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.Secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := bearerToken(header)
			if !ok {
				unauthorized(w, "malformed authorization header")
				return
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(tokenString, claims, keyFunc); err != nil {
				log.Debug("rejected bearer token", logger.Error(err))
				unauthorized(w, "invalid token")
				return
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				log.Debug("rejected bearer token", logger.Error(err))
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireActor rejects anonymous requests with 401.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFrom(r.Context()) == nil {
			unauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actorFromClaims(c *Claims) (*domain.Actor, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	role := domain.Role(c.Role)
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleAdmin, domain.RoleSuperAdmin:
	default:
		return nil, errors.New("token has an unknown role")
	}
	return &domain.Actor{ID: c.Subject, Role: role}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}
