package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pathfinder/internal/domain"
	platformstrings "pathfinder/pkg/platform/strings"
)

// RoleClaim is the wire form of one role inside a bearer token. Role
// snapshots are minted by the external admin surface; this middleware only
// decodes them.
type RoleClaim struct {
	Kind        string   `json:"kind"`
	Troop       string   `json:"troop,omitempty"`
	Email       string   `json:"email,omitempty"`
	ScoutEmails []string `json:"scout_emails,omitempty"`
}

// Claims are the JWT claims the tool layer authenticates with.
type Claims struct {
	Email string      `json:"email"`
	Roles []RoleClaim `json:"roles"`
	jwt.RegisteredClaims
}

type contextKeyRoles struct{}
type contextKeyEmail struct{}

// WithIdentity attaches an authenticated identity to the context. The
// middleware uses it after token validation; tests use it to simulate an
// authenticated request without minting tokens.
func WithIdentity(ctx context.Context, email string, roles []domain.Role) context.Context {
	ctx = context.WithValue(ctx, contextKeyRoles{}, roles)
	return context.WithValue(ctx, contextKeyEmail{}, email)
}

// Roles returns the authenticated caller's role snapshot, or nil.
func Roles(ctx context.Context) []domain.Role {
	roles, _ := ctx.Value(contextKeyRoles{}).([]domain.Role)
	return roles
}

// Email returns the authenticated caller's email, or "".
func Email(ctx context.Context) string {
	email, _ := ctx.Value(contextKeyEmail{}).(string)
	return email
}

// Authenticator validates bearer tokens and stores the decoded role snapshot
// on the request context. It authenticates only; authorization is each
// handler's explicit policy check.
type Authenticator struct {
	signingKey []byte
	logger     *slog.Logger
}

func NewAuthenticator(signingKey string, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{signingKey: []byte(signingKey), logger: logger}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := a.validate(token)
		if err != nil {
			a.logger.DebugContext(r.Context(), "token rejected", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := WithIdentity(r.Context(), claims.Email, toRoles(claims.Roles))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return a.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// toRoles decodes role claims into the closed Role variants. Unknown kinds
// are dropped rather than rejected: a stale token must not grant anything,
// but it may still carry roles this build understands.
func toRoles(claims []RoleClaim) []domain.Role {
	var roles []domain.Role
	for _, claim := range claims {
		switch claim.Kind {
		case "superuser":
			roles = append(roles, domain.Superuser{})
		case "admin":
			roles = append(roles, domain.Admin{Troop: claim.Troop})
		case "adult_readonly":
			roles = append(roles, domain.AdultReadonly{Troop: claim.Troop})
		case "guide":
			roles = append(roles, domain.NewGuide(platformstrings.NormalizeEmails(claim.ScoutEmails)...))
		case "scout":
			roles = append(roles, domain.ScoutRole{Email: claim.Email})
		case "test_scout":
			roles = append(roles, domain.TestScoutRole{Email: claim.Email})
		}
	}
	return roles
}
