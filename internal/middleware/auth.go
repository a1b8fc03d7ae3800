package middleware

import (
	"net/http"

	"couture-be/internal/auth"
	"couture-be/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload minted by the identity service.
type Claims struct {
	Role     string `json:"role"`
	Currency string `json:"currency,omitempty"`
	jwt.RegisteredClaims
}

// Auth resolves the bearer token into an auth.Principal. Requests without a
// valid token continue anonymously; handlers decide whether that is allowed.
func Auth(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" || len(secret) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				next.ServeHTTP(w, r)
				return
			}

			role, ok := auth.ParseRole(claims.Role)
			if !ok || claims.Subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{
				ID:                claims.Subject,
				Role:              role,
				PreferredCurrency: claims.Currency,
			})
			ctx = logger.WithActorID(ctx, claims.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
