package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"couture-be/internal/auth"
	"couture-be/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(subject, role string) Claims {
	return Claims{
		Role:     role,
		Currency: "eur",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuth(t *testing.T) {
	var got auth.Principal
	var found bool
	var actorID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.PrincipalFromContext(r.Context())
		actorID = logger.ActorIDFrom(r.Context())
	})
	handler := Auth(testSecret)(next)

	serve := func(header string) {
		got, found, actorID = auth.Principal{}, false, ""
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	t.Run("valid token", func(t *testing.T) {
		serve("Bearer " + signToken(t, validClaims("designer-7", "designer"), jwt.SigningMethodHS256, testSecret))

		require.True(t, found)
		assert.Equal(t, "designer-7", got.ID)
		assert.Equal(t, auth.RoleDesigner, got.Role)
		assert.Equal(t, "eur", got.PreferredCurrency)
		assert.Equal(t, "designer-7", actorID)
	})

	t.Run("no token is anonymous", func(t *testing.T) {
		serve("")
		assert.False(t, found)
	})

	t.Run("wrong secret", func(t *testing.T) {
		serve("Bearer " + signToken(t, validClaims("c1", "customer"), jwt.SigningMethodHS256, []byte("other")))
		assert.False(t, found)
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims("c1", "customer")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		serve("Bearer " + signToken(t, claims, jwt.SigningMethodHS256, testSecret))
		assert.False(t, found)
	})

	t.Run("unknown role", func(t *testing.T) {
		serve("Bearer " + signToken(t, validClaims("c1", "root"), jwt.SigningMethodHS256, testSecret))
		assert.False(t, found)
	})

	t.Run("other signing method", func(t *testing.T) {
		serve("Bearer " + signToken(t, validClaims("c1", "admin"), jwt.SigningMethodHS512, testSecret))
		assert.False(t, found)
	})
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit("internal-key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("strict tier on checkout", func(t *testing.T) {
		codes := map[int]int{}
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/cart/checkout", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes[w.Code]++
		}
		assert.Equal(t, burstStrict, codes[http.StatusOK])
		assert.Equal(t, 1, codes[http.StatusTooManyRequests])
	})

	t.Run("principal keyed separately", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/checkout", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{ID: "c-42", Role: auth.RoleCustomer}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestResolveRateTier(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   string
	}{
		{"internal", http.MethodGet, "/orders", map[string]string{"X-Service-Auth": "k"}, "internal"},
		{"checkout", http.MethodPost, "/cart/checkout", nil, "strict"},
		{"frontend", http.MethodGet, "/cart", map[string]string{"X-Client-Type": "frontend-heavy"}, "frontend"},
		{"default", http.MethodGet, "/orders", nil, "general"},
		{"wrong internal key", http.MethodGet, "/orders", map[string]string{"X-Service-Auth": "nope"}, "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			_, _, tier := resolveRateTier(req, "k")
			assert.Equal(t, tt.want, tier)
		})
	}
}
