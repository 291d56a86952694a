package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"spacehub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func authConfig() *config.APIConfig {
	return &config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{
				{Key: "front-desk", Extra: "desk-secret", Name: "front desk", Permissions: []string{permReadAvailability, permReadPricing}},
				{Key: "admin", Extra: "admin-secret", Name: "back office"},
			},
		},
	}
}

func TestRequiredPermissionHTTP(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/spaces/3/availability", permReadAvailability},
		{http.MethodGet, "/api/v1/spaces/3/slots", permReadAvailability},
		{http.MethodGet, "/api/v1/spaces/3/price", permReadPricing},
		{http.MethodPost, "/api/v1/promo-codes/validate", permReadPricing},
		{http.MethodPost, "/api/v1/bookings", permWrite},
		{http.MethodDelete, "/api/v1/promo-codes/4", permWrite},
		{http.MethodGet, "/api/v1/bookings/4", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			assert.Equal(t, tt.want, requiredPermissionHTTP(r))
		})
	}
}

func TestAuthWrap(t *testing.T) {
	auth := NewAuth(authConfig())
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := auth.Wrap(ok)

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		extra  string
		want   int
	}{
		{"no credentials", http.MethodGet, "/api/v1/spaces/1/slots", "", "", http.StatusUnauthorized},
		{"unknown key", http.MethodGet, "/api/v1/spaces/1/slots", "nobody", "x", http.StatusUnauthorized},
		{"wrong extra", http.MethodGet, "/api/v1/spaces/1/slots", "front-desk", "nope", http.StatusUnauthorized},
		{"read allowed", http.MethodGet, "/api/v1/spaces/1/slots", "front-desk", "desk-secret", http.StatusNoContent},
		{"write denied", http.MethodPost, "/api/v1/bookings", "front-desk", "desk-secret", http.StatusForbidden},
		{"admin writes", http.MethodPost, "/api/v1/bookings", "admin", "admin-secret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				r.Header.Set("X-API-Key", tt.key)
				r.Header.Set("X-API-Extra", tt.extra)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthWrapDisabled(t *testing.T) {
	auth := NewAuth(&config.APIConfig{Enabled: false})
	h := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthWrapRateLimit(t *testing.T) {
	cfg := authConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	h := NewAuth(cfg).Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	call := func(key, extra string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/1", nil)
		r.Header.Set("X-API-Key", key)
		r.Header.Set("X-API-Extra", extra)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("admin", "admin-secret"))
	assert.Equal(t, http.StatusNoContent, call("admin", "admin-secret"))
	assert.Equal(t, http.StatusTooManyRequests, call("admin", "admin-secret"))
	// у другого ключа свой бюджет
	assert.Equal(t, http.StatusNoContent, call("front-desk", "desk-secret"))
}

func TestRouterAuthSkipsProbes(t *testing.T) {
	env := newAPIEnv(t, authConfig())

	resp := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/spaces", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/v1/spaces", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "admin")
	req.Header.Set("X-API-Extra", "admin-secret")
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
}

func TestAuthUnary(t *testing.T) {
	cfg := authConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 1}
	interceptor := NewAuth(cfg).Unary()
	handler := func(context.Context, any) (any, error) { return "ok", nil }

	call := func(method string, kv ...string) error {
		ctx := context.Background()
		if len(kv) > 0 {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(kv...))
		}
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
		return err
	}

	err := call(methodCheckAvailability)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = call(methodCheckAvailability, "x-api-key", "front-desk", "x-api-extra", "bad")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = call(methodCheckAvailability, "x-api-key", "front-desk", "x-api-extra", "desk-secret")
	assert.NoError(t, err)

	err = call(methodCheckAvailability, "x-api-key", "front-desk", "x-api-extra", "desk-secret")
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	limited := NewAuth(&config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "slots-only", Extra: "e", Permissions: []string{permReadAvailability}}},
		},
	}).Unary()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "slots-only", "x-api-extra", "e"))
	_, err = limited(ctx, nil, &grpc.UnaryServerInfo{FullMethod: methodCalculatePrice}, handler)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
