package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authStack(t *testing.T, keys map[string]string) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetOperatorFromContext(r.Context())))
	})
	return APIKeyAuth(keys)(next)
}

func TestAPIKeyAuthResolvesOperator(t *testing.T) {
	h := authStack(t, map[string]string{"key-abc": "op-1"})

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"bearer format", "Bearer key-abc", http.StatusOK, "op-1"},
		{"bare key format", "key-abc", http.StatusOK, "op-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong key", "Bearer nope", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/op-1/subscription", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d", rec.Code, tc.code)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Errorf("operator = %q, want %q", rec.Body.String(), tc.body)
			}
		})
	}
}

func TestAPIKeyAuthSkipsHealth(t *testing.T) {
	h := authStack(t, map[string]string{"key-abc": "op-1"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without a key", rec.Code)
	}
}

func TestGetOperatorFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if op := GetOperatorFromContext(req.Context()); op != "" {
		t.Errorf("operator = %q, want empty without auth", op)
	}
}

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d denied within capacity", i+1)
		}
	}
	if tb.Allow() {
		t.Error("request allowed past capacity")
	}
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.Allow("op-1") {
		t.Fatal("first request for op-1 denied")
	}
	if rl.Allow("op-1") {
		t.Error("op-1 allowed past its bucket")
	}
	if !rl.Allow("op-2") {
		t.Error("op-2 throttled by op-1's bucket")
	}
}
