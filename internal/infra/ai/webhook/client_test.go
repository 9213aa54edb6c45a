package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/adityarama/tutorlens/internal/domain/jobs"
)

func urlForAll(url string) func(domain.Type) string {
	return func(domain.Type) string { return url }
}

func TestDispatchSuccess(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"output":"{\"general_performance\":\"good\"}"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(urlForAll(srv.URL), time.Second)
	raw, err := c.Dispatch(context.Background(), domain.TypeReport, map[string]any{
		"job_id": "j1", "student_id": "st-1",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatal("raw response not JSON")
	}
	if gotBody["student_id"] != "st-1" {
		t.Errorf("request body = %v, want student_id forwarded", gotBody)
	}
}

func TestDispatchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(urlForAll(srv.URL), time.Second)
	_, err := c.Dispatch(context.Background(), domain.TypeReport, nil)

	var de *domain.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if de.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", de.StatusCode)
	}
	if de.Type != domain.TypeReport {
		t.Errorf("type = %s, want report", de.Type)
	}
}

// TestDispatchInvalidOuterJSON: a 200 whose body is not JSON at all is
// a transport failure. (A JSON envelope wrapping garbage text is not —
// that case is the normalizer's to absorb.)
func TestDispatchInvalidOuterJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(urlForAll(srv.URL), time.Second)
	_, err := c.Dispatch(context.Background(), domain.TypeReport, nil)

	var de *domain.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
}

func TestDispatchTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	c := NewClient(urlForAll(srv.URL), 50*time.Millisecond)
	_, err := c.Dispatch(context.Background(), domain.TypeReport, nil)

	var de *domain.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
}

func TestDispatchNoURLConfigured(t *testing.T) {
	c := NewClient(func(domain.Type) string { return "" }, time.Second)
	_, err := c.Dispatch(context.Background(), domain.TypeCorrection, nil)

	var de *domain.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
}
