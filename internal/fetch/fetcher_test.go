package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"shopatlas/internal/config"
)

func testPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    0,
		MaxDelayMs:        0,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request missing User-Agent header")
		}

		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewWithPolicy(testPolicy())

	content, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if content != "<html>ok</html>" {
		t.Errorf("content = %q", content)
	}
}

func TestFetcher_Fetch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := NewWithPolicy(testPolicy())

	content, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed after retries: %v", err)
	}

	if content != "recovered" {
		t.Errorf("content = %q", content)
	}

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetcher_Fetch_NoRetryOnPermanentStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewWithPolicy(testPolicy())

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("err = %v, want ErrUnexpectedStatusCode", err)
	}

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (404 is not retryable)", calls.Load())
	}
}

func TestFetcher_FetchAny_Failover(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("backup"))
	}))
	defer good.Close()

	f := NewWithPolicy(testPolicy())

	content, err := f.FetchAny(context.Background(), []string{bad.URL, good.URL})
	if err != nil {
		t.Fatalf("FetchAny failed: %v", err)
	}

	if content != "backup" {
		t.Errorf("content = %q", content)
	}
}

func TestFetcher_FetchAny_AllFail(t *testing.T) {
	f := NewWithPolicy(testPolicy())

	_, err := f.FetchAny(context.Background(), []string{""})
	if !errors.Is(err, ErrAllURLsFailed) {
		t.Fatalf("err = %v, want ErrAllURLsFailed", err)
	}
}

func TestFetcher_ReadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<html/>"), 0644); err != nil {
		t.Fatal(err)
	}

	f := New()

	content, err := f.ReadLocalFile(path)
	if err != nil {
		t.Fatalf("ReadLocalFile failed: %v", err)
	}

	if content != "<html/>" {
		t.Errorf("content = %q", content)
	}

	if _, err := f.ReadLocalFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ReadLocalFile on missing file succeeded, want error")
	}
}
