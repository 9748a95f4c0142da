package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, retries int) *Client {
	t.Helper()
	c, err := NewClient(Options{
		Timeout:         2 * time.Second,
		RequestsPerSec:  1000,
		Burst:           10,
		MaxRetries:      retries,
		InitialBackoff:  time.Millisecond,
		MaxRetryTimeout: 2 * time.Second,
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	if err := testClient(t, 5).GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("expected 42, got %d", out.Value)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGetJSON_ClientErrorIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "no such symbol", http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient(t, 5).GetJSON(context.Background(), srv.URL+"/x?apikey=secret", nil, &out)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Error("IsStatus should match 404")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("api key leaked into error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestGetJSON_GivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient(t, 2).GetJSON(context.Background(), srv.URL, nil, &out)
	if !IsStatus(err, http.StatusTooManyRequests) {
		t.Fatalf("expected 429, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 1 try + 2 retries, got %d", got)
	}
}

func TestGetJSON_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	var out map[string]any
	if err := testClient(t, 0).GetJSON(context.Background(), srv.URL, nil, &out); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewClient_BadProxy(t *testing.T) {
	if _, err := NewClient(Options{ProxyURL: "://bad"}); err == nil {
		t.Fatal("expected proxy parse error")
	}
}
