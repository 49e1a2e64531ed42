package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPLocatorParsesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":51.5074,"lon":-0.1278}`))
	}))
	defer server.Close()

	locator := NewHTTPLocator(server.URL)
	pos, err := locator.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Lat != 51.5074 || pos.Lon != -0.1278 {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestHTTPLocatorReportsServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer server.Close()

	locator := NewHTTPLocator(server.URL)
	_, err := locator.Locate(context.Background())
	if err == nil {
		t.Fatal("expected error for fail status")
	}
	if !strings.Contains(err.Error(), "private range") {
		t.Fatalf("error does not carry service message: %v", err)
	}
}

func TestHTTPLocatorReportsBadStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	locator := NewHTTPLocator(server.URL)
	if _, err := locator.Locate(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHTTPLocatorReportsInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	locator := NewHTTPLocator(server.URL)
	if _, err := locator.Locate(context.Background()); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestStubLocatorHonoursCancellation(t *testing.T) {
	locator := NewStubLocator(Position{Lat: 1, Lon: 2})
	locator.Delay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locator.Locate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
