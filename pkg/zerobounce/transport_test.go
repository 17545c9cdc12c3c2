package zerobounce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPTransportReturnsErrorStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "zb-test" {
			t.Errorf("Expected User-Agent zb-test, got %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	transport := NewHTTPTransport("zb-test")
	req := NewRequest(http.MethodGet, server.URL, "getcredits", NewParamSet().Set("api_key", "k"), time.Second, "")

	resp, err := transport.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected a response for 502, got %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway || string(resp.Body) != "bad gateway" {
		t.Errorf("Unexpected response %d %q", resp.StatusCode, resp.Body)
	}
}

func TestHTTPTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	req := NewRequest(http.MethodGet, server.URL, "validate", nil, 20*time.Millisecond, "")
	_, err := NewHTTPTransport("").Send(context.Background(), req)
	if !IsTransportError(err) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
}

func TestHTTPTransportNoServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	req := NewRequest(http.MethodGet, url, "getcredits", nil, time.Second, "")
	if _, err := NewHTTPTransport("").Send(context.Background(), req); !IsTransportError(err) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
}

func TestBuildUploadBodyPreflight(t *testing.T) {
	dir := t.TempDir()

	req := NewRequest(http.MethodPost, "http://unused", "sendfile", nil, time.Second, dir)
	if _, _, err := buildUploadBody(req); !IsTransportError(err) {
		t.Errorf("Expected TransportError for a directory, got %v", err)
	}

	req = NewRequest(http.MethodPost, "http://unused", "sendfile", nil, time.Second, filepath.Join(dir, "nope.csv"))
	if _, _, err := buildUploadBody(req); !IsTransportError(err) {
		t.Errorf("Expected TransportError for a missing file, got %v", err)
	}
}

func TestUploadContentType(t *testing.T) {
	if got := uploadContentType("list.CSV", []byte("a,b\n")); got != "text/csv" {
		t.Errorf("Expected text/csv for .CSV, got %s", got)
	}
	if got := uploadContentType("list.txt", []byte("user@example.com\n")); got != "text/plain" {
		t.Errorf("Expected text/plain for a text list, got %s", got)
	}

	path := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(path, []byte("user@example.com\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	body, contentType, err := buildUploadBody(NewRequest(http.MethodPost, "http://unused", "sendfile",
		NewParamSet().Set("api_key", "k"), time.Second, path))
	if err != nil {
		t.Fatalf("buildUploadBody error: %v", err)
	}
	if body.Len() == 0 || contentType == "" {
		t.Error("Expected multipart body and content type")
	}
}
