package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildRequestWithHeaders(t *testing.T) {
	builder, err := NewRequestBuilder("post", "http://example.com/sagas", map[string]string{
		"x-trace-id": "12345",
	})
	if err != nil {
		t.Fatalf("expected builder, got error: %v", err)
	}

	body := []byte(`{"hello":"world"}`)
	req, err := builder.Build(context.Background(), body)
	if err != nil {
		t.Fatalf("expected request, got error: %v", err)
	}

	if req.Method != http.MethodPost {
		t.Fatalf("expected method POST, got %s", req.Method)
	}
	if req.URL.String() != "http://example.com/sagas" {
		t.Fatalf("unexpected URL %s", req.URL.String())
	}
	if req.Header.Get("X-Trace-Id") != "12345" {
		t.Fatalf("expected X-Trace-Id header, got %q", req.Header.Get("X-Trace-Id"))
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("expected JSON content type, got %q", req.Header.Get("Content-Type"))
	}

	got, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("expected body %q, got %q", body, got)
	}
	if req.ContentLength != int64(len(body)) {
		t.Fatalf("expected content length %d, got %d", len(body), req.ContentLength)
	}
}

func TestBuildRequestWithoutBody(t *testing.T) {
	builder, err := NewRequestBuilder("", "http://example.com/sagas", nil)
	if err != nil {
		t.Fatalf("expected builder, got error: %v", err)
	}
	req, err := builder.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected request, got error: %v", err)
	}
	if req.Method != http.MethodGet {
		t.Fatalf("expected GET fallback, got %s", req.Method)
	}
	if req.Header.Get("Content-Type") != "" {
		t.Fatalf("expected no content type on bodyless request")
	}
}

func TestBuildDoesNotShareHeaders(t *testing.T) {
	builder, err := NewRequestBuilder("GET", "http://example.com", map[string]string{"X-A": "1"})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	first, _ := builder.Build(context.Background(), nil)
	first.Header.Set("X-A", "mutated")
	second, _ := builder.Build(context.Background(), nil)
	if second.Header.Get("X-A") != "1" {
		t.Fatalf("header mutation leaked between requests")
	}
}

func TestRequestBuilderRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		headers map[string]string
	}{
		{name: "empty target", target: "  "},
		{name: "empty header key", target: "http://example.com", headers: map[string]string{"": "v"}},
		{name: "newline in key", target: "http://example.com", headers: map[string]string{"Bad\nKey": "v"}},
		{name: "newline in value", target: "http://example.com", headers: map[string]string{"X-Key": "a\r\nb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRequestBuilder("GET", tt.target, tt.headers); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestClientTimeoutApplied(t *testing.T) {
	timeout := 50 * time.Millisecond
	client := NewClient(timeout)
	defer client.CloseIdleConnections()

	if client.Timeout != timeout {
		t.Fatalf("expected client timeout %s, got %s", timeout, client.Timeout)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(timeout * 3)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil {
		t.Fatalf("expected timeout error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			t.Fatalf("expected timeout error, got %v", err)
		}
	}

	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if transport.MaxIdleConns == 0 {
		t.Fatalf("expected transport to allow idle connections")
	}
}

func TestNewClientNegativeTimeoutMeansNone(t *testing.T) {
	if c := NewClient(-time.Second); c.Timeout != 0 {
		t.Fatalf("expected no timeout, got %s", c.Timeout)
	}
}
