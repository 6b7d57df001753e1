package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	if c.cfg.HTTPClient == nil {
		t.Fatal("expected non-nil HTTP client")
	}
	if c.cfg.Endpoint != DefaultEndpoint || c.cfg.Model != DefaultModel {
		t.Errorf("cfg = %+v", c.cfg)
	}
	if c.cfg.MaxTokens != 300 || c.cfg.Temperature != 0.7 {
		t.Errorf("MaxTokens = %d, Temperature = %v", c.cfg.MaxTokens, c.cfg.Temperature)
	}
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "test-model" || req.MaxTokens != 300 {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "describe" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  I need help.  "}}]}`))
	}))
	defer server.Close()

	c := New(Config{Endpoint: server.URL, APIKey: "sk-test", Model: "test-model"})
	got, err := c.Complete(context.Background(), "be brief", "describe")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "I need help." {
		t.Errorf("Complete() = %q", got)
	}
}

func TestClient_CompleteValidation(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatalf("round trip should not execute for validation failure: %v", req.URL)
			return nil, nil
		}),
	}

	tests := []struct {
		name   string
		apiKey string
		user   string
	}{
		{"missing api key", "", "prompt"},
		{"missing prompt", "sk", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{APIKey: tt.apiKey, HTTPClient: httpClient})
			if _, err := c.Complete(context.Background(), "", tt.user); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_CompleteStatus(t *testing.T) {
	tests := []struct {
		status        int
		wantTemporary bool
	}{
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			httpClient := &http.Client{
				Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: tt.status,
						Header:     make(http.Header),
						Body:       io.NopCloser(strings.NewReader(`{"error":"nope"}`)),
					}, nil
				}),
			}
			c := New(Config{APIKey: "sk-secret", HTTPClient: httpClient})

			_, err := c.Complete(context.Background(), "", "prompt")
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			if se.StatusCode != tt.status || se.Temporary() != tt.wantTemporary {
				t.Errorf("StatusError = %+v, Temporary() = %v", se, se.Temporary())
			}
			if strings.Contains(err.Error(), "sk-secret") {
				t.Error("error leaks api key")
			}
		})
	}
}

func TestClient_CompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := New(Config{Endpoint: server.URL, APIKey: "sk"}).Complete(context.Background(), "", "p")
	if !errors.Is(err, ErrNoChoices) {
		t.Errorf("Complete() error = %v, want ErrNoChoices", err)
	}
}
