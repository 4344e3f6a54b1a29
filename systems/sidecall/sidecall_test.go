package sidecall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPCallerDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{"price": 42.5})
	}))
	defer server.Close()

	caller := NewHTTPCaller(time.Second)
	var out struct {
		Price float64 `json:"price"`
	}
	if err := caller.Call(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Price != 42.5 {
		t.Fatalf("Price = %v, want 42.5", out.Price)
	}
}

func TestHTTPCallerNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	caller := NewHTTPCaller(time.Second)
	var out map[string]any
	if err := caller.Call(context.Background(), server.URL, &out); err == nil {
		t.Fatal("Call against a 500 response: expected error, got nil")
	}
}

func TestHTTPCallerDefaultTimeout(t *testing.T) {
	caller := NewHTTPCaller(0)
	if caller.client.Timeout != 5*time.Second {
		t.Fatalf("default timeout = %v, want 5s", caller.client.Timeout)
	}
}

func TestNullCallerErrors(t *testing.T) {
	var out map[string]any
	if err := (NullCaller{}).Call(context.Background(), "http://example.invalid", &out); err == nil {
		t.Fatal("NullCaller.Call: expected error, got nil")
	}
}
