package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClient_Rate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cambio/USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"currency":"USD","rate":"5.43"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	rate, err := c.Rate(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("5.43")) {
		t.Errorf("rate = %s, want 5.43", rate)
	}
}

func TestClient_Rate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL)
			if _, err := c.Rate(context.Background(), "USD"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestClient_Rate_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.Rate(context.Background(), "USD"); err == nil {
		t.Error("expected an error for an unreachable service")
	}
}
