package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/app/apiapp"
	"github.com/humapedia/humapedia/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	ts := httptest.NewServer(app.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRoutesAreRegisteredAtRootAndV1(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{
		"/credits", "/v1/credits",
		"/search?q=a", "/v1/search?q=a",
		"/search-history", "/v1/search-history",
	}
	for _, path := range paths {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed {
			t.Fatalf("route %s is not registered: %d", path, resp.StatusCode)
		}
	}
}
