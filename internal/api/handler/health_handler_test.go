package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewReadinessHandler(DependencyCheck{Name: "mongodb", Ping: func(context.Context) error { return nil }})
	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_Degraded(t *testing.T) {
	h := NewReadinessHandler(
		DependencyCheck{Name: "mongodb", Ping: func(context.Context) error { return nil }},
		DependencyCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)
	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp := decode(t, rec.Body.Bytes())
	deps := resp["dependencies"].(map[string]any)
	if deps["redis"].(map[string]any)["status"] != "unhealthy" || deps["mongodb"].(map[string]any)["status"] != "ok" {
		t.Fatalf("unexpected payload %v", resp)
	}
}

func TestReadiness_NoChecks(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)
	if err := NewReadinessHandler().Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
