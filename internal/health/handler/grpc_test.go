package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestCheck_NilDependencies(t *testing.T) {
	if err := NewChecker(nil, nil).Check(context.Background()); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestCheck_Failures(t *testing.T) {
	c := NewChecker(&mockPinger{pingErr: errors.New("conn refused")}, &mockPolicyChecker{})
	if err := c.Check(context.Background()); err == nil {
		t.Error("expected database error")
	}
	c = NewChecker(&mockPinger{}, &mockPolicyChecker{healthErr: errors.New("bad policy")})
	if err := c.Check(context.Background()); err == nil {
		t.Error("expected policy error")
	}
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker(&mockPinger{pingErr: errors.New("down")}, nil).Live(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
}

func TestReady(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker(&mockPinger{}, &mockPolicyChecker{}).Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewChecker(&mockPinger{pingErr: errors.New("down")}, nil).Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d, want 503", rec.Code)
	}
}

func TestSync_UpdatesGRPCStatus(t *testing.T) {
	srv := health.NewServer()
	pinger := &mockPinger{pingErr: errors.New("down")}
	c := NewChecker(pinger, nil)

	c.Sync(context.Background(), srv)
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}

	pinger.pingErr = nil
	c.Sync(context.Background(), srv)
	resp, _ = srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}
