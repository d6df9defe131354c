package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, Options{Endpoint: endpoint, ServiceName: "test-service"})
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatal("all providers should be non-nil")
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be no-op, got %v", err)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("second shutdown: %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(ctx, Options{Endpoint: endpoint}); err == nil {
			t.Errorf("NewProviders(%q) should return error", endpoint)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint     string
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://localhost:4317", "localhost:4317", true},
		{"https://collector:4317", "collector:4317", false},
		{"http://localhost:4317/v1/traces", "localhost:4317", true},
		{"http://localhost:4317?param=value", "localhost:4317", true},
	}
	for _, tt := range tests {
		target, insecure, err := parseEndpoint(tt.endpoint)
		if err != nil {
			t.Errorf("parseEndpoint(%q): %v", tt.endpoint, err)
			continue
		}
		if target != tt.wantTarget {
			t.Errorf("parseEndpoint(%q) target = %q, want %q", tt.endpoint, target, tt.wantTarget)
		}
		if insecure != tt.wantInsecure {
			t.Errorf("parseEndpoint(%q) insecure = %v, want %v", tt.endpoint, insecure, tt.wantInsecure)
		}
	}
}

func TestNewResource_ServiceName(t *testing.T) {
	res, err := newResource("my-custom-service", "test")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "my-custom-service" {
			found = true
		}
	}
	if !found {
		t.Error("service.name attribute missing")
	}
}

func TestSetGlobal_PartialProviders(t *testing.T) {
	ctx := context.Background()
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(ctx) }()

	oldTracer := otel.GetTracerProvider()
	oldMeter := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracer)
		otel.SetMeterProvider(oldMeter)
	}()

	providers := &Providers{TracerProvider: tp, Shutdown: func(context.Context) error { return nil }}
	providers.SetGlobal()

	if otel.GetTracerProvider() != tp {
		t.Error("TracerProvider should be updated")
	}
	if otel.GetMeterProvider() != oldMeter {
		t.Error("MeterProvider should not be updated when nil")
	}
}
