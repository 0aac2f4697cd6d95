package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	t.Setenv("DEPLOYMENT_ENV", "staging")

	tc := TracingConfigFromEnv()
	if tc.Endpoint != "collector:4317" || tc.Insecure || tc.SampleRatio != 0.25 || tc.Environment != "staging" {
		t.Errorf("unexpected config: %+v", tc)
	}
}

func TestTracingConfigInvalidRatio(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "2")
	if tc := TracingConfigFromEnv(); tc.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v, want 1", tc.SampleRatio)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing("vod-archive", "test", TracingConfig{})
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	shutdown()
}

func TestStartSpanNoop(t *testing.T) {
	ctx := WithCorrelation(context.Background(), "c1")
	_, span := StartSpan(ctx, "test", "op", HTTPMethodAttr("GET"))
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	SetSpanSuccess(span)
	span.End()
}
