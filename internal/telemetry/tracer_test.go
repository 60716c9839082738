// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/ManuGH/appsettings/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	require.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProviderInvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "zipkin"})
	require.Error(t, err)
	assert.EqualError(t, err, `telemetry: unknown exporter "zipkin" (want grpc or http)`)
}

func TestNewProviderHTTPExporter(t *testing.T) {
	// The exporter connects lazily, so no collector is needed.
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "appsettings-test",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:4318",
		SamplingRate: 0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, p.tp)
	_ = p.Shutdown(context.Background())
	otel.SetTracerProvider(noop.NewTracerProvider())
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Defaults().Telemetry, "appsettings", "1.0.0")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "grpc", cfg.ExporterType)
	assert.Equal(t, "appsettings", cfg.ServiceName)
	assert.Equal(t, "1.0.0", cfg.ServiceVersion)
	assert.Equal(t, 1.0, cfg.SamplingRate)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestRecordError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, nil, "ignored")
	RecordError(span, errors.New("boom"), "store")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(ErrorTypeKey, "store"))
	require.Len(t, spans[0].Events(), 1)
}

func TestSettingAttributesOmitEmpty(t *testing.T) {
	assert.Len(t, SettingAttributes("", ""), 0)
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(SettingPathKey, "Debug/EnableVSync"),
		attribute.String(SettingKindKey, "bool"),
	}, SettingAttributes("Debug/EnableVSync", "bool"))
	assert.Len(t, StoreAttributes("file", 3), 2)
}
