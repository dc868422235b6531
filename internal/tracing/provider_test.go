package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/lindt-go/internal/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: false}, nil)
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.TracerProvider())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Stdout(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "stdout"}, &buf)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "lindt.resolve")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "lindt.resolve")
}

func TestNewProvider_None(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "none"}, nil)
	require.NoError(t, err)
	require.True(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	require.Error(t, err)
}
