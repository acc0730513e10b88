package exporters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTLPConfig_endpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost:4317", "localhost:4317"},
		{"http://collector:4318/", "collector:4318"},
		{"https://otel.example.com:443", "otel.example.com:443"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OTLPConfig{Endpoint: tt.in}.endpoint())
	}
}

func TestNewOTLPExporter(t *testing.T) {
	ctx := context.Background()

	for _, protocol := range []string{ProtocolGRPC, ProtocolHTTP} {
		cfg := DefaultOTLPConfig()
		cfg.Protocol = protocol
		exp, err := NewOTLPExporter(ctx, cfg)
		require.NoError(t, err, protocol)
		_ = exp.Shutdown(ctx)
	}

	_, err := NewOTLPExporter(ctx, OTLPConfig{Protocol: "carrier-pigeon"})
	assert.Error(t, err)
}
