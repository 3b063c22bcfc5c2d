package logger //nolint:testpackage // Needs access to setup

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/alkime/assessor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantDebug bool
		wantInfo  bool
	}{
		{name: "development logs debug", cfg: config.Config{Env: "development", LogLevel: "info"}, wantDebug: true, wantInfo: true},
		{name: "production logs info", cfg: config.Config{Env: "production", LogLevel: "info"}, wantDebug: false, wantInfo: true},
		{name: "explicit debug", cfg: config.Config{Env: "production", LogLevel: "debug"}, wantDebug: true, wantInfo: true},
		{name: "explicit warn", cfg: config.Config{Env: "production", LogLevel: "warn"}, wantDebug: false, wantInfo: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := setup(&tt.cfg, &buf)

			l.Debug("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			l.Info("info line")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestSetup_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Env: "production", LogLevel: "info"}, &buf)

	l.Info("started", "port", "8080")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "started", line["msg"])
	assert.Equal(t, "assessor", line["service"])
	assert.Equal(t, "8080", line["port"])
}
