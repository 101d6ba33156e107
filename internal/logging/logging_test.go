package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activities/internal/config"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Logging
		wantErr bool
	}{
		{name: "json", cfg: config.Logging{Level: "info", Format: "json"}},
		{name: "text", cfg: config.Logging{Level: "debug", Format: "text"}},
		{name: "defaults", cfg: config.Logging{}},
		{name: "bad level", cfg: config.Logging{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.Logging{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewWithWriter(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestJSONOutputHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.Logging{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "activity_id", "a-1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "a-1", record["activity_id"])
	assert.NotEmpty(t, record["time"])
}
