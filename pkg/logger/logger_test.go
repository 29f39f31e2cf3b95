package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	rawslog "log/slog"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testLogJSON struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	Key   string `json:"somekey"`
}

func TestSlogHandler(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})

	// level needs to be set to debug to log all
	handler := rawslog.NewJSONHandler(buffer, &rawslog.HandlerOptions{Level: rawslog.LevelDebug})
	log := New(handler)

	methods := map[string]func(msg string, args ...any){
		"ERROR": log.Error,
		"WARN":  log.Warn,
		"INFO":  log.Info,
		"DEBUG": log.Debug,
	}

	for level, fn := range methods {
		buffer.Reset()
		fn("test log value", "somekey", "someval")

		var entry testLogJSON
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
		require.Equal(t, level, entry.Level)
		require.Equal(t, "test log value", entry.Msg)
		require.Equal(t, "someval", entry.Key)
	}
}

func TestZerologHandler(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})
	log := NewZerolog(zerolog.New(buffer))

	log.Warn("test log value", "somekey", "someval")

	var entry struct {
		Level string `json:"level"`
		Msg   string `json:"message"`
		Key   string `json:"somekey"`
	}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	require.Equal(t, "warn", entry.Level)
	require.Equal(t, "test log value", entry.Msg)
	require.Equal(t, "someval", entry.Key)
}
