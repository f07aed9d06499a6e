package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewDefaultsToInfo(t *testing.T) {
	l, err := New(&Config{Output: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.Level())
}

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").Component("reducer")

	l.Warn("blob unreadable",
		String("blob", "status.json"),
		Int("attempt", 2),
		Float64("price", 101.5),
		Bool("fatal", false),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "reducer", got["component"])
	assert.Equal(t, "status.json", got["blob"])
	assert.Equal(t, float64(2), got["attempt"])
	assert.Equal(t, 101.5, got["price"])
	assert.Equal(t, false, got["fatal"])
	assert.Equal(t, "boom", got["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Error("shown")
	assert.NotZero(t, buf.Len())
}

func TestNopDiscards(t *testing.T) {
	l := Nop().With(String("k", "v"))
	l.Error("nothing happens")
}
