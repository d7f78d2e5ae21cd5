package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBootLogger(t *testing.T) {
	var buf bytes.Buffer
	bootLog := newBootLogger(&buf)
	bootLog.Error().Err(errors.New("missing JWT_SECRET")).Msg("invalid configuration")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "invalid configuration", entry["message"])
	assert.Equal(t, "missing JWT_SECRET", entry["error"])
	assert.Contains(t, entry, "time")
}
