package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docsections/internal/config"
)

func TestNewLogger_SameStreamForEveryFormat(t *testing.T) {
	cfg := config.Default()

	var buf bytes.Buffer
	cfg.LogFormat = "json"
	newLogger(cfg, &buf).Info("processed collection", "documents", 3)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "processed collection", line["msg"])

	buf.Reset()
	cfg.LogFormat = "text"
	newLogger(cfg, &buf).Info("processed collection", "documents", 3)
	assert.Contains(t, buf.String(), "msg=\"processed collection\" documents=3")
}

func TestNewLogger_Level(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	log := newLogger(cfg, &buf)
	log.Info("dropped")
	assert.Empty(t, buf.String())
	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
