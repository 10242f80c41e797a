package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/ai"
	"github.com/market-briefing/internal/models"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "Stocks rose on Tuesday", preview("Stocks  rose\non Tuesday", 60))
	assert.Equal(t, "abcdefg...", preview("abcdefghijklmnop", 10))
}

func TestParseProvider(t *testing.T) {
	p, err := parseProvider(" Gemini ")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGemini, p)

	_, err = parseProvider("openai")
	assert.ErrorIs(t, err, ai.ErrUnknownProvider)
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "out.json")
	require.NoError(t, writeOutput(file, "ignored", []byte(`{"a":1}`)))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	require.NoError(t, writeOutput(dir, "market-briefing-history", []byte(`[]`)))
	dated := filepath.Join(dir, "market-briefing-history-"+time.Now().Format("2006-01-02")+".json")
	assert.FileExists(t, dated)
}
