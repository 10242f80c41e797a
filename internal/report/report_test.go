package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/models"
)

func sampleRecord() *models.BriefingRecord {
	return &models.BriefingRecord{
		ID:          "r1",
		Date:        "2026-03-02",
		ModelLabel:  "Sonnet <fast>",
		Response:    "## Macro\n\n- **CPI** beat\n\n<script>alert(1)</script>",
		GeneratedAt: time.Date(2026, 3, 2, 14, 5, 0, 0, time.UTC),
	}
}

func TestHTML(t *testing.T) {
	rec := sampleRecord()

	out, err := HTML(rec, "")
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>Market Briefing - 2026-03-02</title>")
	assert.Contains(t, page, "March 2, 2026")
	assert.Contains(t, page, "Model: Sonnet &lt;fast&gt;")
	assert.Contains(t, page, "<h2>Macro</h2>")
	assert.Contains(t, page, "<strong>CPI</strong>")
	assert.NotContains(t, page, "<script>")
	assert.NotContains(t, page, "Modified from template")
	assert.NotContains(t, page, "<details")
}

func TestHTML_ModifiedAndSnapshot(t *testing.T) {
	rec := sampleRecord()
	rec.PromptModified = true

	out, err := HTML(rec, "--- Settings Snapshot ---\nWatchlist: <NVDA>\n")
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<em>Modified from template</em>")
	assert.Contains(t, page, "<summary")
	assert.Contains(t, page, "Watchlist: &lt;NVDA&gt;")
}

func TestPlainTextAndFilename(t *testing.T) {
	rec := sampleRecord()
	assert.Equal(t, rec.Response, PlainText(rec, ""))
	assert.True(t, strings.HasSuffix(PlainText(rec, "snap"), "\n\nsnap"))
	assert.Equal(t, "market-briefing-2026-03-02.html", Filename(rec))
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Heading\n\nSome **bold** text", "light", 60)
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "bold")
}
