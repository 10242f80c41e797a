// Package report renders briefings for the browser and the terminal.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/prompt"
)

// TimeLayout formats the generation time in report headers
const TimeLayout = "3:04 PM"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = template.Must(template.New("briefing").Parse(`<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1.0"><title>Market Briefing - {{.Record.Date}}</title><style>body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;max-width:800px;margin:0 auto;padding:24px;color:#1a1a2e;line-height:1.7}h1{font-size:1.3rem;border-bottom:2px solid #e2e5ea;padding-bottom:8px}h2{font-size:1.05rem;margin-top:20px;text-transform:uppercase;letter-spacing:0.5px;border-bottom:1px solid #e2e5ea;padding-bottom:4px}.meta{color:#666;font-size:0.85rem;margin-bottom:16px}ul{margin:8px 0 12px 20px}li{margin-bottom:4px}hr{border:none;border-top:1px solid #e2e5ea;margin:16px 0}strong{color:#1a1a2e}table{border-collapse:collapse;margin:8px 0}th,td{border:1px solid #e2e5ea;padding:4px 8px}</style></head><body><h1>Market Briefing &mdash; {{.LongDate}}</h1><div class="meta">Model: {{.Record.ModelLabel}} | Generated: {{.Generated}}{{if .Record.PromptModified}} | <em>Modified from template</em>{{end}}</div>{{.Body}}{{if .Snapshot}}<details style="margin-top:24px;padding:16px;background:#f9fafb;border:1px solid #e2e5ea;border-radius:6px"><summary style="cursor:pointer;font-weight:600;font-size:14px">Settings Snapshot</summary><pre style="margin-top:12px;white-space:pre-wrap;font-size:13px">{{.Snapshot}}</pre></details>{{end}}</body></html>`))

type pageData struct {
	Record    *models.BriefingRecord
	LongDate  string
	Generated string
	Body      template.HTML
	Snapshot  string
}

// HTML renders a self-contained page for a record. The snapshot block is
// included when snapshot is non-empty.
func HTML(record *models.BriefingRecord, snapshot string) ([]byte, error) {
	body, err := MarkdownHTML(record.Response)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, pageData{
		Record:    record,
		LongDate:  record.Day().Format(prompt.LongDateLayout),
		Generated: record.GeneratedAt.Local().Format(TimeLayout),
		Body:      body,
		Snapshot:  snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// MarkdownHTML converts briefing markdown to HTML. Raw HTML in the
// source is not passed through.
func MarkdownHTML(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Filename is the suggested file name for a record's HTML report
func Filename(record *models.BriefingRecord) string {
	return "market-briefing-" + record.Date + ".html"
}

// PlainText is the response followed by the snapshot, as copied to the clipboard
func PlainText(record *models.BriefingRecord, snapshot string) string {
	if snapshot == "" {
		return record.Response
	}
	return record.Response + "\n\n" + snapshot
}

// Terminal renders markdown for display in a terminal. The light theme uses
// the light glamour style; anything else detects the background.
func Terminal(text, themeID string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if strings.EqualFold(themeID, "light") {
		style = glamour.WithStylePath("light")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
