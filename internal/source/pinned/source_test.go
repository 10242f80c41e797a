package pinned

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/source"
	"github.com/market-briefing/pkg/logger"
)

func TestFetch_DropsBlankTitles(t *testing.T) {
	src := New([]string{"  FOMC decision at 2pm ", "", "   "}, logger.Nop())
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return at }

	headlines, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, headlines, 1)
	assert.Equal(t, "FOMC decision at 2pm", headlines[0].Title)
	assert.Equal(t, "Pinned", headlines[0].FeedName)
	assert.Equal(t, at, headlines[0].PublishedAt)
}

func TestManager_PinnedSortsFirst(t *testing.T) {
	m := source.NewManager(2)
	m.Register(New([]string{"CPI at 8:30"}, logger.Nop()))

	headlines, errs := m.FetchAll(context.Background())
	assert.Empty(t, errs)
	require.Len(t, headlines, 1)
	assert.Equal(t, "CPI at 8:30", headlines[0].Title)
}
