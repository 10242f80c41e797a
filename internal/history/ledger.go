// Package history keeps the ordered ledger of generated briefings.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
)

var (
	// ErrImportFormat indicates imported history is not a JSON array of records.
	ErrImportFormat = errors.New("invalid history import format")

	// ErrNotFound indicates a record id is not in the ledger.
	ErrNotFound = errors.New("briefing not found")
)

// Store persists the record list
type Store interface {
	LoadHistory(ctx context.Context) ([]models.BriefingRecord, error)
	SaveHistory(ctx context.Context, records []models.BriefingRecord) error
}

// Ledger is the most-recent-first list of briefing records. Each mutation
// is a full read-modify-write of the stored list, serialized by mu.
type Ledger struct {
	store Store
	mu    sync.Mutex
	log   *logger.Logger
}

// Comparison is a pair of records shown side by side
type Comparison struct {
	Left  models.BriefingRecord
	Right models.BriefingRecord
}

// NewLedger creates a ledger over a store
func NewLedger(store Store, log *logger.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   log.WithComponent("history"),
	}
}

// List returns all records, newest first
func (l *Ledger) List(ctx context.Context) ([]models.BriefingRecord, error) {
	return l.store.LoadHistory(ctx)
}

// Append prepends a record and persists the ledger
func (l *Ledger) Append(ctx context.Context, record models.BriefingRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.LoadHistory(ctx)
	if err != nil {
		return err
	}
	records = append([]models.BriefingRecord{record}, records...)
	if err := l.store.SaveHistory(ctx, records); err != nil {
		return fmt.Errorf("failed to append briefing %s: %w", record.ID, err)
	}

	l.log.WithRecordID(record.ID).Info().
		Str("model", record.ModelID).
		Int("total", len(records)).
		Msg("Briefing appended to history")
	return nil
}

// Search matches term case-insensitively against the response text, the
// date and the model label. An empty term returns everything.
func (l *Ledger) Search(ctx context.Context, term string) ([]models.BriefingRecord, error) {
	records, err := l.store.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records, nil
	}

	var out []models.BriefingRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Response), term) ||
			strings.Contains(strings.ToLower(r.Date), term) ||
			strings.Contains(strings.ToLower(r.ModelLabel), term) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns one record by id
func (l *Ledger) Get(ctx context.Context, id string) (*models.BriefingRecord, error) {
	records, err := l.store.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(records, func(r models.BriefingRecord) bool { return r.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &records[i], nil
}

// Compare looks up two records for side-by-side display
func (l *Ledger) Compare(ctx context.Context, idA, idB string) (*Comparison, error) {
	left, err := l.Get(ctx, idA)
	if err != nil {
		return nil, err
	}
	right, err := l.Get(ctx, idB)
	if err != nil {
		return nil, err
	}
	return &Comparison{Left: *left, Right: *right}, nil
}

// Delete removes the given ids and returns how many were removed
func (l *Ledger) Delete(ctx context.Context, ids ...string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.LoadHistory(ctx)
	if err != nil {
		return 0, err
	}
	kept := slices.DeleteFunc(slices.Clone(records), func(r models.BriefingRecord) bool {
		return slices.Contains(ids, r.ID)
	})
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := l.store.SaveHistory(ctx, kept); err != nil {
		return 0, err
	}
	l.log.Info().Int("removed", removed).Msg("Briefings deleted")
	return removed, nil
}

// Clear empties the ledger
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SaveHistory(ctx, nil); err != nil {
		return err
	}
	l.log.Warn().Msg("History cleared")
	return nil
}

// Replace overwrites the ledger with records, as restoring a backup does
func (l *Ledger) Replace(ctx context.Context, records []models.BriefingRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SaveHistory(ctx, records); err != nil {
		return err
	}
	l.log.Info().Int("total", len(records)).Msg("History replaced")
	return nil
}

// Export returns the ledger as an indented JSON array
func (l *Ledger) Export(ctx context.Context) ([]byte, error) {
	records, err := l.store.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.BriefingRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// ImportMerge parses a JSON array of records and merges it into the ledger.
// Anything else fails with ErrImportFormat and leaves the ledger untouched.
func (l *Ledger) ImportMerge(ctx context.Context, raw []byte) (int, error) {
	records, err := ParseRecords(raw)
	if err != nil {
		return 0, err
	}
	return l.Merge(ctx, records)
}

// Merge adds records whose non-empty id is not yet present and re-sorts the
// union newest first. It returns the number of records added.
func (l *Ledger) Merge(ctx context.Context, incoming []models.BriefingRecord) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.LoadHistory(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.ID] = true
	}

	added := 0
	for _, r := range incoming {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	slices.SortStableFunc(records, func(a, b models.BriefingRecord) int {
		return b.GeneratedAt.Compare(a.GeneratedAt)
	})

	if err := l.store.SaveHistory(ctx, records); err != nil {
		return 0, err
	}
	l.log.Info().Int("added", added).Int("total", len(records)).Msg("History imported")
	return added, nil
}

// ParseRecords decodes a JSON array of record objects
func ParseRecords(raw []byte) ([]models.BriefingRecord, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array: %v", ErrImportFormat, err)
	}
	records := make([]models.BriefingRecord, 0, len(items))
	for i, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrImportFormat, i)
		}
		var r models.BriefingRecord
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrImportFormat, i, err)
		}
		records = append(records, r)
	}
	return records, nil
}
