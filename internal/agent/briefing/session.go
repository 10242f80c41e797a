package briefing

import (
	"context"
	"errors"
	"sync"

	"github.com/market-briefing/internal/models"
)

// ErrNoCurrentBriefing is returned when a session action needs a briefing
// and none is open
var ErrNoCurrentBriefing = errors.New("no briefing is open")

// Session tracks the briefing currently on screen. It lives as long as the
// process that owns it; nothing about it is persisted.
type Session struct {
	agent   *Agent
	mu      sync.RWMutex
	current *models.BriefingRecord
}

// NewSession creates an empty session over an agent
func NewSession(agent *Agent) *Session {
	return &Session{agent: agent}
}

// Current returns a copy of the open briefing
func (s *Session) Current() (*models.BriefingRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// Open makes a stored record the current briefing
func (s *Session) Open(record models.BriefingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = record.Clone()
}

// Close forgets the current briefing
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Generate runs a briefing and makes it current, even when saving it to
// history failed
func (s *Session) Generate(ctx context.Context, in Input) (*Result, error) {
	res, err := s.agent.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	s.Open(*res.Record)
	return res, nil
}

// Regenerate re-sends the current briefing's prompt and model
func (s *Session) Regenerate(ctx context.Context) (*Result, error) {
	current, ok := s.Current()
	if !ok {
		return nil, ErrNoCurrentBriefing
	}
	res, err := s.agent.Regenerate(ctx, current)
	if err != nil {
		return nil, err
	}
	s.Open(*res.Record)
	return res, nil
}
