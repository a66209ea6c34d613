// Package session owns per-conversation state and its transition rules.
// The Manager is the only code that mutates a Session. Persistence is
// best-effort through an injected SessionStore: store failures are logged
// and ignored, and the in-memory session stays authoritative for the
// current process.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/storage"
)

// DefaultMaxQuestions is how many interview questions are asked before
// recommendations start, unless filters complete earlier.
const DefaultMaxQuestions = 3

// Manager is the session state machine.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	store    storage.SessionStore
	logger   *slog.Logger
}

// NewManager creates a Manager. store may be nil to run without persistence.
func NewManager(store storage.SessionStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*domain.Session),
		store:    store,
		logger:   logger,
	}
}

// Get returns the session for id, creating it lazily. On a memory miss the
// store is consulted first; a store failure falls back to a fresh session.
func (m *Manager) Get(ctx context.Context, id string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ctx, id)
}

func (m *Manager) getLocked(ctx context.Context, id string) *domain.Session {
	if s, ok := m.sessions[id]; ok {
		return s
	}
	if m.store != nil {
		stored, err := m.store.Get(ctx, id)
		switch {
		case err == nil:
			m.sessions[id] = stored
			return stored
		case !errors.Is(err, storage.ErrNotFound):
			m.logger.Info("session store read failed, starting fresh",
				slog.String("session_id", id),
				slog.String("error", err.Error()))
		}
	}
	s := domain.NewSession(id)
	m.sessions[id] = s
	return s
}

// Snapshot returns a copy of the session safe to hand to callers.
func (m *Manager) Snapshot(ctx context.Context, id string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ctx, id).Clone()
}

// UpdateFilters merges filters into the session. Nil values and keys
// starting with "_" are stripped; existing keys are overwritten.
func (m *Manager) UpdateFilters(ctx context.Context, id string, filters map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(ctx, id)
	for k, v := range filters {
		if v == nil || len(k) == 0 || k[0] == '_' {
			continue
		}
		s.ExplicitFilters[k] = v
	}
	m.persistLocked(ctx, s)
}

// SetActiveDomain records the resolved domain and derives the product type.
func (m *Manager) SetActiveDomain(ctx context.Context, id string, d domain.Domain) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(ctx, id)
	s.ActiveDomain = d
	if pt := d.ProductType(); pt != "" {
		s.ProductType = pt
	}
	m.persistLocked(ctx, s)
}

// SetStage moves the conversation to stage.
func (m *Manager) SetStage(ctx context.Context, id string, stage domain.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(ctx, id)
	s.Stage = stage
	m.persistLocked(ctx, s)
}

// AddMessage appends to the conversation history, trimming from the front
// past domain.MaxHistory entries.
func (m *Manager) AddMessage(ctx context.Context, id, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(ctx, id)
	s.History = append(s.History, domain.Message{Role: role, Content: content})
	if len(s.History) > domain.MaxHistory {
		s.History = s.History[len(s.History)-domain.MaxHistory:]
	}
	m.persistLocked(ctx, s)
}

// AddQuestionAsked records topic (deduplicated), always increments the
// question count, and keeps question_index == min(question_count, 3).
func (m *Manager) AddQuestionAsked(ctx context.Context, id, topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(ctx, id)
	seen := false
	for _, t := range s.QuestionsAsked {
		if t == topic {
			seen = true
			break
		}
	}
	if !seen {
		s.QuestionsAsked = append(s.QuestionsAsked, topic)
	}
	s.QuestionCount++
	s.QuestionIndex = min(s.QuestionCount, domain.MaxQuestionIndex)
	m.persistLocked(ctx, s)
}

// ShouldAskQuestion reports whether the interview should continue. It is
// false once maxQuestions have been asked, or once the filters already pin
// down a use case or subcategory, a price bound, and a brand.
func (m *Manager) ShouldAskQuestion(ctx context.Context, id string, maxQuestions int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getLocked(ctx, id)
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	if s.QuestionCount >= maxQuestions {
		return false
	}

	f := s.ExplicitFilters
	hasUseCase := hasFilter(f, domain.FilterUseCases) || hasFilter(f, domain.FilterSubcategory)
	hasPrice := hasFilter(f, domain.FilterPriceMinCents) || hasFilter(f, domain.FilterPriceMaxCents)
	hasBrand := hasFilter(f, domain.FilterBrand)
	return !(hasUseCase && hasPrice && hasBrand)
}

// Reset discards all state for id, in memory and in the store, and returns
// a brand-new session. Store failures are logged and ignored.
func (m *Manager) Reset(ctx context.Context, id string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Info("session store delete failed",
				slog.String("session_id", id),
				slog.String("error", err.Error()))
		}
	}
	s := domain.NewSession(id)
	m.sessions[id] = s
	m.persistLocked(ctx, s)
	return s
}

func (m *Manager) persistLocked(ctx context.Context, s *domain.Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Put(ctx, s); err != nil {
		m.logger.Info("session store write failed, continuing in memory",
			slog.String("session_id", s.ID),
			slog.String("error", err.Error()))
	}
}

func hasFilter(f map[string]any, key string) bool {
	v, ok := f[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return true
}
