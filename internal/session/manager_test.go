package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/storage"
)

func newTestManager(store storage.SessionStore) *Manager {
	return NewManager(store, slog.New(slog.DiscardHandler))
}

func TestManager_QuestionIndexTracksCount(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	topics := []string{"use_case", "budget", "brand", "use_case", "budget"}
	for i, topic := range topics {
		m.AddQuestionAsked(ctx, "s1", topic)
		s := m.Snapshot(ctx, "s1")
		if s.QuestionCount != i+1 {
			t.Fatalf("after %d questions: QuestionCount = %d", i+1, s.QuestionCount)
		}
		want := min(i+1, domain.MaxQuestionIndex)
		if s.QuestionIndex != want {
			t.Errorf("after %d questions: QuestionIndex = %d, want %d", i+1, s.QuestionIndex, want)
		}
	}

	// Repeated topics are deduplicated even though the count keeps moving.
	s := m.Snapshot(ctx, "s1")
	if len(s.QuestionsAsked) != 3 {
		t.Errorf("QuestionsAsked = %v, want 3 distinct topics", s.QuestionsAsked)
	}
}

func TestManager_HistoryIsBounded(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	for i := 0; i < domain.MaxHistory+5; i++ {
		m.AddMessage(ctx, "s1", "user", fmt.Sprintf("message %d", i))
	}

	s := m.Snapshot(ctx, "s1")
	if len(s.History) != domain.MaxHistory {
		t.Fatalf("history length = %d, want %d", len(s.History), domain.MaxHistory)
	}
	// Oldest entries are the ones dropped.
	if got, want := s.History[0].Content, "message 5"; got != want {
		t.Errorf("oldest kept message = %q, want %q", got, want)
	}
	if got, want := s.History[len(s.History)-1].Content, fmt.Sprintf("message %d", domain.MaxHistory+4); got != want {
		t.Errorf("newest message = %q, want %q", got, want)
	}
}

func TestManager_UpdateFiltersStripsInvalid(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	m.UpdateFilters(ctx, "s1", map[string]any{
		"brand":     "dell",
		"_internal": "scratch",
		"os":        nil,
	})

	s := m.Snapshot(ctx, "s1")
	if got := s.ExplicitFilters["brand"]; got != "dell" {
		t.Errorf("brand = %v, want dell", got)
	}
	if _, ok := s.ExplicitFilters["_internal"]; ok {
		t.Error("underscore-prefixed key was stored")
	}
	if _, ok := s.ExplicitFilters["os"]; ok {
		t.Error("nil-valued key was stored")
	}

	// Later values overwrite.
	m.UpdateFilters(ctx, "s1", map[string]any{"brand": "hp"})
	if got := m.Snapshot(ctx, "s1").ExplicitFilters["brand"]; got != "hp" {
		t.Errorf("brand after overwrite = %v, want hp", got)
	}
}

func TestManager_ShouldAskQuestion(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		filters   map[string]any
		questions int
		want      bool
	}{
		{"fresh session", nil, 0, true},
		{"partial filters", map[string]any{"brand": "dell"}, 1, true},
		{
			"use case and price but no brand",
			map[string]any{"use_cases": []string{"gaming"}, "price_max_cents": 100000},
			1,
			true,
		},
		{
			"complete filters end the interview early",
			map[string]any{"use_cases": []string{"gaming"}, "price_max_cents": 100000, "brand": "asus"},
			1,
			false,
		},
		{
			"subcategory counts as a use case",
			map[string]any{"subcategory": "necklaces", "price_min_cents": 5000, "brand": "pandora"},
			0,
			false,
		},
		{"question cap reached", map[string]any{"brand": "dell"}, 3, false},
		{
			"empty use case list does not count",
			map[string]any{"use_cases": []string{}, "price_max_cents": 100000, "brand": "asus"},
			1,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(nil)
			id := "s-" + tt.name
			if tt.filters != nil {
				m.UpdateFilters(ctx, id, tt.filters)
			}
			for i := 0; i < tt.questions; i++ {
				m.AddQuestionAsked(ctx, id, fmt.Sprintf("topic%d", i))
			}
			if got := m.ShouldAskQuestion(ctx, id, 3); got != tt.want {
				t.Errorf("ShouldAskQuestion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_ResetReturnsFreshSession(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	m.SetActiveDomain(ctx, "s1", domain.DomainBooks)
	m.UpdateFilters(ctx, "s1", map[string]any{"brand": "penguin"})
	m.AddMessage(ctx, "s1", "user", "show me books")
	m.AddQuestionAsked(ctx, "s1", "use_case")

	s := m.Reset(ctx, "s1")
	if s.ActiveDomain != domain.DomainNone || s.Stage != domain.StageInterview {
		t.Errorf("reset session = domain %q stage %q, want none/interview", s.ActiveDomain, s.Stage)
	}
	if len(s.ExplicitFilters) != 0 || len(s.History) != 0 || s.QuestionCount != 0 || s.QuestionIndex != 0 {
		t.Errorf("reset session kept state: %+v", s)
	}

	after := m.Snapshot(ctx, "s1")
	if after.ActiveDomain != domain.DomainNone || len(after.ExplicitFilters) != 0 {
		t.Errorf("snapshot after reset kept state: %+v", after)
	}
}

func TestManager_SnapshotIsACopy(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	m.UpdateFilters(ctx, "s1", map[string]any{"brand": "dell"})
	snap := m.Snapshot(ctx, "s1")
	snap.ExplicitFilters["brand"] = "tampered"
	snap.History = append(snap.History, domain.Message{Role: "user", Content: "x"})

	s := m.Snapshot(ctx, "s1")
	if s.ExplicitFilters["brand"] != "dell" {
		t.Error("mutating a snapshot leaked into the manager's session")
	}
	if len(s.History) != 0 {
		t.Error("mutating a snapshot's history leaked into the manager's session")
	}
}

// failingStore errors on every operation; the manager must stay usable.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*domain.Session, error) {
	return nil, errors.New("store down")
}
func (failingStore) Put(context.Context, *domain.Session) error { return errors.New("store down") }
func (failingStore) Delete(context.Context, string) error       { return errors.New("store down") }
func (failingStore) Close() error                               { return nil }

func TestManager_SurvivesStoreFailures(t *testing.T) {
	m := newTestManager(failingStore{})
	ctx := context.Background()

	m.SetActiveDomain(ctx, "s1", domain.DomainLaptops)
	m.UpdateFilters(ctx, "s1", map[string]any{"brand": "dell"})

	s := m.Snapshot(ctx, "s1")
	if s.ActiveDomain != domain.DomainLaptops || s.ExplicitFilters["brand"] != "dell" {
		t.Errorf("in-memory state lost behind a failing store: %+v", s)
	}

	fresh := m.Reset(ctx, "s1")
	if fresh.ActiveDomain != domain.DomainNone {
		t.Errorf("reset behind a failing store = %+v", fresh)
	}
}

func TestManager_GetLoadsFromStore(t *testing.T) {
	stored := domain.NewSession("s1")
	stored.ActiveDomain = domain.DomainVehicles
	stored.ProductType = "vehicle"
	store := &stubStore{sessions: map[string]*domain.Session{"s1": stored}}

	m := newTestManager(store)
	s := m.Get(context.Background(), "s1")
	if s.ActiveDomain != domain.DomainVehicles {
		t.Errorf("loaded session domain = %q, want vehicles", s.ActiveDomain)
	}

	// Unknown ids fall through to a fresh session.
	s2 := m.Get(context.Background(), "s2")
	if s2.ActiveDomain != domain.DomainNone {
		t.Errorf("fresh session domain = %q, want none", s2.ActiveDomain)
	}
}

type stubStore struct {
	sessions map[string]*domain.Session
}

func (s *stubStore) Get(_ context.Context, id string) (*domain.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, storage.ErrNotFound
}

func (s *stubStore) Put(_ context.Context, sess *domain.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubStore) Close() error { return nil }
