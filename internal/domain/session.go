package domain

import "time"

// MaxHistory is the hard cap on conversation history length; older entries
// are trimmed first.
const MaxHistory = 10

// MaxQuestionIndex caps the question index used by the question planner.
const MaxQuestionIndex = 3

// Session is the per-conversation state owned by the session manager.
// Filter keys never start with "_" and values are never nil; both are
// stripped on merge.
type Session struct {
	ID              string         `json:"id"`
	ExplicitFilters map[string]any `json:"explicit_filters"`
	History         []Message      `json:"conversation_history"`
	QuestionsAsked  []string       `json:"questions_asked"`
	QuestionCount   int            `json:"question_count"`
	QuestionIndex   int            `json:"question_index"`
	ProductType     string         `json:"product_type,omitempty"`
	ActiveDomain    Domain         `json:"active_domain,omitempty"`
	Stage           Stage          `json:"stage"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewSession returns a fresh interview-stage session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:              id,
		ExplicitFilters: make(map[string]any),
		Stage:           StageInterview,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy so stores and snapshots never alias the
// manager's live session.
func (s *Session) Clone() *Session {
	c := *s
	c.ExplicitFilters = make(map[string]any, len(s.ExplicitFilters))
	for k, v := range s.ExplicitFilters {
		c.ExplicitFilters[k] = v
	}
	c.History = append([]Message(nil), s.History...)
	c.QuestionsAsked = append([]string(nil), s.QuestionsAsked...)
	return &c
}

// KnownFilters returns the non-nil, non-"_"-prefixed subset of the session's
// filters, the shape shared with the LLM extractor and the question planner.
func (s *Session) KnownFilters() map[string]any {
	out := make(map[string]any, len(s.ExplicitFilters))
	for k, v := range s.ExplicitFilters {
		if v == nil || len(k) == 0 || k[0] == '_' {
			continue
		}
		out[k] = v
	}
	return out
}

// RecentHistory returns up to n of the most recent history entries.
func (s *Session) RecentHistory(n int) []Message {
	if len(s.History) <= n {
		return append([]Message(nil), s.History...)
	}
	return append([]Message(nil), s.History[len(s.History)-n:]...)
}
