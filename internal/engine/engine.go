// Package engine runs one pipeline turn: validate, normalize, route
// (possibly resetting the session), extract, merge, and advance session
// state. Each turn is strictly sequential; the only suspension point is the
// LLM extraction call, and every failure along the way degrades to a safe
// default so the conversation always gets its next turn.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/extract"
	"github.com/shopgrove/concierge/internal/normalize"
	"github.com/shopgrove/concierge/internal/router"
	"github.com/shopgrove/concierge/internal/session"
	"github.com/shopgrove/concierge/internal/validate"
)

// historyWindow is how many history entries the question planner receives.
const historyWindow = 4

// interviewTopics is the order in which the planner proposes question
// topics; topics already asked are skipped.
var interviewTopics = []string{"use_case", "budget", "brand"}

// Extractor is the conversational extraction dependency; nil disables the
// LLM pass and the engine runs regex-only.
type Extractor interface {
	ExtractFromAnswer(ctx context.Context, answer string, history []domain.Message, questionsAsked []string, known map[string]any) (domain.ExtractedFilters, error)
}

// Engine wires the pipeline components together.
type Engine struct {
	validator    *validate.Validator
	normalizer   *normalize.Normalizer
	router       *router.Router
	extractor    Extractor
	sessions     *session.Manager
	logger       *slog.Logger
	tracer       trace.Tracer
	maxQuestions int
	llmTimeout   time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithExtractor enables the LLM conversational extraction pass.
func WithExtractor(e Extractor) Option {
	return func(eng *Engine) { eng.extractor = e }
}

// WithMaxQuestions overrides the interview question budget.
func WithMaxQuestions(n int) Option {
	return func(eng *Engine) {
		if n > 0 {
			eng.maxQuestions = n
		}
	}
}

// WithLLMTimeout bounds the extraction call per turn.
func WithLLMTimeout(d time.Duration) Option {
	return func(eng *Engine) {
		if d > 0 {
			eng.llmTimeout = d
		}
	}
}

// New builds an Engine around a session manager.
func New(sessions *session.Manager, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		validator:    validate.New(),
		normalizer:   normalize.New(),
		router:       router.New(),
		sessions:     sessions,
		logger:       logger,
		tracer:       otel.Tracer("concierge/engine"),
		maxQuestions: session.DefaultMaxQuestions,
		llmTimeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn processes one user message for sessionID and returns the result to
// hand to the search and reply collaborators. It never returns an error for
// user-level problems; those surface as reply hints.
func (e *Engine) Turn(ctx context.Context, sessionID, message string) *domain.TurnResult {
	ctx, span := e.tracer.Start(ctx, "engine.turn",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	state := e.sessions.Snapshot(ctx, sessionID)

	ok, rejection := e.validator.Validate(message, state.ActiveDomain)
	if !ok {
		// Rejections are conversational, not errors: no state changes, the
		// user just gets a clarification prompt.
		return &domain.TurnResult{
			Domain:      state.ActiveDomain,
			Stage:       state.Stage,
			RouteReason: domain.ReasonEmpty,
			ReplyHint:   domain.HintClarify,
			Message:     rejection,
		}
	}

	norm := e.normalizer.Normalize(message)
	if norm.Changed {
		e.logger.Debug("query normalized",
			slog.String("session_id", sessionID),
			slog.String("original", norm.Original),
			slog.String("normalized", norm.Normalized))
	}

	detection := e.router.Detect(norm.Normalized, state.ActiveDomain, categoryOf(state))
	span.SetAttributes(
		attribute.String("domain", string(detection.Domain)),
		attribute.String("route_reason", string(detection.Reason)),
	)

	reset := false
	if e.router.IsSwitch(state.ActiveDomain, detection) {
		e.logger.Info("domain switch detected, resetting session",
			slog.String("session_id", sessionID),
			slog.String("from", string(state.ActiveDomain)),
			slog.String("to", string(detection.Domain)))
		state = e.sessions.Reset(ctx, sessionID).Clone()
		reset = true
	}
	if detection.Domain != domain.DomainNone && state.ActiveDomain != detection.Domain {
		e.sessions.SetActiveDomain(ctx, sessionID, detection.Domain)
		state.ActiveDomain = detection.Domain
	}

	filters := e.extractFilters(ctx, sessionID, message, norm.Normalized, state)
	if merged := filters.ToMap(); len(merged) > 0 {
		e.sessions.UpdateFilters(ctx, sessionID, merged)
	}

	e.sessions.AddMessage(ctx, sessionID, "user", message)

	return e.finishTurn(ctx, sessionID, norm, detection, reset)
}

// extractFilters runs the regex pass unconditionally and the LLM pass only
// mid-interview, merging LLM output on top. The LLM is instructed to return
// only fields not already known, so the overlay cannot clobber regex output
// with stale values.
func (e *Engine) extractFilters(ctx context.Context, sessionID, raw, normalized string, state *domain.Session) domain.ExtractedFilters {
	filters := extract.ParseSpecs(normalized)

	if e.extractor == nil || len(state.QuestionsAsked) == 0 || len(state.History) == 0 {
		return filters
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()

	llmFilters, err := e.extractor.ExtractFromAnswer(llmCtx, raw, state.History, state.QuestionsAsked, state.KnownFilters())
	if err != nil {
		e.logger.Warn("llm extraction failed, continuing with regex filters",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return filters
	}
	return filters.Merge(llmFilters)
}

// finishTurn advances the stage, picks the reply hint, and assembles the
// result from the post-mutation session state.
func (e *Engine) finishTurn(ctx context.Context, sessionID string, norm domain.NormalizationResult, detection domain.DomainDetection, reset bool) *domain.TurnResult {
	state := e.sessions.Snapshot(ctx, sessionID)

	result := &domain.TurnResult{
		NormalizedQuery: norm.Normalized,
		Filters:         state.KnownFilters(),
		Domain:          state.ActiveDomain,
		Stage:           state.Stage,
		RouteReason:     detection.Reason,
		Reset:           reset,
	}

	if state.ActiveDomain == domain.DomainNone {
		result.ReplyHint = domain.HintAskCategory
		result.Message = "What kind of product are you shopping for?"
		return result
	}

	plan := &domain.QuestionPlan{
		ProductType:    state.ProductType,
		History:        state.RecentHistory(historyWindow),
		KnownFilters:   state.KnownFilters(),
		QuestionsAsked: append([]string(nil), state.QuestionsAsked...),
	}
	result.QuestionPlan = plan

	if state.Stage == domain.StageInterview && e.sessions.ShouldAskQuestion(ctx, sessionID, e.maxQuestions) {
		// The reply owner confirms the question via RecordQuestion once it
		// actually asks; the turn itself leaves the counters untouched.
		plan.NextTopic = e.nextTopic(state)
		result.ReplyHint = domain.HintAskQuestion
		return result
	}

	if state.Stage == domain.StageInterview {
		e.sessions.SetStage(ctx, sessionID, domain.StageRecommendations)
		result.Stage = domain.StageRecommendations
	}
	result.ReplyHint = domain.HintRecommend
	return result
}

// RecordQuestion is called by the reply owner after it sends an interview
// question: the topic lands in questions_asked and the question itself in
// the history, which is what arms the LLM extraction pass for the next turn.
func (e *Engine) RecordQuestion(ctx context.Context, sessionID, topic, question string) {
	e.sessions.AddQuestionAsked(ctx, sessionID, topic)
	if question != "" {
		e.sessions.AddMessage(ctx, sessionID, "assistant", question)
	}
}

func (e *Engine) nextTopic(state *domain.Session) string {
	asked := make(map[string]struct{}, len(state.QuestionsAsked))
	for _, t := range state.QuestionsAsked {
		asked[t] = struct{}{}
	}
	for _, topic := range interviewTopics {
		if _, ok := asked[topic]; !ok {
			return topic
		}
	}
	return interviewTopics[len(interviewTopics)-1]
}

// categoryOf surfaces a category hint from the session's stored filters for
// the router's filter-category pass.
func categoryOf(state *domain.Session) string {
	for _, key := range []string{"category", domain.FilterSubcategory} {
		if v, ok := state.ExplicitFilters[key].(string); ok {
			return v
		}
	}
	return ""
}
