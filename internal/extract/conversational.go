package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tiktoken-go/tokenizer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopgrove/concierge/internal/domain"
)

const defaultPromptTokenBudget = 1500

// Completer is the LLM call contract the conversational extractor depends
// on. Errors must be catchable; they are always treated as "no new filters"
// by the caller.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string, out any) error
}

const systemPrompt = `You extract shopping filters from a customer's answer to an interview question.
Return a JSON object using only these keys when the answer provides NEW information:
price_min_cents, price_max_cents, brand, min_ram_gb, min_storage_gb, min_screen_inches, min_battery_hours, storage_type, use_cases, color, os, min_year, subcategory.
Prices are integer cents. use_cases is a list of short tags.
Never repeat a filter that is already known. If the answer adds nothing, return {}.`

// ConversationalExtractor asks an LLM to pull new filter values out of an
// interview answer. It only runs mid-interview: the guard in
// ExtractFromAnswer returns an empty result without any network call when
// no question has been asked yet.
type ConversationalExtractor struct {
	client      Completer
	logger      *slog.Logger
	tokenBudget int
	codec       tokenizer.Codec
	tracer      trace.Tracer
}

// ExtractorOption configures the extractor.
type ExtractorOption func(*ConversationalExtractor)

// WithTokenBudget caps the prompt size in tokens; history is trimmed
// oldest-first to fit.
func WithTokenBudget(budget int) ExtractorOption {
	return func(e *ConversationalExtractor) {
		if budget > 0 {
			e.tokenBudget = budget
		}
	}
}

// NewConversationalExtractor builds an extractor around a Completer.
func NewConversationalExtractor(client Completer, logger *slog.Logger, opts ...ExtractorOption) *ConversationalExtractor {
	codec, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		// Embedded encodings only fail on programmer error; fall back to the
		// older encoding rather than refusing to construct.
		codec, _ = tokenizer.Get(tokenizer.Cl100kBase)
	}
	e := &ConversationalExtractor{
		client:      client,
		logger:      logger,
		tokenBudget: defaultPromptTokenBudget,
		codec:       codec,
		tracer:      otel.Tracer("concierge/extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFromAnswer returns the filters the LLM found in answer that are not
// already in known. It is the pipeline's single suspension point; the caller
// bounds it with a context deadline and degrades to regex-only filters on
// error.
func (e *ConversationalExtractor) ExtractFromAnswer(
	ctx context.Context,
	answer string,
	history []domain.Message,
	questionsAsked []string,
	known map[string]any,
) (domain.ExtractedFilters, error) {
	var empty domain.ExtractedFilters

	// Never call out on the first message of a session: with no question
	// asked there is nothing conversational to interpret.
	if len(questionsAsked) == 0 || len(history) == 0 {
		return empty, nil
	}

	ctx, span := e.tracer.Start(ctx, "extract.llm",
		trace.WithAttributes(attribute.Int("history_len", len(history))))
	defer span.End()

	prompt := e.buildPrompt(answer, history, known)

	var out domain.ExtractedFilters
	if err := e.client.CompleteJSON(ctx, systemPrompt, prompt, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return empty, domain.NewPipelineError(domain.ErrorKindExtractionFailed, "llm extraction", err)
	}
	return out, nil
}

// buildPrompt assembles the user prompt: the last assistant question, the
// known filters, recent history, and the raw answer. History is dropped
// oldest-first until the prompt fits the token budget.
func (e *ConversationalExtractor) buildPrompt(answer string, history []domain.Message, known map[string]any) string {
	lastQuestion := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" {
			lastQuestion = history[i].Content
			break
		}
	}

	knownJSON := "{}"
	if len(known) > 0 {
		if b, err := json.Marshal(known); err == nil {
			knownJSON = string(b)
		}
	}

	recent := history
	for {
		prompt := renderPrompt(lastQuestion, knownJSON, recent, answer)
		if len(recent) == 0 || e.countTokens(prompt) <= e.tokenBudget {
			return prompt
		}
		recent = recent[1:]
	}
}

func renderPrompt(question, knownJSON string, history []domain.Message, answer string) string {
	var b strings.Builder
	if question != "" {
		fmt.Fprintf(&b, "Question asked: %s\n", question)
	}
	fmt.Fprintf(&b, "Already known filters: %s\n", knownJSON)
	if len(history) > 0 {
		b.WriteString("Conversation:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "  %s: %s\n", m.Role, m.Content)
		}
	}
	fmt.Fprintf(&b, "Customer answer: %s", answer)
	return b.String()
}

func (e *ConversationalExtractor) countTokens(text string) int {
	if e.codec == nil {
		// Rough fallback: four characters per token.
		return len(text) / 4
	}
	ids, _, err := e.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
