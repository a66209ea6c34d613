package engine

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/session"
)

type fakeExtractor struct {
	called  int
	filters domain.ExtractedFilters
	err     error
}

func (f *fakeExtractor) ExtractFromAnswer(ctx context.Context, answer string, history []domain.Message, questionsAsked []string, known map[string]any) (domain.ExtractedFilters, error) {
	f.called++
	return f.filters, f.err
}

func newTestEngine(opts ...Option) *Engine {
	logger := slog.New(slog.DiscardHandler)
	return New(session.NewManager(nil, logger), logger, opts...)
}

func TestTurn_TypoCorrectedAndRouted(t *testing.T) {
	e := newTestEngine()

	res := e.Turn(context.Background(), "s1", "i want an nvidiaa laptop")
	if !strings.Contains(res.NormalizedQuery, "nvidia laptop") {
		t.Errorf("NormalizedQuery = %q, want nvidia corrected", res.NormalizedQuery)
	}
	if res.Domain != domain.DomainLaptops {
		t.Errorf("Domain = %q, want laptops", res.Domain)
	}
	if res.ReplyHint != domain.HintAskQuestion {
		t.Errorf("ReplyHint = %q, want ask_question on a fresh interview", res.ReplyHint)
	}
}

func TestTurn_InterviewFlow(t *testing.T) {
	fake := &fakeExtractor{}
	e := newTestEngine(WithExtractor(fake))
	ctx := context.Background()

	res := e.Turn(ctx, "s1", "show me laptops")
	if res.Domain != domain.DomainLaptops || res.ReplyHint != domain.HintAskQuestion {
		t.Fatalf("turn 1 = domain %q hint %q", res.Domain, res.ReplyHint)
	}
	if res.QuestionPlan == nil || res.QuestionPlan.NextTopic != "use_case" {
		t.Fatalf("turn 1 plan = %+v, want next topic use_case", res.QuestionPlan)
	}
	// The question has only been proposed, not asked: counters stay at zero
	// and the conversational extractor stays disarmed.
	if fake.called != 0 {
		t.Fatal("extractor ran before any question was asked")
	}
	if len(res.QuestionPlan.QuestionsAsked) != 0 {
		t.Errorf("turn 1 QuestionsAsked = %v, want none", res.QuestionPlan.QuestionsAsked)
	}

	e.RecordQuestion(ctx, "s1", "use_case", "What will you mainly use it for?")

	res = e.Turn(ctx, "s1", "Gaming")
	if fake.called != 1 {
		t.Errorf("extractor calls = %d, want 1 after a recorded question", fake.called)
	}
	uses, ok := res.Filters["use_cases"].([]string)
	if !ok || len(uses) != 1 || uses[0] != "gaming" {
		t.Errorf("use_cases = %v, want [gaming]", res.Filters["use_cases"])
	}
	if res.QuestionPlan.NextTopic != "budget" {
		t.Errorf("turn 2 next topic = %q, want budget", res.QuestionPlan.NextTopic)
	}
	if got := res.QuestionPlan.QuestionsAsked; len(got) != 1 || got[0] != "use_case" {
		t.Errorf("turn 2 QuestionsAsked = %v, want [use_case]", got)
	}
}

func TestTurn_DomainSwitchResetsSession(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	e.Turn(ctx, "s1", "show me fantasy books")
	e.RecordQuestion(ctx, "s1", "use_case", "What do you like to read?")

	res := e.Turn(ctx, "s1", "show me laptops")
	if !res.Reset {
		t.Fatal("Reset = false, want true on a domain switch")
	}
	if res.Domain != domain.DomainLaptops {
		t.Errorf("Domain = %q, want laptops", res.Domain)
	}
	if len(res.QuestionPlan.QuestionsAsked) != 0 {
		t.Errorf("QuestionsAsked survived the reset: %v", res.QuestionPlan.QuestionsAsked)
	}
	for k := range res.Filters {
		t.Errorf("filter %q survived the reset", k)
	}
}

func TestTurn_FirstMessageUsesRegexOnly(t *testing.T) {
	fake := &fakeExtractor{}
	e := newTestEngine(WithExtractor(fake))

	res := e.Turn(context.Background(), "s1", "at least 500 gb")
	if fake.called != 0 {
		t.Fatal("extractor was called on the first message of a session")
	}
	if got := res.Filters["min_storage_gb"]; got != 500 {
		t.Errorf("min_storage_gb = %v, want 500 from the deterministic pass", got)
	}
	// No domain yet, so the reply asks for a category.
	if res.ReplyHint != domain.HintAskCategory {
		t.Errorf("ReplyHint = %q, want ask_category", res.ReplyHint)
	}
}

func TestTurn_CompleteFiltersSkipToRecommendations(t *testing.T) {
	e := newTestEngine()

	res := e.Turn(context.Background(), "s1", "asus gaming laptop under $1000")
	if res.ReplyHint != domain.HintRecommend {
		t.Fatalf("ReplyHint = %q, want recommend when filters are complete", res.ReplyHint)
	}
	if res.Stage != domain.StageRecommendations {
		t.Errorf("Stage = %q, want recommendations", res.Stage)
	}
	if res.Filters["brand"] != "asus" {
		t.Errorf("brand = %v, want asus", res.Filters["brand"])
	}
	if res.Filters["price_max_cents"] != int64(100000) {
		t.Errorf("price_max_cents = %v, want 100000", res.Filters["price_max_cents"])
	}
}

func TestTurn_QuestionCapEndsInterview(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	e.Turn(ctx, "s1", "show me laptops")
	e.RecordQuestion(ctx, "s1", "use_case", "What will you use it for?")
	e.RecordQuestion(ctx, "s1", "budget", "What's your budget?")
	e.RecordQuestion(ctx, "s1", "brand", "Any preferred brand?")

	res := e.Turn(ctx, "s1", "Gaming")
	if res.ReplyHint != domain.HintRecommend {
		t.Errorf("ReplyHint = %q, want recommend after the question cap", res.ReplyHint)
	}
	if res.Stage != domain.StageRecommendations {
		t.Errorf("Stage = %q, want recommendations", res.Stage)
	}
}

func TestTurn_RejectionLeavesStateUntouched(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	e.Turn(ctx, "s1", "show me laptops")
	before := e.sessions.Snapshot(ctx, "s1")

	res := e.Turn(ctx, "s1", "???")
	if res.ReplyHint != domain.HintClarify {
		t.Fatalf("ReplyHint = %q, want clarify", res.ReplyHint)
	}
	if res.Message == "" {
		t.Error("rejection carried no clarification message")
	}
	if res.Domain != domain.DomainLaptops {
		t.Errorf("Domain = %q, want the existing active domain", res.Domain)
	}

	after := e.sessions.Snapshot(ctx, "s1")
	if len(after.History) != len(before.History) {
		t.Errorf("history grew from %d to %d on a rejected message",
			len(before.History), len(after.History))
	}
}

func TestTurn_ExtractorFailureDegradesToRegex(t *testing.T) {
	fake := &fakeExtractor{err: context.DeadlineExceeded}
	e := newTestEngine(WithExtractor(fake))
	ctx := context.Background()

	e.Turn(ctx, "s1", "show me laptops")
	e.RecordQuestion(ctx, "s1", "budget", "What's your budget?")

	res := e.Turn(ctx, "s1", "under $800")
	if fake.called != 1 {
		t.Fatalf("extractor calls = %d, want 1", fake.called)
	}
	if res.Filters["price_max_cents"] != int64(80000) {
		t.Errorf("price_max_cents = %v, want 80000 from the regex pass", res.Filters["price_max_cents"])
	}
	if res.ReplyHint != domain.HintAskQuestion {
		t.Errorf("ReplyHint = %q, want the interview to continue", res.ReplyHint)
	}
}

func TestTurn_LLMFiltersMergeOverRegex(t *testing.T) {
	brand := "lenovo"
	fake := &fakeExtractor{filters: domain.ExtractedFilters{Brand: &brand}}
	e := newTestEngine(WithExtractor(fake))
	ctx := context.Background()

	e.Turn(ctx, "s1", "show me laptops")
	e.RecordQuestion(ctx, "s1", "brand", "Any preferred brand?")

	res := e.Turn(ctx, "s1", "the one with the red dot in the keyboard")
	if res.Filters["brand"] != "lenovo" {
		t.Errorf("brand = %v, want lenovo from the conversational pass", res.Filters["brand"])
	}
}
