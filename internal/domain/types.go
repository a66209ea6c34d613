// Package domain holds the core types shared across the query-understanding
// pipeline: product domains, conversation stages, routing decisions, and the
// per-turn result emitted to downstream collaborators.
package domain

// Domain is the product category a conversation currently targets.
type Domain string

const (
	DomainNone        Domain = ""
	DomainVehicles    Domain = "vehicles"
	DomainLaptops     Domain = "laptops"
	DomainBooks       Domain = "books"
	DomainJewelry     Domain = "jewelry"
	DomainAccessories Domain = "accessories"
	DomainClothing    Domain = "clothing"
	DomainBeauty      Domain = "beauty"
)

// AllDomains lists every resolvable domain, in router precedence order.
var AllDomains = []Domain{
	DomainVehicles,
	DomainLaptops,
	DomainBooks,
	DomainJewelry,
	DomainAccessories,
	DomainClothing,
	DomainBeauty,
}

// ProductType returns the singular product noun for a domain, used to seed
// the question-generation payload.
func (d Domain) ProductType() string {
	switch d {
	case DomainVehicles:
		return "vehicle"
	case DomainLaptops:
		return "laptop"
	case DomainBooks:
		return "book"
	case DomainJewelry:
		return "jewelry"
	case DomainAccessories:
		return "accessory"
	case DomainClothing:
		return "clothing"
	case DomainBeauty:
		return "beauty product"
	default:
		return ""
	}
}

// Stage is the conversation phase.
type Stage string

const (
	StageInterview       Stage = "interview"
	StageRecommendations Stage = "recommendations"
	StageCheckout        Stage = "checkout"
)

// RouteReason explains why the router resolved (or failed to resolve) a domain.
type RouteReason string

const (
	ReasonDomainIntent        RouteReason = "domain_intent"
	ReasonFuzzyMatch          RouteReason = "fuzzy_match"
	ReasonKeywordVehicle      RouteReason = "keyword_vehicle"
	ReasonKeywordDesktop      RouteReason = "keyword_desktop"
	ReasonKeywordLaptop       RouteReason = "keyword_laptop"
	ReasonKeywordBook         RouteReason = "keyword_book"
	ReasonKeywordJewelry      RouteReason = "keyword_jewelry"
	ReasonKeywordAccessories  RouteReason = "keyword_accessories"
	ReasonKeywordClothing     RouteReason = "keyword_clothing"
	ReasonKeywordBeauty       RouteReason = "keyword_beauty"
	ReasonFilterCategory      RouteReason = "filter_category"
	ReasonSessionContinuation RouteReason = "session_continuation"
	ReasonAmbiguous           RouteReason = "ambiguous"
	ReasonEmpty               RouteReason = "empty"
)

// DomainDetection is the router's verdict for a single message.
type DomainDetection struct {
	Domain Domain      `json:"domain"`
	Reason RouteReason `json:"reason"`
}

// Message is one entry in a session's conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizationResult reports what the normalizer did to a query.
type NormalizationResult struct {
	Original    string              `json:"original"`
	Normalized  string              `json:"normalized"`
	Corrections map[string]string   `json:"corrections,omitempty"`
	Expansions  map[string][]string `json:"expansions,omitempty"`
	Changed     bool                `json:"changed"`
}

// ReplyHint tells the reply owner what kind of response to generate next.
type ReplyHint string

const (
	HintAskCategory ReplyHint = "ask_category"
	HintAskQuestion ReplyHint = "ask_question"
	HintClarify     ReplyHint = "clarify"
	HintRecommend   ReplyHint = "recommend"
)

// QuestionPlan is the payload handed to the question-generation collaborator.
type QuestionPlan struct {
	ProductType    string         `json:"product_type,omitempty"`
	History        []Message      `json:"history,omitempty"`
	KnownFilters   map[string]any `json:"known_filters,omitempty"`
	QuestionsAsked []string       `json:"questions_asked,omitempty"`
	NextTopic      string         `json:"next_topic,omitempty"`
}

// TurnResult is what one pipeline turn emits to downstream collaborators:
// a normalized query plus the resolved domain, filters, and stage for the
// search engine, and a question plan for the reply owner.
type TurnResult struct {
	NormalizedQuery string         `json:"normalized_query"`
	Filters         map[string]any `json:"filters"`
	Domain          Domain         `json:"domain"`
	Stage           Stage          `json:"stage"`
	RouteReason     RouteReason    `json:"route_reason"`
	Reset           bool           `json:"reset"`
	ReplyHint       ReplyHint      `json:"reply_hint"`
	Message         string         `json:"message,omitempty"`
	QuestionPlan    *QuestionPlan  `json:"question_plan,omitempty"`
}
