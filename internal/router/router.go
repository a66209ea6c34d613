// Package router resolves the product domain for a message. Precedence is
// strict and evaluated in order: explicit domain intent, fuzzy keyword match,
// ordered word-boundary keyword passes, the category hint carried by existing
// filters, and finally session continuation. Single-word keywords are always
// matched against tokens, never by raw substring scan, so "book" cannot fire
// inside "notebook".
package router

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/shopgrove/concierge/internal/domain"
)

const minFuzzySimilarity = 0.6

var reToken = regexp.MustCompile(`[a-z0-9]+`)

// intentPatterns match a whole trimmed message that is nothing but a domain
// name. These run before any keyword pass so one-word replies like "books"
// resolve without tokenization edge cases.
var intentPatterns = []struct {
	domain domain.Domain
	re     *regexp.Regexp
}{
	{domain.DomainVehicles, regexp.MustCompile(`^(cars?|vehicles?|trucks?|suvs?|motorcycles?)$`)},
	{domain.DomainLaptops, regexp.MustCompile(`^(laptops?|computers?|notebooks?|pcs?|desktops?)$`)},
	{domain.DomainBooks, regexp.MustCompile(`^(books?|novels?|reading|textbooks?)$`)},
	{domain.DomainJewelry, regexp.MustCompile(`^(jewelry|jewellery|necklaces?|rings?|bracelets?)$`)},
	{domain.DomainAccessories, regexp.MustCompile(`^(accessor(y|ies)|bags?|backpacks?|watch(es)?)$`)},
	{domain.DomainClothing, regexp.MustCompile(`^(clothing|clothes|apparel|outfits?)$`)},
	{domain.DomainBeauty, regexp.MustCompile(`^(beauty|makeup|cosmetics|skincare)$`)},
}

// desktopPhrases route to laptops but are checked before the laptop keyword
// pass so "gaming pc" never resolves through the bare "pc" token.
var desktopPhrases = regexp.MustCompile(`\b(gaming (pc|rig|desktop|computer)|desktop (pc|computer)|tower pc|custom build)\b`)

var domainKeywords = map[domain.Domain][]string{
	domain.DomainVehicles: {
		"car", "cars", "vehicle", "vehicles", "truck", "trucks", "suv",
		"suvs", "sedan", "motorcycle", "motorbike", "convertible",
		"toyota", "honda", "ford", "tesla", "subaru", "nissan", "jeep",
	},
	domain.DomainLaptops: {
		"laptop", "laptops", "notebook", "notebooks", "computer",
		"computers", "pc", "macbook", "chromebook", "ultrabook",
		"thinkpad", "gpu", "cpu", "ram", "ssd",
	},
	domain.DomainBooks: {
		"book", "books", "novel", "novels", "textbook", "paperback",
		"hardcover", "ebook", "author", "fiction", "nonfiction",
		"biography", "manga",
	},
	domain.DomainJewelry: {
		"jewelry", "jewellery", "necklace", "necklaces", "ring", "rings",
		"bracelet", "bracelets", "earrings", "pendant", "gemstone",
		"diamond",
	},
	domain.DomainAccessories: {
		"accessory", "accessories", "bag", "bags", "backpack", "backpacks",
		"wallet", "wallets", "watch", "watches", "belt", "sunglasses",
		"handbag", "purse",
	},
	domain.DomainClothing: {
		"clothing", "clothes", "shirt", "shirts", "tshirt", "jeans",
		"dress", "dresses", "jacket", "jackets", "hoodie", "sweater",
		"pants", "shoes", "sneakers", "boots",
	},
	domain.DomainBeauty: {
		"beauty", "makeup", "skincare", "cosmetics", "lipstick", "mascara",
		"shampoo", "conditioner", "perfume", "fragrance", "moisturizer",
		"foundation", "serum",
	},
}

// keywordReasons pairs each keyword pass with its route reason.
var keywordReasons = map[domain.Domain]domain.RouteReason{
	domain.DomainVehicles:    domain.ReasonKeywordVehicle,
	domain.DomainLaptops:     domain.ReasonKeywordLaptop,
	domain.DomainBooks:       domain.ReasonKeywordBook,
	domain.DomainJewelry:     domain.ReasonKeywordJewelry,
	domain.DomainAccessories: domain.ReasonKeywordAccessories,
	domain.DomainClothing:    domain.ReasonKeywordClothing,
	domain.DomainBeauty:      domain.ReasonKeywordBeauty,
}

// Router detects domains and domain switches.
type Router struct {
	keywordSets map[domain.Domain]map[string]struct{}
}

// New builds a Router with the built-in keyword tables.
func New() *Router {
	sets := make(map[domain.Domain]map[string]struct{}, len(domainKeywords))
	for d, words := range domainKeywords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		sets[d] = set
	}
	return &Router{keywordSets: sets}
}

// Detect resolves the domain for message. activeDomain is the session's
// current domain (may be none) and filterCategory is the category hint
// carried by existing filters (may be empty).
func (r *Router) Detect(message string, activeDomain domain.Domain, filterCategory string) domain.DomainDetection {
	trimmed := strings.ToLower(strings.TrimSpace(message))

	if trimmed == "" {
		if activeDomain != domain.DomainNone {
			return domain.DomainDetection{Domain: activeDomain, Reason: domain.ReasonSessionContinuation}
		}
		if d := categoryHint(filterCategory); d != domain.DomainNone {
			return domain.DomainDetection{Domain: d, Reason: domain.ReasonFilterCategory}
		}
		return domain.DomainDetection{Domain: domain.DomainNone, Reason: domain.ReasonEmpty}
	}

	for _, p := range intentPatterns {
		if p.re.MatchString(trimmed) {
			return domain.DomainDetection{Domain: p.domain, Reason: domain.ReasonDomainIntent}
		}
	}

	tokens := reToken.FindAllString(trimmed, -1)

	// Fuzzy matching only applies when no token is already an exact keyword;
	// otherwise the ordered keyword passes own the decision.
	if !r.hasExactKeyword(tokens) {
		if d, ok := r.fuzzyMatch(tokens); ok {
			return domain.DomainDetection{Domain: d, Reason: domain.ReasonFuzzyMatch}
		}
	}

	// Ordered keyword passes. Vehicles go first so shared brand tokens
	// resolve there, and desktop phrases outrank the bare laptop keywords.
	if r.hasKeyword(domain.DomainVehicles, tokens) {
		return domain.DomainDetection{Domain: domain.DomainVehicles, Reason: domain.ReasonKeywordVehicle}
	}
	if desktopPhrases.MatchString(trimmed) {
		return domain.DomainDetection{Domain: domain.DomainLaptops, Reason: domain.ReasonKeywordDesktop}
	}
	for _, d := range []domain.Domain{
		domain.DomainLaptops, domain.DomainBooks, domain.DomainJewelry,
		domain.DomainAccessories, domain.DomainClothing, domain.DomainBeauty,
	} {
		if r.hasKeyword(d, tokens) {
			return domain.DomainDetection{Domain: d, Reason: keywordReasons[d]}
		}
	}

	if d := categoryHint(filterCategory); d != domain.DomainNone {
		return domain.DomainDetection{Domain: d, Reason: domain.ReasonFilterCategory}
	}

	// Short replies like "Gaming" or "$500-$1000" carry no domain keyword;
	// an active session keeps its domain.
	if activeDomain != domain.DomainNone {
		return domain.DomainDetection{Domain: activeDomain, Reason: domain.ReasonSessionContinuation}
	}

	return domain.DomainDetection{Domain: domain.DomainNone, Reason: domain.ReasonAmbiguous}
}

// IsSwitch reports whether detected implies a mid-conversation domain change,
// which forces a full session reset.
func (r *Router) IsSwitch(activeDomain domain.Domain, detected domain.DomainDetection) bool {
	return activeDomain != domain.DomainNone &&
		detected.Domain != domain.DomainNone &&
		detected.Domain != activeDomain
}

func (r *Router) hasKeyword(d domain.Domain, tokens []string) bool {
	set := r.keywordSets[d]
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// fuzzyMatch catches misspelled domain keywords ("booksss", "computr")
// before the keyword passes would miss them. Exact keyword hits are left to
// the ordered passes so their precedence rules still apply.
func (r *Router) fuzzyMatch(tokens []string) (domain.Domain, bool) {
	bestDomain := domain.DomainNone
	bestDist := -1
	bestSim := 0.0

	for _, token := range tokens {
		if len(token) < 3 || fuzzyStopwords[token] {
			continue
		}
		limit := fuzzyThreshold(len(token))
		for _, d := range domain.AllDomains {
			for kw := range r.keywordSets[d] {
				if len(kw) < 3 {
					continue
				}
				dist := levenshtein.ComputeDistance(token, kw)
				if dist == 0 || dist > limit {
					continue
				}
				sim := similarity(dist, len(token), len(kw))
				if sim < minFuzzySimilarity {
					continue
				}
				if bestDist == -1 || dist < bestDist || (dist == bestDist && sim > bestSim) {
					bestDomain, bestDist, bestSim = d, dist, sim
				}
			}
		}
	}
	return bestDomain, bestDomain != domain.DomainNone
}

func (r *Router) hasExactKeyword(tokens []string) bool {
	for _, t := range tokens {
		for _, set := range r.keywordSets {
			if _, ok := set[t]; ok {
				return true
			}
		}
	}
	return false
}

// fuzzyStopwords are common request verbs and fillers that sit within edit
// distance of product keywords ("show" vs "shoes") and must never fuzz.
var fuzzyStopwords = map[string]bool{
	"show": true, "find": true, "want": true, "need": true, "looking": true,
	"search": true, "give": true, "get": true, "buy": true, "like": true,
	"love": true, "have": true, "the": true, "for": true, "with": true,
	"something": true, "please": true, "best": true, "good": true,
	"about": true, "around": true, "under": true, "over": true,
}

// fuzzyThreshold scales the accepted edit distance with token length.
func fuzzyThreshold(length int) int {
	if length <= 5 {
		return 2
	}
	return 3
}

func similarity(dist, len1, len2 int) float64 {
	longest := len1
	if len2 > longest {
		longest = len2
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// categoryHint maps a stored filter category name to a domain by substring.
// Category names come from the catalog ("gaming laptops", "used vehicles"),
// so containment is the right test here, unlike message keywords.
func categoryHint(category string) domain.Domain {
	if category == "" {
		return domain.DomainNone
	}
	lower := strings.ToLower(category)
	for _, d := range domain.AllDomains {
		if strings.Contains(lower, string(d)) || strings.Contains(lower, strings.TrimSuffix(string(d), "s")) {
			return d
		}
	}
	return domain.DomainNone
}
