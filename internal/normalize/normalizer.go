// Package normalize repairs noisy queries before routing: character-run
// typos are collapsed, misspelled brand and product words are corrected by
// edit distance, and recognized synonyms are expanded for the search side.
//
// Correction thresholds are fixed at distance <= 2 and similarity >= 0.7; a
// candidate must clear both. Runs of three or more identical non-digit
// characters collapse to two, so "sooo" becomes "soo" but "10000" survives.
package normalize

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/shopgrove/concierge/internal/domain"
)

const (
	maxCorrectionDistance = 2
	minSimilarity         = 0.7
)

var reToken = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9'-]*`)

// defaultDictionary covers the brand and product vocabulary the corrector
// knows how to repair. Tokens shorter than three characters are never
// corrected, so acronyms are safe to leave out.
var defaultDictionary = []string{
	// brands
	"nvidia", "intel", "amd", "ryzen", "apple", "macbook", "dell", "lenovo",
	"thinkpad", "asus", "acer", "msi", "razer", "samsung", "microsoft",
	"toyota", "honda", "ford", "tesla", "subaru", "nissan", "chevrolet",
	"pandora", "tiffany", "swarovski", "sephora", "maybelline", "loreal",
	// product words
	"laptop", "laptops", "notebook", "computer", "desktop", "chromebook",
	"ultrabook", "gaming", "graphics", "processor", "memory", "storage",
	"battery", "screen", "display", "keyboard", "wireless", "bluetooth",
	"vehicle", "truck", "sedan", "motorcycle", "convertible",
	"book", "books", "novel", "fiction", "fantasy", "mystery", "thriller",
	"romance", "biography", "paperback", "hardcover", "textbook",
	"necklace", "bracelet", "earrings", "pendant", "diamond", "jewelry",
	"backpack", "wallet", "sunglasses", "watch", "handbag",
	"jacket", "hoodie", "sweater", "sneakers", "jeans", "dress",
	"lipstick", "mascara", "shampoo", "perfume", "moisturizer", "skincare",
}

// defaultSynonyms maps a canonical token to its recognized alternatives.
// Lookup is bidirectional: hitting either side expands to the full group.
var defaultSynonyms = map[string][]string{
	"laptop":     {"notebook", "ultrabook", "portable computer"},
	"computer":   {"pc", "machine"},
	"vehicle":    {"car", "auto", "automobile"},
	"book":       {"novel", "read"},
	"cheap":      {"budget", "affordable", "inexpensive"},
	"fast":       {"quick", "speedy", "powerful"},
	"screen":     {"display", "monitor"},
	"storage":    {"disk", "drive"},
	"gpu":        {"graphics card", "video card"},
	"headphones": {"earbuds", "earphones"},
}

// Normalizer corrects typos and expands synonyms in user queries.
type Normalizer struct {
	dictionary []string
	synonyms   map[string][]string
	reverse    map[string]string
}

// New returns a Normalizer with the built-in dictionary and synonym map.
func New() *Normalizer {
	n := &Normalizer{
		dictionary: defaultDictionary,
		synonyms:   defaultSynonyms,
		reverse:    make(map[string]string),
	}
	for key, vals := range defaultSynonyms {
		for _, v := range vals {
			n.reverse[v] = key
		}
	}
	return n
}

// Normalize runs repetition collapse, dictionary correction, and synonym
// expansion over text. Changed is true only when the text itself changed;
// finding synonyms alone does not count.
func (n *Normalizer) Normalize(text string) domain.NormalizationResult {
	result := domain.NormalizationResult{
		Original:    text,
		Corrections: make(map[string]string),
		Expansions:  make(map[string][]string),
	}

	collapsed := collapseRepeats(text)

	normalized := reToken.ReplaceAllStringFunc(collapsed, func(token string) string {
		corrected, ok := n.correct(strings.ToLower(token))
		if !ok {
			return token
		}
		result.Corrections[token] = corrected
		return corrected
	})

	for _, token := range reToken.FindAllString(normalized, -1) {
		if expanded := n.expand(strings.ToLower(token)); len(expanded) > 1 {
			result.Expansions[strings.ToLower(token)] = expanded
		}
	}

	result.Normalized = normalized
	result.Changed = normalized != text
	return result
}

// correct returns the closest dictionary entry for token if it clears both
// thresholds. An exact dictionary hit short-circuits with no change.
func (n *Normalizer) correct(token string) (string, bool) {
	if len(token) < 3 {
		return "", false
	}
	for _, entry := range n.dictionary {
		if token == entry {
			return "", false
		}
	}

	best := ""
	bestDist := maxCorrectionDistance + 1
	for _, entry := range n.dictionary {
		d := levenshtein.ComputeDistance(token, entry)
		if d < bestDist {
			bestDist = d
			best = entry
		}
	}
	if best == "" || bestDist > maxCorrectionDistance {
		return "", false
	}
	if similarity(bestDist, len(token), len(best)) < minSimilarity {
		return "", false
	}
	return best, true
}

// expand returns the deduplicated synonym group for token, always including
// the token itself first. A single-element result means no synonyms exist.
func (n *Normalizer) expand(token string) []string {
	group := []string{token}
	seen := map[string]struct{}{token: {}}
	add := func(words ...string) {
		for _, w := range words {
			if _, ok := seen[w]; !ok {
				seen[w] = struct{}{}
				group = append(group, w)
			}
		}
	}
	if vals, ok := n.synonyms[token]; ok {
		add(vals...)
	}
	if key, ok := n.reverse[token]; ok {
		add(key)
		add(n.synonyms[key]...)
	}
	return group
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

// collapseRepeats caps runs of identical non-digit characters at two. Digit
// runs are preserved so prices keep their zeros.
func collapseRepeats(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	var prev rune = -1
	run := 0
	for _, r := range text {
		if r == prev && !(r >= '0' && r <= '9') {
			run++
			if run > 2 {
				continue
			}
		} else {
			prev = r
			run = 1
		}
		b.WriteRune(r)
	}
	return b.String()
}
