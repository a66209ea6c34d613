// Package extract pulls structured filter values out of user text. Two
// independent paths live here: a stateless regex spec parser that works on
// any message, and an LLM-backed conversational extractor that only runs
// mid-interview. The engine merges their output; this package never does.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopgrove/concierge/internal/domain"
)

// Sanity ranges. A match outside its range is dropped rather than clamped,
// so "500 GB RAM" extracts nothing for RAM.
const (
	minRAMGB, maxRAMGB           = 2, 256
	minStorageGB, maxStorageGB   = 64, 8192
	minScreenIn, maxScreenIn     = 10.0, 21.0
	minBatteryHrs, maxBatteryHrs = 1, 30
	minYear, maxYear             = 2015, 2026
)

var (
	reRAM = regexp.MustCompile(`(?i)\b(\d{1,3})\s*gb\s*(?:of\s*)?(?:ddr\d\s*)?ram\b|\bram[\s:]*(\d{1,3})\s*gb\b`)

	// Storage wants either a TB figure or a GB figure near a storage word.
	reStorageTB  = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d)?)\s*tb\b`)
	reStorageGB  = regexp.MustCompile(`(?i)\b(\d{2,4})\s*gb\b(?:\s*(?:of\s*)?(?:ssd|hdd|nvme|storage|disk|drive|space))?`)
	reRAMContext = regexp.MustCompile(`(?i)\b(\d{1,3})\s*gb\s*(?:of\s*)?(?:ddr\d\s*)?ram\b`)

	reScreen  = regexp.MustCompile(`(?i)\b(\d{2}(?:\.\d)?)\s*(?:inch(?:es)?|in\b|")`)
	reBattery = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:hours?|hrs?)\b`)
	reYear    = regexp.MustCompile(`\b(20[0-9]{2})\b`)

	reStorageType = regexp.MustCompile(`(?i)\b(ssd|nvme|hdd)\b`)

	batteryWords = regexp.MustCompile(`(?i)\bbattery\b`)
)

// Price expressions. Amounts are stored in cents; a trailing "k" multiplies
// by one thousand.
var (
	rePriceRange  = regexp.MustCompile(`(?i)(?:\$\s*)?(\d[\d,]*(?:\.\d+)?)(k?)\s*(?:-|–|to|and)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)(k?)`)
	rePriceUnder  = regexp.MustCompile(`(?i)\b(?:under|below|less than|at most|max(?:imum)?(?: of)?|up to|within)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)(k?)\b`)
	rePriceOver   = regexp.MustCompile(`(?i)\b(?:over|above|at least|more than|min(?:imum)?(?: of)?|starting (?:at|from))\s*\$?\s*(\d[\d,]*(?:\.\d+)?)(k?)\b`)
	rePriceSingle = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)(k?)`)
	rePriceCue    = regexp.MustCompile(`(?i)\$|\b(budget|price|cost|spend|pay|between|dollars?|bucks)\b`)

	// A number followed by a hardware unit is a spec, never a price.
	reUnitAfter = regexp.MustCompile(`(?i)^\s*(gb|tb|gigs?|hours?|hrs?|inch(es)?|"|years?|ghz|mhz)\b`)
)

var useCaseKeywords = map[string][]string{
	"gaming":        {"gaming", "game", "games", "gamer", "fortnite", "steam", "unity", "unreal", "esports"},
	"ml":            {"pytorch", "tensorflow", "machine learning", "deep learning", "cuda", "data science", "llm", "ai training"},
	"web_dev":       {"figma", "web development", "web dev", "react", "javascript", "frontend", "backend", "web design"},
	"video_editing": {"video editing", "premiere", "davinci resolve", "after effects", "rendering", "filmmaking"},
	"programming":   {"programming", "coding", "software development", "vscode", "docker", "compiling"},
	"linux":         {"ubuntu", "linux", "fedora", "debian", "arch"},
	"business":      {"business", "excel", "spreadsheets", "office work", "accounting"},
	"school":        {"school", "college", "university", "student", "homework", "studying"},
	"travel":        {"travel", "portable", "lightweight", "commute", "commuting"},
}

var brandTokens = map[string]string{
	"apple": "apple", "macbook": "apple", "dell": "dell", "hp": "hp",
	"lenovo": "lenovo", "thinkpad": "lenovo", "asus": "asus", "acer": "acer",
	"msi": "msi", "razer": "razer", "samsung": "samsung",
	"microsoft": "microsoft", "surface": "microsoft", "alienware": "dell",
	"toyota": "toyota", "honda": "honda", "ford": "ford", "tesla": "tesla",
	"subaru": "subaru", "nissan": "nissan", "sony": "sony",
}

var colorTokens = map[string]string{
	"black": "black", "white": "white", "silver": "silver", "gray": "gray",
	"grey": "gray", "red": "red", "blue": "blue", "green": "green",
	"pink": "pink", "purple": "purple", "rose": "rose gold",
}

var osPhrases = []struct {
	os string
	re *regexp.Regexp
}{
	{"windows", regexp.MustCompile(`(?i)\bwindows\b`)},
	{"macos", regexp.MustCompile(`(?i)\b(macos|mac os|osx)\b`)},
	{"linux", regexp.MustCompile(`(?i)\b(linux|ubuntu|fedora|debian)\b`)},
	{"chromeos", regexp.MustCompile(`(?i)\b(chromeos|chrome os)\b`)},
}

var reWordToken = regexp.MustCompile(`[a-z0-9]+`)

// Per-phrase word-boundary matchers, compiled once.
var useCaseMatchers = func() map[string][]*regexp.Regexp {
	m := make(map[string][]*regexp.Regexp, len(useCaseKeywords))
	for tag, phrases := range useCaseKeywords {
		for _, p := range phrases {
			m[tag] = append(m[tag], regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)+`\b`))
		}
	}
	return m
}()

// ParseSpecs extracts hardware specs, prices, and use-case tags from free
// text. It is stateless and ignores conversation stage entirely.
func ParseSpecs(text string) domain.ExtractedFilters {
	var f domain.ExtractedFilters
	lower := strings.ToLower(text)

	if v, ok := parseRAM(text); ok {
		f.MinRAMGB = &v
	}
	if v, ok := parseStorage(text); ok {
		f.MinStorageGB = &v
	}
	if m := reScreen.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= minScreenIn && v <= maxScreenIn {
			f.MinScreenInches = &v
		}
	}
	if batteryWords.MatchString(text) {
		if m := reBattery.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v >= minBatteryHrs && v <= maxBatteryHrs {
				f.MinBatteryHours = &v
			}
		}
	}
	for _, m := range reYear.FindAllStringSubmatchIndex(text, -1) {
		// A dollar sign in front means it's a price, not a model year.
		if m[0] > 0 && text[m[0]-1] == '$' {
			continue
		}
		if v, err := strconv.Atoi(text[m[2]:m[3]]); err == nil && v >= minYear && v <= maxYear {
			f.MinYear = &v
			break
		}
	}
	if m := reStorageType.FindStringSubmatch(text); m != nil {
		st := strings.ToLower(m[1])
		f.StorageType = &st
	}

	parsePrice(text, &f)

	tokens := reWordToken.FindAllString(lower, -1)
	for _, t := range tokens {
		if brand, ok := brandTokens[t]; ok {
			f.Brand = &brand
			break
		}
	}
	for _, t := range tokens {
		if color, ok := colorTokens[t]; ok {
			f.Color = &color
			break
		}
	}
	for _, p := range osPhrases {
		if p.re.MatchString(text) {
			os := p.os
			f.OS = &os
			break
		}
	}

	for tag, matchers := range useCaseMatchers {
		for _, re := range matchers {
			if re.MatchString(text) {
				f.UseCases = append(f.UseCases, tag)
				break
			}
		}
	}
	if len(f.UseCases) > 1 {
		// Map iteration order is random; keep output stable.
		sort.Strings(f.UseCases)
	}

	return f
}

func parseRAM(text string) (int, bool) {
	m := reRAM.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < minRAMGB || v > maxRAMGB {
		return 0, false
	}
	return v, true
}

func parseStorage(text string) (int, bool) {
	if m := reStorageTB.FindStringSubmatch(text); m != nil {
		if tb, err := strconv.ParseFloat(m[1], 64); err == nil {
			gb := int(tb * 1024)
			if gb >= minStorageGB && gb <= maxStorageGB {
				return gb, true
			}
		}
	}

	// GB figures that belong to a RAM clause are not storage.
	ramSpans := reRAMContext.FindAllStringIndex(text, -1)
	for _, m := range reStorageGB.FindAllStringSubmatchIndex(text, -1) {
		if insideAny(m[0], ramSpans) {
			continue
		}
		v, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || v < minStorageGB || v > maxStorageGB {
			continue
		}
		return v, true
	}
	return 0, false
}

func parsePrice(text string, f *domain.ExtractedFilters) {
	if m := rePriceRange.FindStringSubmatchIndex(text); m != nil && !unitFollows(text, m[1]) {
		matched := text[m[0]:m[1]]
		if strings.Contains(matched, "$") || rePriceCue.MatchString(text) {
			lo := amountCents(text[m[2]:m[3]], text[m[4]:m[5]])
			hi := amountCents(text[m[6]:m[7]], text[m[8]:m[9]])
			if lo > 0 && hi > 0 && lo < hi {
				f.PriceMinCents = &lo
				f.PriceMaxCents = &hi
				return
			}
		}
	}
	if m := rePriceUnder.FindStringSubmatchIndex(text); m != nil && !unitFollows(text, m[1]) {
		if v := amountCents(text[m[2]:m[3]], text[m[4]:m[5]]); v > 0 {
			f.PriceMaxCents = &v
			return
		}
	}
	if m := rePriceOver.FindStringSubmatchIndex(text); m != nil && !unitFollows(text, m[1]) {
		if v := amountCents(text[m[2]:m[3]], text[m[4]:m[5]]); v > 0 {
			f.PriceMinCents = &v
			return
		}
	}
	if m := rePriceSingle.FindStringSubmatchIndex(text); m != nil && !unitFollows(text, m[1]) {
		if v := amountCents(text[m[2]:m[3]], text[m[4]:m[5]]); v > 0 {
			f.PriceMaxCents = &v
		}
	}
}

// unitFollows reports whether the text right after a numeric match is a
// hardware unit, which disqualifies it as a price.
func unitFollows(text string, end int) bool {
	return reUnitAfter.MatchString(text[end:])
}

func amountCents(raw, k string) int64 {
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0
	}
	if k == "k" || k == "K" {
		v *= 1000
	}
	return int64(v * 100)
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}
