package router

import (
	"testing"

	"github.com/shopgrove/concierge/internal/domain"
)

func TestRouter_Detect(t *testing.T) {
	r := New()

	tests := []struct {
		name           string
		message        string
		activeDomain   domain.Domain
		filterCategory string
		wantDomain     domain.Domain
		wantReason     domain.RouteReason
	}{
		{
			name:       "one word intent",
			message:    "books",
			wantDomain: domain.DomainBooks,
			wantReason: domain.ReasonDomainIntent,
		},
		{
			name:       "one word intent plural laptops",
			message:    "Laptops",
			wantDomain: domain.DomainLaptops,
			wantReason: domain.ReasonDomainIntent,
		},
		{
			name:       "fuzzy misspelled books",
			message:    "booksss",
			wantDomain: domain.DomainBooks,
			wantReason: domain.ReasonFuzzyMatch,
		},
		{
			name:       "fuzzy misspelled computer",
			message:    "computr",
			wantDomain: domain.DomainLaptops,
			wantReason: domain.ReasonFuzzyMatch,
		},
		{
			name:       "gaming pc routes via desktop phrase",
			message:    "gaming pc",
			wantDomain: domain.DomainLaptops,
			wantReason: domain.ReasonKeywordDesktop,
		},
		{
			name:       "macbook air never hits book keywords",
			message:    "MacBook Air",
			wantDomain: domain.DomainLaptops,
			wantReason: domain.ReasonKeywordLaptop,
		},
		{
			name:         "explicit keyword overrides active domain",
			message:      "show me laptops",
			activeDomain: domain.DomainBooks,
			wantDomain:   domain.DomainLaptops,
			wantReason:   domain.ReasonKeywordLaptop,
		},
		{
			name:       "vehicles before laptops for shared brands",
			message:    "a used toyota",
			wantDomain: domain.DomainVehicles,
			wantReason: domain.ReasonKeywordVehicle,
		},
		{
			name:       "jewelry keyword",
			message:    "a diamond necklace for my wife",
			wantDomain: domain.DomainJewelry,
			wantReason: domain.ReasonKeywordJewelry,
		},
		{
			name:         "short reply continues session",
			message:      "Gaming",
			activeDomain: domain.DomainLaptops,
			wantDomain:   domain.DomainLaptops,
			wantReason:   domain.ReasonSessionContinuation,
		},
		{
			name:         "price reply continues session",
			message:      "$500-$1000",
			activeDomain: domain.DomainBooks,
			wantDomain:   domain.DomainBooks,
			wantReason:   domain.ReasonSessionContinuation,
		},
		{
			name:         "empty message continues session",
			message:      "   ",
			activeDomain: domain.DomainBeauty,
			wantDomain:   domain.DomainBeauty,
			wantReason:   domain.ReasonSessionContinuation,
		},
		{
			name:           "empty message with category hint",
			message:        "",
			filterCategory: "gaming laptops",
			wantDomain:     domain.DomainLaptops,
			wantReason:     domain.ReasonFilterCategory,
		},
		{
			name:       "empty message nothing known",
			message:    "",
			wantDomain: domain.DomainNone,
			wantReason: domain.ReasonEmpty,
		},
		{
			name:           "category hint for unmatched text",
			message:        "something nice",
			filterCategory: "fine jewelry",
			wantDomain:     domain.DomainJewelry,
			wantReason:     domain.ReasonFilterCategory,
		},
		{
			name:       "no signal at all",
			message:    "something nice",
			wantDomain: domain.DomainNone,
			wantReason: domain.ReasonAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Detect(tt.message, tt.activeDomain, tt.filterCategory)
			if got.Domain != tt.wantDomain {
				t.Errorf("Detect(%q) domain = %q, want %q", tt.message, got.Domain, tt.wantDomain)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Detect(%q) reason = %q, want %q", tt.message, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestRouter_IsSwitch(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		active   domain.Domain
		detected domain.DomainDetection
		want     bool
	}{
		{
			name:     "books to laptops",
			active:   domain.DomainBooks,
			detected: domain.DomainDetection{Domain: domain.DomainLaptops, Reason: domain.ReasonKeywordLaptop},
			want:     true,
		},
		{
			name:     "no active domain",
			active:   domain.DomainNone,
			detected: domain.DomainDetection{Domain: domain.DomainLaptops, Reason: domain.ReasonKeywordLaptop},
			want:     false,
		},
		{
			name:     "same domain",
			active:   domain.DomainBooks,
			detected: domain.DomainDetection{Domain: domain.DomainBooks, Reason: domain.ReasonKeywordBook},
			want:     false,
		},
		{
			name:     "nothing detected",
			active:   domain.DomainBooks,
			detected: domain.DomainDetection{Domain: domain.DomainNone, Reason: domain.ReasonAmbiguous},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IsSwitch(tt.active, tt.detected); got != tt.want {
				t.Errorf("IsSwitch(%q, %v) = %v, want %v", tt.active, tt.detected, got, tt.want)
			}
		})
	}
}
