package domain

// Canonical filter keys. The session filter map and the question planner use
// these names; anything else lives in the extensible "_metadata" bucket and
// never reaches collaborators.
const (
	FilterPriceMinCents   = "price_min_cents"
	FilterPriceMaxCents   = "price_max_cents"
	FilterBrand           = "brand"
	FilterMinRAMGB        = "min_ram_gb"
	FilterMinStorageGB    = "min_storage_gb"
	FilterMinScreenInches = "min_screen_inches"
	FilterMinBatteryHours = "min_battery_hours"
	FilterStorageType     = "storage_type"
	FilterUseCases        = "use_cases"
	FilterColor           = "color"
	FilterOS              = "os"
	FilterMinYear         = "min_year"
	FilterSubcategory     = "subcategory"
)

// ExtractedFilters is the sparse result of one extraction pass. The key set
// is small and fixed, so this is a struct of optionals rather than an open
// map: a nil field means the pass said nothing about it, and "no preference"
// and "unknown" both collapse to absent.
type ExtractedFilters struct {
	PriceMinCents   *int64   `json:"price_min_cents,omitempty"`
	PriceMaxCents   *int64   `json:"price_max_cents,omitempty"`
	Brand           *string  `json:"brand,omitempty"`
	MinRAMGB        *int     `json:"min_ram_gb,omitempty"`
	MinStorageGB    *int     `json:"min_storage_gb,omitempty"`
	MinScreenInches *float64 `json:"min_screen_inches,omitempty"`
	MinBatteryHours *int     `json:"min_battery_hours,omitempty"`
	StorageType     *string  `json:"storage_type,omitempty"`
	UseCases        []string `json:"use_cases,omitempty"`
	Color           *string  `json:"color,omitempty"`
	OS              *string  `json:"os,omitempty"`
	MinYear         *int     `json:"min_year,omitempty"`
	Subcategory     *string  `json:"subcategory,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f ExtractedFilters) IsEmpty() bool {
	return f.PriceMinCents == nil && f.PriceMaxCents == nil && f.Brand == nil &&
		f.MinRAMGB == nil && f.MinStorageGB == nil && f.MinScreenInches == nil &&
		f.MinBatteryHours == nil && f.StorageType == nil && len(f.UseCases) == 0 &&
		f.Color == nil && f.OS == nil && f.MinYear == nil && f.Subcategory == nil
}

// Merge overlays other on top of f: any field other sets wins, and use-case
// lists are unioned. Neither receiver nor argument is mutated.
func (f ExtractedFilters) Merge(other ExtractedFilters) ExtractedFilters {
	out := f
	if other.PriceMinCents != nil {
		out.PriceMinCents = other.PriceMinCents
	}
	if other.PriceMaxCents != nil {
		out.PriceMaxCents = other.PriceMaxCents
	}
	if other.Brand != nil {
		out.Brand = other.Brand
	}
	if other.MinRAMGB != nil {
		out.MinRAMGB = other.MinRAMGB
	}
	if other.MinStorageGB != nil {
		out.MinStorageGB = other.MinStorageGB
	}
	if other.MinScreenInches != nil {
		out.MinScreenInches = other.MinScreenInches
	}
	if other.MinBatteryHours != nil {
		out.MinBatteryHours = other.MinBatteryHours
	}
	if other.StorageType != nil {
		out.StorageType = other.StorageType
	}
	if other.Color != nil {
		out.Color = other.Color
	}
	if other.OS != nil {
		out.OS = other.OS
	}
	if other.MinYear != nil {
		out.MinYear = other.MinYear
	}
	if other.Subcategory != nil {
		out.Subcategory = other.Subcategory
	}
	if len(other.UseCases) > 0 {
		seen := make(map[string]struct{}, len(f.UseCases)+len(other.UseCases))
		merged := make([]string, 0, len(f.UseCases)+len(other.UseCases))
		for _, uc := range append(append([]string(nil), f.UseCases...), other.UseCases...) {
			if _, ok := seen[uc]; ok {
				continue
			}
			seen[uc] = struct{}{}
			merged = append(merged, uc)
		}
		out.UseCases = merged
	}
	return out
}

// ToMap flattens the set fields into the session filter map shape. Absent
// fields produce no key.
func (f ExtractedFilters) ToMap() map[string]any {
	out := make(map[string]any)
	if f.PriceMinCents != nil {
		out[FilterPriceMinCents] = *f.PriceMinCents
	}
	if f.PriceMaxCents != nil {
		out[FilterPriceMaxCents] = *f.PriceMaxCents
	}
	if f.Brand != nil {
		out[FilterBrand] = *f.Brand
	}
	if f.MinRAMGB != nil {
		out[FilterMinRAMGB] = *f.MinRAMGB
	}
	if f.MinStorageGB != nil {
		out[FilterMinStorageGB] = *f.MinStorageGB
	}
	if f.MinScreenInches != nil {
		out[FilterMinScreenInches] = *f.MinScreenInches
	}
	if f.MinBatteryHours != nil {
		out[FilterMinBatteryHours] = *f.MinBatteryHours
	}
	if f.StorageType != nil {
		out[FilterStorageType] = *f.StorageType
	}
	if len(f.UseCases) > 0 {
		out[FilterUseCases] = append([]string(nil), f.UseCases...)
	}
	if f.Color != nil {
		out[FilterColor] = *f.Color
	}
	if f.OS != nil {
		out[FilterOS] = *f.OS
	}
	if f.MinYear != nil {
		out[FilterMinYear] = *f.MinYear
	}
	if f.Subcategory != nil {
		out[FilterSubcategory] = *f.Subcategory
	}
	return out
}
