// Package normalize validates and cleans untrusted provider venue
// payloads into canonical model.Venue records.
package normalize

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"

	"github.com/summit-group/dining-cli/internal/geo"
	"github.com/summit-group/dining-cli/internal/model"
)

// RawVenue is the loosely-typed shape of a single venue entry as the
// provider emits it. Fields may be missing or inconsistently cased; the
// coordinate pointers distinguish absent from zero.
type RawVenue struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	Region          string   `json:"region"`
	PostalCode      string   `json:"postal_code"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Phone           string   `json:"phone"`
	Website         string   `json:"website"`
	VenueTypes      []string `json:"venue_types"`
	Cuisines        []string `json:"cuisines"`
	PriceBand       string   `json:"price_band"`
	ServesBreakfast bool     `json:"serves_breakfast"`
	ServesLunch     bool     `json:"serves_lunch"`
	ServesDinner    bool     `json:"serves_dinner"`
	ServesAlcohol   bool     `json:"serves_alcohol"`
	Ambiance        []string `json:"ambiance"`
	Features        []string `json:"features"`
	OnMountain      bool     `json:"on_mountain"`
	MountainZone    string   `json:"mountain_zone"`
	SkiInSkiOut     bool     `json:"ski_in_ski_out"`
	HoursNotes      string   `json:"hours_notes"`
}

// Rejection reports an entry the validator refused, with the best name it
// could recover.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Rejection reasons.
const (
	ReasonMalformed          = "malformed entry"
	ReasonMissingName        = "missing name"
	ReasonMissingCoordinates = "missing coordinates"
	ReasonInvalidCoordinates = "invalid coordinates"
)

// Normalize validates each raw provider entry and produces canonical
// venues plus a rejection list. It never fails: structurally broken or
// geographically implausible entries land in the rejection list, and
// everything else is cleaned into a Venue. fallbackCity and
// fallbackRegion fill location fields the provider omitted, so slugs stay
// stable relative to the resort being enriched.
func Normalize(entries []json.RawMessage, fallbackCity, fallbackRegion string) ([]model.Venue, []Rejection) {
	var valid []model.Venue
	var rejected []Rejection

	for _, entry := range entries {
		var raw RawVenue
		if err := json.Unmarshal(entry, &raw); err != nil {
			rejected = append(rejected, Rejection{Name: probeName(entry), Reason: ReasonMalformed})
			continue
		}

		name := strings.TrimSpace(raw.Name)
		if name == "" {
			rejected = append(rejected, Rejection{Reason: ReasonMissingName})
			continue
		}
		if raw.Latitude == nil || raw.Longitude == nil {
			rejected = append(rejected, Rejection{Name: name, Reason: ReasonMissingCoordinates})
			continue
		}
		if !geo.PlausibleCoordinates(*raw.Latitude, *raw.Longitude) {
			rejected = append(rejected, Rejection{Name: name, Reason: ReasonInvalidCoordinates})
			continue
		}

		valid = append(valid, clean(raw, name, fallbackCity, fallbackRegion))
	}

	return valid, rejected
}

// clean builds the canonical Venue from a structurally valid raw entry.
func clean(raw RawVenue, name, fallbackCity, fallbackRegion string) model.Venue {
	city := strings.TrimSpace(raw.City)
	if city == "" {
		city = strings.TrimSpace(fallbackCity)
	}
	region := strings.TrimSpace(raw.Region)
	if region == "" {
		region = strings.TrimSpace(fallbackRegion)
	}

	v := model.Venue{
		Name:        name,
		Slug:        Slug(name, city, region),
		Description: strings.TrimSpace(raw.Description),
		Address:     strings.TrimSpace(raw.Address),
		City:        city,
		Region:      region,
		PostalCode:  strings.TrimSpace(raw.PostalCode),
		Latitude:    *raw.Latitude,
		Longitude:   *raw.Longitude,
		Phone:       normalizePhone(raw.Phone),
		Website:     normalizeWebsite(raw.Website),

		VenueTypes: coerceVenueTypes(raw.VenueTypes),
		Cuisines:   coerceCuisines(raw.Cuisines),
		PriceBand:  coercePriceBand(raw.PriceBand),

		ServesBreakfast: raw.ServesBreakfast,
		ServesLunch:     raw.ServesLunch,
		ServesDinner:    raw.ServesDinner,
		ServesAlcohol:   raw.ServesAlcohol,

		Ambiance: coerceAmbiance(raw.Ambiance),
		Features: coerceFeatures(raw.Features),

		OnMountain:  raw.OnMountain,
		SkiInSkiOut: raw.SkiInSkiOut,
		HoursNotes:  strings.TrimSpace(raw.HoursNotes),

		Source:   model.SourceLLM,
		Verified: false,
		Active:   true,
	}

	if zone, ok := model.ParseMountainZone(token(raw.MountainZone)); ok {
		v.MountainZone = zone
	}

	return v
}

// token lower-cases a categorical value and collapses internal whitespace
// runs to single underscores, matching the enum spelling.
func token(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

func coerceVenueTypes(values []string) []model.VenueType {
	var out []model.VenueType
	for _, s := range values {
		if vt, ok := model.ParseVenueType(token(s)); ok && !slices.Contains(out, vt) {
			out = append(out, vt)
		}
	}
	if len(out) == 0 {
		out = []model.VenueType{model.DefaultVenueType}
	}
	return out
}

func coerceCuisines(values []string) []model.CuisineType {
	var out []model.CuisineType
	for _, s := range values {
		if c, ok := model.ParseCuisineType(token(s)); ok && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = []model.CuisineType{model.DefaultCuisine}
	}
	return out
}

func coercePriceBand(s string) model.PriceBand {
	if p, ok := model.ParsePriceBand(strings.TrimSpace(s)); ok {
		return p
	}
	return model.PriceBandModerate
}

func coerceAmbiance(values []string) []model.AmbianceTag {
	var out []model.AmbianceTag
	for _, s := range values {
		if a, ok := model.ParseAmbianceTag(token(s)); ok && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func coerceFeatures(values []string) []model.FeatureTag {
	var out []model.FeatureTag
	for _, s := range values {
		if f, ok := model.ParseFeatureTag(token(s)); ok && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// normalizePhone reduces a phone value to its digits (keeping a leading
// "+" for international numbers) and re-hyphenates ten-digit domestic
// numbers. Anything else passes through trimmed but unchanged.
func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 10 && !strings.HasPrefix(digits, "+") {
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	}
	return s
}

// normalizeWebsite keeps only URLs that parse and use http or https; a
// bad website never rejects the venue, it just drops the field.
func normalizeWebsite(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// probeName tries to recover a display name from an entry that failed
// full decoding, so rejections stay attributable.
func probeName(entry json.RawMessage) string {
	var probe struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(entry, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.Name)
}
