package model

import "time"

// VenueType classifies a dining venue. The set is closed; unrecognized
// provider values are dropped and an empty list falls back to
// DefaultVenueType.
type VenueType string

const (
	VenueTypeRestaurant VenueType = "restaurant"
	VenueTypeCafe       VenueType = "cafe"
	VenueTypeBar        VenueType = "bar"
	VenueTypePub        VenueType = "pub"
	VenueTypeBakery     VenueType = "bakery"
	VenueTypePizzeria   VenueType = "pizzeria"
	VenueTypeSteakhouse VenueType = "steakhouse"
	VenueTypeFineDining VenueType = "fine_dining"
	VenueTypeFoodTruck  VenueType = "food_truck"
	VenueTypeBrewery    VenueType = "brewery"
	VenueTypeDistillery VenueType = "distillery"
)

// DefaultVenueType is assigned when a venue carries no recognized type.
const DefaultVenueType = VenueTypeRestaurant

// AllVenueTypes lists every valid VenueType.
var AllVenueTypes = []VenueType{
	VenueTypeRestaurant, VenueTypeCafe, VenueTypeBar, VenueTypePub,
	VenueTypeBakery, VenueTypePizzeria, VenueTypeSteakhouse,
	VenueTypeFineDining, VenueTypeFoodTruck, VenueTypeBrewery,
	VenueTypeDistillery,
}

// ParseVenueType matches a normalized token against the closed set.
func ParseVenueType(s string) (VenueType, bool) {
	for _, vt := range AllVenueTypes {
		if string(vt) == s {
			return vt, true
		}
	}
	return "", false
}

// CuisineType classifies a venue's cuisine. Closed set with
// DefaultCuisine fallback.
type CuisineType string

const (
	CuisineAmerican      CuisineType = "american"
	CuisineItalian       CuisineType = "italian"
	CuisineMexican       CuisineType = "mexican"
	CuisineFrench        CuisineType = "french"
	CuisineJapanese      CuisineType = "japanese"
	CuisineChinese       CuisineType = "chinese"
	CuisineThai          CuisineType = "thai"
	CuisineIndian        CuisineType = "indian"
	CuisineMediterranean CuisineType = "mediterranean"
	CuisineSeafood       CuisineType = "seafood"
	CuisineBBQ           CuisineType = "bbq"
	CuisinePizza         CuisineType = "pizza"
	CuisineSushi         CuisineType = "sushi"
	CuisineVegetarian    CuisineType = "vegetarian"
	CuisineAlpine        CuisineType = "alpine"
)

// DefaultCuisine is assigned when a venue carries no recognized cuisine.
const DefaultCuisine = CuisineAmerican

// AllCuisineTypes lists every valid CuisineType.
var AllCuisineTypes = []CuisineType{
	CuisineAmerican, CuisineItalian, CuisineMexican, CuisineFrench,
	CuisineJapanese, CuisineChinese, CuisineThai, CuisineIndian,
	CuisineMediterranean, CuisineSeafood, CuisineBBQ, CuisinePizza,
	CuisineSushi, CuisineVegetarian, CuisineAlpine,
}

// ParseCuisineType matches a normalized token against the closed set.
func ParseCuisineType(s string) (CuisineType, bool) {
	for _, c := range AllCuisineTypes {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// PriceBand is one of four fixed symbols. Unmatched values default to
// the middle band PriceBandModerate.
type PriceBand string

const (
	PriceBandBudget   PriceBand = "$"
	PriceBandModerate PriceBand = "$$"
	PriceBandUpscale  PriceBand = "$$$"
	PriceBandLuxury   PriceBand = "$$$$"
)

// AllPriceBands lists the four valid price bands.
var AllPriceBands = []PriceBand{
	PriceBandBudget, PriceBandModerate, PriceBandUpscale, PriceBandLuxury,
}

// ParsePriceBand matches a token against the four bands; the boolean is
// false when the caller should apply the default.
func ParsePriceBand(s string) (PriceBand, bool) {
	for _, p := range AllPriceBands {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// AmbianceTag describes a venue's atmosphere.
type AmbianceTag string

const (
	AmbianceCasual         AmbianceTag = "casual"
	AmbianceUpscale        AmbianceTag = "upscale"
	AmbianceFamilyFriendly AmbianceTag = "family_friendly"
	AmbianceRomantic       AmbianceTag = "romantic"
	AmbianceLively         AmbianceTag = "lively"
	AmbianceCozy           AmbianceTag = "cozy"
	AmbianceRustic         AmbianceTag = "rustic"
)

// AllAmbianceTags lists every valid AmbianceTag.
var AllAmbianceTags = []AmbianceTag{
	AmbianceCasual, AmbianceUpscale, AmbianceFamilyFriendly,
	AmbianceRomantic, AmbianceLively, AmbianceCozy, AmbianceRustic,
}

// ParseAmbianceTag matches a normalized token against the closed set.
func ParseAmbianceTag(s string) (AmbianceTag, bool) {
	for _, a := range AllAmbianceTags {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// FeatureTag describes a venue amenity.
type FeatureTag string

const (
	FeatureOutdoorSeating FeatureTag = "outdoor_seating"
	FeatureFireplace      FeatureTag = "fireplace"
	FeatureLiveMusic      FeatureTag = "live_music"
	FeatureSlopeView      FeatureTag = "slope_view"
	FeatureTakeout        FeatureTag = "takeout"
	FeatureDelivery       FeatureTag = "delivery"
	FeatureReservations   FeatureTag = "reservations"
	FeatureFullBar        FeatureTag = "full_bar"
	FeatureCraftBeer      FeatureTag = "craft_beer"
	FeatureKidsMenu       FeatureTag = "kids_menu"
)

// AllFeatureTags lists every valid FeatureTag.
var AllFeatureTags = []FeatureTag{
	FeatureOutdoorSeating, FeatureFireplace, FeatureLiveMusic,
	FeatureSlopeView, FeatureTakeout, FeatureDelivery,
	FeatureReservations, FeatureFullBar, FeatureCraftBeer,
	FeatureKidsMenu,
}

// ParseFeatureTag matches a normalized token against the closed set.
func ParseFeatureTag(s string) (FeatureTag, bool) {
	for _, f := range AllFeatureTags {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// MountainZone locates an on-mountain venue within the resort. Empty
// means no zone assigned.
type MountainZone string

const (
	ZoneBase        MountainZone = "base"
	ZoneMidMountain MountainZone = "mid_mountain"
	ZoneSummit      MountainZone = "summit"
	ZoneVillage     MountainZone = "village"
)

// AllMountainZones lists every valid MountainZone.
var AllMountainZones = []MountainZone{
	ZoneBase, ZoneMidMountain, ZoneSummit, ZoneVillage,
}

// ParseMountainZone matches a normalized token against the closed set.
func ParseMountainZone(s string) (MountainZone, bool) {
	for _, z := range AllMountainZones {
		if string(z) == s {
			return z, true
		}
	}
	return "", false
}

// Provenance records where a venue record originated.
type Provenance string

const (
	SourceLLM       Provenance = "llm"
	SourceManual    Provenance = "manual"
	SourceDirectory Provenance = "external-directory"
)

// Venue is the canonical, validated venue record.
// Invariant: VenueTypes and Cuisines are never empty after normalization.
type Venue struct {
	ID          string `json:"id,omitempty"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Address    string  `json:"address"`
	City       string  `json:"city"`
	Region     string  `json:"region"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`

	Phone   string `json:"phone"`
	Website string `json:"website"`

	VenueTypes []VenueType   `json:"venue_types"`
	Cuisines   []CuisineType `json:"cuisines"`
	PriceBand  PriceBand     `json:"price_band"`

	ServesBreakfast bool `json:"serves_breakfast"`
	ServesLunch     bool `json:"serves_lunch"`
	ServesDinner    bool `json:"serves_dinner"`
	ServesAlcohol   bool `json:"serves_alcohol"`

	Ambiance []AmbianceTag `json:"ambiance"`
	Features []FeatureTag  `json:"features"`

	OnMountain   bool         `json:"on_mountain"`
	MountainZone MountainZone `json:"mountain_zone,omitempty"`
	SkiInSkiOut  bool         `json:"ski_in_ski_out"`

	HoursNotes string `json:"hours_notes"`

	Source   Provenance `json:"source"`
	Verified bool       `json:"verified"`
	Active   bool       `json:"active"`

	LastEnrichedAt time.Time `json:"last_enriched_at,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}
