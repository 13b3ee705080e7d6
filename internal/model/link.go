package model

import "time"

// ResortVenueLink associates a venue with a resort, carrying facts that
// only make sense relative to that resort. Upserted per run, keyed on the
// (resort, venue) pair; never pruned.
//
// Preferred is operator-controlled and must survive link updates
// untouched.
type ResortVenueLink struct {
	ResortID         string  `json:"resort_id"`
	VenueID          string  `json:"venue_id"`
	DistanceMiles    float64 `json:"distance_miles"`
	DriveTimeMinutes int     `json:"drive_time_minutes"`
	OnMountain       bool    `json:"on_mountain"`
	Preferred        bool    `json:"preferred"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
