package model

import "time"

// ResortQuery is the unit of work for an enrichment run: one resort with
// known coordinates and the search parameters to use for it. Instances are
// read-only for the duration of processing.
type ResortQuery struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	NearestCity       string  `json:"nearest_city"`
	Region            string  `json:"region"`
	SearchRadiusMiles float64 `json:"search_radius_miles"`
	MaxVenues         int     `json:"max_venues"`
	AssetPath         string  `json:"asset_path,omitempty"`
	Active            bool    `json:"active"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
