// Package resorts loads resort seed files for the import command.
package resorts

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/summit-group/dining-cli/internal/geo"
	"github.com/summit-group/dining-cli/internal/model"
)

// Defaults applied to seed entries that omit search parameters.
const (
	DefaultSearchRadiusMiles = 10.0
	DefaultMaxVenues         = 25
)

type seedFile struct {
	Resorts []seedResort `yaml:"resorts"`
}

type seedResort struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	Latitude          float64 `yaml:"latitude"`
	Longitude         float64 `yaml:"longitude"`
	NearestCity       string  `yaml:"nearest_city"`
	Region            string  `yaml:"region"`
	SearchRadiusMiles float64 `yaml:"search_radius_miles"`
	MaxVenues         int     `yaml:"max_venues"`
	AssetPath         string  `yaml:"asset_path"`
	Active            *bool   `yaml:"active"`
}

// Load reads and validates a YAML resort seed file. Every entry must
// carry a name and plausible coordinates; search parameters default when
// omitted and active defaults to true.
func Load(path string) ([]model.ResortQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resorts: read %s", path)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "resorts: parse %s", path)
	}
	if len(file.Resorts) == 0 {
		return nil, eris.Errorf("resorts: %s contains no resorts", path)
	}

	out := make([]model.ResortQuery, 0, len(file.Resorts))
	for i, r := range file.Resorts {
		if r.Name == "" {
			return nil, eris.Errorf("resorts: entry %d has no name", i)
		}
		if !geo.PlausibleCoordinates(r.Latitude, r.Longitude) {
			return nil, eris.Errorf("resorts: %s has implausible coordinates (%.4f, %.4f)",
				r.Name, r.Latitude, r.Longitude)
		}

		radius := r.SearchRadiusMiles
		if radius <= 0 {
			radius = DefaultSearchRadiusMiles
		}
		maxVenues := r.MaxVenues
		if maxVenues <= 0 {
			maxVenues = DefaultMaxVenues
		}
		active := true
		if r.Active != nil {
			active = *r.Active
		}

		out = append(out, model.ResortQuery{
			ID:                r.ID,
			Name:              r.Name,
			Latitude:          r.Latitude,
			Longitude:         r.Longitude,
			NearestCity:       r.NearestCity,
			Region:            r.Region,
			SearchRadiusMiles: radius,
			MaxVenues:         maxVenues,
			AssetPath:         r.AssetPath,
			Active:            active,
		})
	}
	return out, nil
}
