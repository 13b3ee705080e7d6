package llm

import (
	"fmt"
	"strings"

	"github.com/summit-group/dining-cli/internal/model"
)

const systemPrompt = `You are a dining research assistant specializing in mountain resort destinations. You identify real, currently operating dining venues near ski and mountain resorts: restaurants, bars, cafes, on-mountain lodges, and similar establishments.

Rules:
- Only include venues you are confident actually exist. Never invent venues.
- Prefer venues a resort guest could realistically visit during a stay.
- Respond with a single JSON object and nothing else. No markdown, no commentary.
- Omit any field you do not know rather than guessing. Coordinates are required.`

// buildUserPrompt renders the per-resort query, embedding the closed
// vocabularies so the provider's categorical fields line up with ours.
func buildUserPrompt(resort model.ResortQuery) string {
	var b strings.Builder

	fmt.Fprintf(&b, "List up to %d dining venues within about %.0f miles of %s",
		resort.MaxVenues, resort.SearchRadiusMiles, resort.Name)
	if resort.NearestCity != "" {
		fmt.Fprintf(&b, " (nearest city: %s, %s)", resort.NearestCity, resort.Region)
	}
	fmt.Fprintf(&b, ".\nResort coordinates: %.5f, %.5f.\n\n", resort.Latitude, resort.Longitude)

	b.WriteString("Return a JSON object with this exact shape:\n\n")
	b.WriteString(`{
  "venues": [
    {
      "name": "string (required)",
      "description": "string, one or two sentences",
      "address": "string",
      "city": "string",
      "region": "string, state or province code",
      "postal_code": "string",
      "latitude": 0.0,
      "longitude": 0.0,
      "phone": "string",
      "website": "string, full URL",
      "venue_types": [` + quoteJoin(model.AllVenueTypes) + `],
      "cuisines": [` + quoteJoin(model.AllCuisineTypes) + `],
      "price_band": ` + quoteJoin(model.AllPriceBands) + `,
      "serves_breakfast": false,
      "serves_lunch": false,
      "serves_dinner": false,
      "serves_alcohol": false,
      "ambiance": [` + quoteJoin(model.AllAmbianceTags) + `],
      "features": [` + quoteJoin(model.AllFeatureTags) + `],
      "on_mountain": false,
      "mountain_zone": ` + quoteJoin(model.AllMountainZones) + `,
      "ski_in_ski_out": false,
      "hours_notes": "string"
    }
  ]
}

`)
	b.WriteString("List fields take any subset of the quoted values; price_band and mountain_zone take exactly one. ")
	b.WriteString("Include on-mountain venues (lodges, mid-mountain restaurants) when the resort has them.")

	return b.String()
}

// quoteJoin renders an enum vocabulary as a pipe-separated list of quoted
// values for the prompt schema.
func quoteJoin[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = `"` + string(v) + `"`
	}
	return strings.Join(parts, " | ")
}
