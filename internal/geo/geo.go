// Package geo provides great-circle distance, coordinate plausibility and
// drive-time heuristics for resort↔venue relationships.
package geo

import "math"

const earthRadiusMiles = 3958.8

// North American bounding box. Venues reported outside it are treated as
// hallucinated coordinates, not merely distant ones.
const (
	minLatitude  = 24.0
	maxLatitude  = 72.0
	minLongitude = -170.0
	maxLongitude = -52.0
)

// Distance thresholds for venue classification (miles).
const (
	onMountainThreshold = 1.0
	walkableThreshold   = 0.5
)

// Drive-time heuristic: mountain roads average ~30 mph, so roughly two
// minutes per mile, with a floor for parking and walking.
const (
	minutesPerMile      = 2.0
	minDriveMinutes     = 5
	walkingVisitMinutes = 5
)

// DistanceMiles returns the great-circle distance between two coordinates
// using the haversine formula.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// PlausibleCoordinates reports whether a coordinate pair falls inside the
// supported continental bounding box.
func PlausibleCoordinates(lat, lon float64) bool {
	return lat >= minLatitude && lat <= maxLatitude &&
		lon >= minLongitude && lon <= maxLongitude
}

// EstimateDriveMinutes converts a distance to an estimated drive time.
// Venues within walking distance get a flat visit time.
func EstimateDriveMinutes(miles float64) int {
	if miles <= walkableThreshold {
		return walkingVisitMinutes
	}
	minutes := int(math.Round(miles * minutesPerMile))
	if minutes < minDriveMinutes {
		return minDriveMinutes
	}
	return minutes
}

// OnMountain reports whether a venue at the given distance should be
// classified as physically part of the resort's mountain footprint.
func OnMountain(miles float64) bool {
	return miles <= onMountainThreshold
}

// Round2 rounds to two decimal places, the precision stored on links.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
