// Package geo computes great-circle distances between coordinate pairs.
// Distances are evaluated in application code so discovery queries behave
// identically on postgres and the sqlite databases used in tests.
package geo

import "math"

const (
	earthRadiusMeters = 6371000.0

	// Below this separation a local equirectangular projection is within
	// centimeters of the haversine result and about twice as fast.
	planarCutoffMeters = 50000.0
)

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the point lies in the WGS84 envelope.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceMeters returns the distance between a and b in meters. It picks a
// planar approximation for nearby pairs and falls back to haversine when the
// planar estimate exceeds the cutoff.
func DistanceMeters(a, b Point) float64 {
	d := planarMeters(a, b)
	if d <= planarCutoffMeters {
		return d
	}
	return haversineMeters(a, b)
}

func planarMeters(a, b Point) float64 {
	latRad := (a.Latitude + b.Latitude) / 2 * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180 * math.Cos(latRad)
	return earthRadiusMeters * math.Sqrt(dLat*dLat+dLon*dLon)
}

func haversineMeters(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
