package geo

import (
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/umahmood/haversine"
)

const (
	// EarthRadiusNM is the mean Earth radius in nautical miles
	EarthRadiusNM = 3440.065

	// earthRadiusKm is the radius haversine.Distance reports kilometres with
	earthRadiusKm = 6371
)

// DistanceNM returns the great-circle distance between a and b in nautical miles.
// It is a straight-line estimate; no altitude or routing correction is applied.
func DistanceNM(a, b types.Coordinate) float64 {
	if a == b {
		return 0
	}
	_, km := haversine.Distance(toCoord(a), toCoord(b))
	// km = earthRadiusKm * centralAngle
	return km / earthRadiusKm * EarthRadiusNM
}

func toCoord(c types.Coordinate) haversine.Coord {
	return haversine.Coord{Lat: c.Latitude, Lon: c.Longitude}
}
