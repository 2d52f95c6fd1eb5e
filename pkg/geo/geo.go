// Package geo provides great-circle distance and geohash helpers.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
// The exact value matters for numeric parity with downstream consumers.
const EarthRadiusKm = 6371.0088

// HaversineKm returns the great-circle distance in kilometres between
// two coordinate pairs.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := phi2 - phi1
	dLambda := (lng2 - lng1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// Encode returns the geohash of a coordinate pair at the given precision.
func Encode(lat, lng float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lng, precision)
}
