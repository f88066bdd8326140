package geo

import (
	"math"

	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b using the
// haversine formula.
func Distance(a, b Coordinates) measure.Distance {
	if a.Equal(b) {
		return measure.ZeroDistance
	}

	dLat := radians(b.lat - a.lat)
	dLon := radians(b.lon - a.lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.lat))*math.Cos(radians(b.lat))*sinLon*sinLon
	h = min(max(h, 0), 1)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	d, err := measure.NewDistance(EarthRadiusKm * c)
	if err != nil {
		// h is clamped to [0, 1], so c is finite and non-negative.
		panic(err)
	}
	return d
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
