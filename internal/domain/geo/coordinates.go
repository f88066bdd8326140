// Package geo provides validated geographic coordinates and great-circle
// distance.
package geo

import (
	"math"

	"github.com/go-faster/errors"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Coordinates is a WGS 84 point. The zero value is (0, 0).
type Coordinates struct {
	lat float64
	lon float64
}

// NewCoordinates validates the given latitude and longitude.
func NewCoordinates(lat, lon float64) (Coordinates, error) {
	if !ValidLatitude(lat) {
		return Coordinates{}, errors.Wrapf(ErrInvalidLatitude, "got %v", lat)
	}
	if !ValidLongitude(lon) {
		return Coordinates{}, errors.Wrapf(ErrInvalidLongitude, "got %v", lon)
	}
	return Coordinates{lat: lat, lon: lon}, nil
}

// MustCoordinates is like NewCoordinates but panics on invalid input.
func MustCoordinates(lat, lon float64) Coordinates {
	c, err := NewCoordinates(lat, lon)
	if err != nil {
		panic(err)
	}
	return c
}

func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

func (c Coordinates) Latitude() float64  { return c.lat }
func (c Coordinates) Longitude() float64 { return c.lon }

func (c Coordinates) Equal(o Coordinates) bool {
	return c.lat == o.lat && c.lon == o.lon
}
