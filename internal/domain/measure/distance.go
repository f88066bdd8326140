package measure

import (
	"math"
	"strconv"

	"github.com/go-faster/errors"
)

// ErrInvalidDistance is returned for negative or non-finite distances.
var ErrInvalidDistance = errors.New("distance must be a finite non-negative number")

// ZeroDistance is the distance between a point and itself.
var ZeroDistance = Distance{}

// Distance is a non-negative length in kilometers.
type Distance struct {
	km float64
}

func NewDistance(km float64) (Distance, error) {
	if km < 0 || math.IsNaN(km) || math.IsInf(km, 0) {
		return Distance{}, errors.Wrapf(ErrInvalidDistance, "got %v km", km)
	}
	return Distance{km: km}, nil
}

func (d Distance) Kilometers() float64 { return d.km }

func (d Distance) IsZero() bool { return d.km == 0 }

func (d Distance) Add(o Distance) Distance {
	return Distance{km: d.km + o.km}
}

func (d Distance) String() string {
	return strconv.FormatFloat(d.km, 'f', 2, 64) + " km"
}
