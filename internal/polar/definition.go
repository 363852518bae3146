package polar

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

// ErrInvalidDefinition is returned by RadarDefinition.Validate.
var ErrInvalidDefinition = errors.New("invalid radar definition")

// RadarDefinition describes the scan strategy of a site, used when sweeps
// are synthesised from Cartesian products.
type RadarDefinition struct {
	ID          string
	Description string
	Lon         float64 // degrees
	Lat         float64 // degrees
	Height      float64 // metres above sea level
	Elangles    []float64
	NRays       int
	NBins       int
	Scale       float64 // metres per bin
	Beamwidth   float64 // horizontal, degrees
	BeamwV      float64 // vertical, degrees
	Wavelength  float64 // metres
	Projection  *projection.Projection
}

func (d *RadarDefinition) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	case d.NRays <= 0 || d.NBins <= 0:
		return fmt.Errorf("%w %s: %d bins x %d rays", ErrInvalidDefinition, d.ID, d.NBins, d.NRays)
	case d.Scale <= 0:
		return fmt.Errorf("%w %s: scale %g", ErrInvalidDefinition, d.ID, d.Scale)
	case len(d.Elangles) == 0:
		return fmt.Errorf("%w %s: no elevation angles", ErrInvalidDefinition, d.ID)
	}
	return nil
}
