// Package cartesian models gridded radar products on a projected plane.
package cartesian

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

// ErrInvalidArea is returned by Area.Validate and NewGrid.
var ErrInvalidArea = errors.New("invalid area")

// Area is the geometry of a grid: size, cell scale and the lower-left /
// upper-right corners (llX, llY, urX, urY) in projected metres.
type Area struct {
	ID          string
	Description string
	XSize       int
	YSize       int
	XScale      float64
	YScale      float64
	Extent      [4]float64
	Projection  *projection.Projection
}

func (a Area) Validate() error {
	switch {
	case a.XSize <= 0 || a.YSize <= 0:
		return fmt.Errorf("%w %s: size %dx%d", ErrInvalidArea, a.ID, a.XSize, a.YSize)
	case a.XScale <= 0 || a.YScale <= 0:
		return fmt.Errorf("%w %s: scale %gx%g", ErrInvalidArea, a.ID, a.XScale, a.YScale)
	case a.Extent[2] <= a.Extent[0] || a.Extent[3] <= a.Extent[1]:
		return fmt.Errorf("%w %s: extent %v", ErrInvalidArea, a.ID, a.Extent)
	}
	return nil
}
