// Package projection wraps PROJ-style spatial reference definitions and the
// coordinate transforms between them.
package projection

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/geom/proj"
)

// LonLatDefinition is the geographic reference system polar data is located in.
const LonLatDefinition = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"

var (
	// ErrInvalidDefinition is returned when a definition cannot be parsed.
	ErrInvalidDefinition = errors.New("invalid projection definition")
	// ErrOutOfDomain is returned by a Pair for coordinates it cannot map.
	ErrOutOfDomain = errors.New("coordinate outside projection domain")
)

// Projection is a named, parsed spatial reference system.
type Projection struct {
	id          string
	description string
	definition  string
	sr          *proj.SR
}

// New parses definition and returns the projection it describes.
func New(id, description, definition string) (*Projection, error) {
	sr, err := proj.Parse(definition)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidDefinition, id, err)
	}
	// Parse accepts projection names the backend has no transformer for.
	if _, _, err := sr.Transformers(); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidDefinition, id, err)
	}
	return &Projection{id: id, description: description, definition: definition, sr: sr}, nil
}

var (
	lonLatOnce sync.Once
	lonLat     *Projection
)

// LonLat returns the shared WGS84 geographic projection.
func LonLat() *Projection {
	lonLatOnce.Do(func() {
		p, err := New("lonlat", "WGS84 longitude/latitude", LonLatDefinition)
		if err != nil {
			panic(err)
		}
		lonLat = p
	})
	return lonLat
}

// ID is the catalog identifier.
func (p *Projection) ID() string { return p.id }

// Description is free text for listings.
func (p *Projection) Description() string { return p.description }

// Definition is the PROJ string the projection was parsed from.
func (p *Projection) Definition() string { return p.definition }

// IsLatLong reports whether the projection works in geographic degrees.
func (p *Projection) IsLatLong() bool { return p.sr.Name == "longlat" }

// Pair maps a coordinate from one projection to another. Geographic
// coordinates are longitude, latitude in degrees.
type Pair func(x, y float64) (float64, float64, error)

// Transformer compiles the Pair from src to dst.
type Transformer interface {
	Pair(src, dst *Projection) (Pair, error)
}

// Proj4 compiles pairs with the pure-Go PROJ implementation.
type Proj4 struct{}

// Pair compiles the transform from src to dst.
func (Proj4) Pair(src, dst *Projection) (Pair, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: nil projection", ErrInvalidDefinition)
	}
	t, err := src.sr.NewTransform(dst.sr)
	if err != nil {
		return nil, fmt.Errorf("compile %s -> %s: %w", src.id, dst.id, err)
	}
	return func(x, y float64) (float64, float64, error) {
		x2, y2, err := t(x, y)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: (%g, %g): %w", ErrOutOfDomain, x, y, err)
		}
		if math.IsNaN(x2) || math.IsNaN(y2) || math.IsInf(x2, 0) || math.IsInf(y2, 0) {
			return 0, 0, fmt.Errorf("%w: (%g, %g)", ErrOutOfDomain, x, y)
		}
		return x2, y2, nil
	}, nil
}
