// Package catalog loads the projections, target areas and radar site
// definitions products are made from.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/polar"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

// DefaultPath is where the service looks for the catalog when CATALOG_PATH is unset.
const DefaultPath = "config/catalog.yaml"

const maxFileSize = 1 << 20

var (
	// ErrNotFound is returned for unknown area, radar or projection ids.
	ErrNotFound = errors.New("not found in catalog")
	// ErrInvalid is returned when the catalog document is inconsistent.
	ErrInvalid = errors.New("invalid catalog")
)

type projectionDoc struct {
	Description string `yaml:"description"`
	Definition  string `yaml:"definition"`
}

type areaDoc struct {
	Description string     `yaml:"description"`
	Projection  string     `yaml:"projection"`
	XSize       int        `yaml:"xsize"`
	YSize       int        `yaml:"ysize"`
	XScale      float64    `yaml:"xscale"`
	YScale      float64    `yaml:"yscale"`
	Extent      [4]float64 `yaml:"extent"`
}

type radarDoc struct {
	Description string    `yaml:"description"`
	Lon         float64   `yaml:"lon"`
	Lat         float64   `yaml:"lat"`
	Height      float64   `yaml:"height"`
	Elangles    []float64 `yaml:"elangles"`
	NRays       int       `yaml:"nrays"`
	NBins       int       `yaml:"nbins"`
	Scale       float64   `yaml:"scale"`
	Beamwidth   float64   `yaml:"beamwidth"`
	BeamwV      float64   `yaml:"beamwv"`
	Wavelength  float64   `yaml:"wavelength"`
	Projection  string    `yaml:"projection"`
}

type document struct {
	Projections map[string]projectionDoc `yaml:"projections"`
	Areas       map[string]areaDoc       `yaml:"areas"`
	Radars      map[string]radarDoc      `yaml:"radars"`
}

// Catalog is an immutable, id-keyed registry. It is safe for concurrent reads.
type Catalog struct {
	projections map[string]*projection.Projection
	areas       map[string]cartesian.Area
	radars      map[string]polar.RadarDefinition
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("catalog file must have .yaml extension, got %q", ext)
	}
	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from a YAML document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	c := &Catalog{
		projections: make(map[string]*projection.Projection, len(doc.Projections)),
		areas:       make(map[string]cartesian.Area, len(doc.Areas)),
		radars:      make(map[string]polar.RadarDefinition, len(doc.Radars)),
	}
	for id, p := range doc.Projections {
		proj, err := projection.New(id, p.Description, p.Definition)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		c.projections[id] = proj
	}

	for id, a := range doc.Areas {
		proj, ok := c.projections[a.Projection]
		if !ok {
			return nil, fmt.Errorf("%w: area %s references unknown projection %q", ErrInvalid, id, a.Projection)
		}
		area := cartesian.Area{
			ID:          id,
			Description: a.Description,
			XSize:       a.XSize,
			YSize:       a.YSize,
			XScale:      a.XScale,
			YScale:      a.YScale,
			Extent:      a.Extent,
			Projection:  proj,
		}
		if err := area.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		c.areas[id] = area
	}

	for id, r := range doc.Radars {
		def := polar.RadarDefinition{
			ID:          id,
			Description: r.Description,
			Lon:         r.Lon,
			Lat:         r.Lat,
			Height:      r.Height,
			Elangles:    r.Elangles,
			NRays:       r.NRays,
			NBins:       r.NBins,
			Scale:       r.Scale,
			Beamwidth:   r.Beamwidth,
			BeamwV:      r.BeamwV,
			Wavelength:  r.Wavelength,
			Projection:  projection.LonLat(),
		}
		if r.Projection != "" {
			proj, ok := c.projections[r.Projection]
			if !ok {
				return nil, fmt.Errorf("%w: radar %s references unknown projection %q", ErrInvalid, id, r.Projection)
			}
			def.Projection = proj
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		c.radars[id] = def
	}
	return c, nil
}

func (c *Catalog) Area(id string) (cartesian.Area, error) {
	a, ok := c.areas[id]
	if !ok {
		return cartesian.Area{}, fmt.Errorf("area %q: %w", id, ErrNotFound)
	}
	return a, nil
}

// Radar returns a copy of the definition; callers may modify it.
func (c *Catalog) Radar(id string) (polar.RadarDefinition, error) {
	r, ok := c.radars[id]
	if !ok {
		return polar.RadarDefinition{}, fmt.Errorf("radar %q: %w", id, ErrNotFound)
	}
	r.Elangles = append([]float64(nil), r.Elangles...)
	return r, nil
}

func (c *Catalog) Projection(id string) (*projection.Projection, error) {
	p, ok := c.projections[id]
	if !ok {
		return nil, fmt.Errorf("projection %q: %w", id, ErrNotFound)
	}
	return p, nil
}

func (c *Catalog) AreaIDs() []string       { return sortedKeys(c.areas) }
func (c *Catalog) RadarIDs() []string      { return sortedKeys(c.radars) }
func (c *Catalog) ProjectionIDs() []string { return sortedKeys(c.projections) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
