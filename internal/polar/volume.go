package polar

import (
	"errors"
	"math"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

// ErrNilSweep is returned when a nil sweep is added to a volume.
var ErrNilSweep = errors.New("nil sweep")

// Volume is an ordered set of sweeps from one site. Sweeps need not be
// sorted by elevation. The volume's Lon, Lat and Height locate every sweep.
type Volume struct {
	Source string
	Lon    float64
	Lat    float64
	Height float64
	Time   time.Time

	sweeps []*Sweep
}

// AddSweep appends s and moves it to the volume's site. A volume without a
// site takes the position of its first sweep.
func (v *Volume) AddSweep(s *Sweep) error {
	if s == nil {
		return ErrNilSweep
	}
	if len(v.sweeps) == 0 && !v.hasSite() {
		v.Lon, v.Lat, v.Height = s.Lon, s.Lat, s.Height
	}
	s.Lon, s.Lat, s.Height = v.Lon, v.Lat, v.Height
	v.sweeps = append(v.sweeps, s)
	return nil
}

func (v *Volume) hasSite() bool {
	return v.Lon != 0 || v.Lat != 0 || v.Height != 0
}

// Len is the number of sweeps.
func (v *Volume) Len() int { return len(v.sweeps) }

// Sweep returns the i'th sweep in insertion order, or nil.
func (v *Volume) Sweep(i int) *Sweep {
	if i < 0 || i >= len(v.sweeps) {
		return nil
	}
	return v.sweeps[i]
}

// Projection is always geographic.
func (v *Volume) Projection() *projection.Projection { return projection.LonLat() }

// Navigator locates points relative to the volume's site.
func (v *Volume) Navigator() Navigator { return NewNavigator(v.Lon, v.Lat, v.Height) }

// IsTransformable requires at least one sweep and every sweep transformable.
func (v *Volume) IsTransformable() bool {
	if len(v.sweeps) == 0 {
		return false
	}
	for _, s := range v.sweeps {
		if !s.IsTransformable() {
			return false
		}
	}
	return true
}

// ScanIndexFromElevation returns the sweep whose elevation is closest to e
// (degrees). With insidee set, elevations outside the covered range give -1.
func (v *Volume) ScanIndexFromElevation(e float64, insidee bool) int {
	if len(v.sweeps) == 0 || math.IsNaN(e) {
		return -1
	}
	if insidee {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, s := range v.sweeps {
			lo = math.Min(lo, s.Elangle)
			hi = math.Max(hi, s.Elangle)
		}
		if e < lo || e > hi {
			return -1
		}
	}
	best, bestDiff := -1, math.Inf(1)
	for i, s := range v.sweeps {
		if diff := math.Abs(s.Elangle - e); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// Nearest returns the converted default-parameter value covering lon/lat
// at height (metres above sea level), read from the sweep closest to the
// elevation that reaches that height. Both steps navigate from the volume's
// site.
func (v *Volume) Nearest(lon, lat, height float64, insidee bool) (field.ValueType, float64) {
	nav := v.Navigator()
	d, _ := nav.LLToDA(lat, lon)
	_, e := nav.DHToRE(d, height)
	i := v.ScanIndexFromElevation(e, insidee)
	if i < 0 {
		return field.Nodata, v.nodata()
	}
	return v.sweeps[i].nearestConverted(nav, lon, lat)
}

func (v *Volume) nodata() float64 {
	for _, s := range v.sweeps {
		if p := s.DefaultParam(); p != nil {
			return p.Nodata
		}
	}
	return 0
}

// Clone deep-copies every sweep.
func (v *Volume) Clone() *Volume {
	c := *v
	c.sweeps = make([]*Sweep, len(v.sweeps))
	for i, s := range v.sweeps {
		c.sweeps[i] = s.Clone()
	}
	return &c
}
