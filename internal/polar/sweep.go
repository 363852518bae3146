// Package polar models radar data in its native geometry: sweeps of rays
// and range bins at one elevation, volumes of sweeps, and the site
// definitions used to synthesise them.
package polar

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

var (
	// ErrInvalidGeometry is returned for non-positive bin or ray counts.
	ErrInvalidGeometry = errors.New("invalid sweep geometry")
	// ErrParamMismatch is returned when a parameter does not fit the sweep.
	ErrParamMismatch = errors.New("parameter does not match sweep")
	// ErrIndexOutOfRange is returned for a bin or ray outside the sweep.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Sweep is one elevation scan. Rays are centred on ray*360/nrays degrees;
// bin b spans RStart + [b, b+1) * RScale metres along the beam.
type Sweep struct {
	Elangle   float64 // degrees
	RScale    float64 // metres per bin
	RStart    float64 // metres
	Beamwidth float64 // degrees
	A1Gate    int
	Lon       float64
	Lat       float64
	Height    float64
	Source    string
	Time      time.Time

	nbins, nrays    int
	params          map[string]*Param
	order           []string
	defaultQuantity string
}

// NewSweep returns an empty sweep of nbins by nrays.
func NewSweep(nbins, nrays int) (*Sweep, error) {
	if nbins <= 0 || nrays <= 0 {
		return nil, fmt.Errorf("%w: %d bins x %d rays", ErrInvalidGeometry, nbins, nrays)
	}
	return &Sweep{nbins: nbins, nrays: nrays, params: make(map[string]*Param)}, nil
}

// NBins is the number of range bins along each ray.
func (s *Sweep) NBins() int { return s.nbins }

// NRays is the number of rays in the sweep.
func (s *Sweep) NRays() int { return s.nrays }

// AzimuthStep is the angular distance between ray centres in degrees.
func (s *Sweep) AzimuthStep() float64 { return 360 / float64(s.nrays) }

// Projection is always geographic; sweeps are located by lon/lat.
func (s *Sweep) Projection() *projection.Projection { return projection.LonLat() }

// Navigator locates points relative to the sweep's site.
func (s *Sweep) Navigator() Navigator { return NewNavigator(s.Lon, s.Lat, s.Height) }

// AddParam adds p, replacing any parameter with the same quantity. The first
// parameter added becomes the default one.
func (s *Sweep) AddParam(p *Param) error {
	if p == nil || p.Quantity == "" {
		return fmt.Errorf("%w: missing quantity", ErrParamMismatch)
	}
	if p.NBins() != s.nbins || p.NRays() != s.nrays {
		return fmt.Errorf("%w: %s is %dx%d, sweep is %dx%d",
			ErrParamMismatch, p.Quantity, p.NBins(), p.NRays(), s.nbins, s.nrays)
	}
	if _, ok := s.params[p.Quantity]; !ok {
		s.order = append(s.order, p.Quantity)
	}
	s.params[p.Quantity] = p
	if s.defaultQuantity == "" {
		s.defaultQuantity = p.Quantity
	}
	return nil
}

// Param returns the parameter named quantity.
func (s *Sweep) Param(quantity string) (*Param, bool) {
	p, ok := s.params[quantity]
	return p, ok
}

// Quantities lists parameter names in insertion order.
func (s *Sweep) Quantities() []string {
	return append([]string(nil), s.order...)
}

// DefaultQuantity names the parameter lookups read from.
func (s *Sweep) DefaultQuantity() string { return s.defaultQuantity }

// SetDefaultQuantity selects the parameter lookups read from.
func (s *Sweep) SetDefaultQuantity(q string) error {
	if _, ok := s.params[q]; !ok {
		return fmt.Errorf("%w: no parameter %s", ErrParamMismatch, q)
	}
	s.defaultQuantity = q
	return nil
}

// DefaultParam returns the parameter lookups read from, or nil.
func (s *Sweep) DefaultParam() *Param {
	return s.params[s.defaultQuantity]
}

// IsTransformable reports whether the sweep has the geometry and data
// needed to be resampled.
func (s *Sweep) IsTransformable() bool {
	return s.nbins > 0 && s.nrays > 0 && s.RScale > 0 && s.DefaultParam() != nil
}

// AzimuthIndex returns the ray closest to azimuth a (degrees).
func (s *Sweep) AzimuthIndex(a float64) int {
	i := int(math.Round(a/s.AzimuthStep())) % s.nrays
	if i < 0 {
		i += s.nrays
	}
	return i
}

// RangeIndex returns the bin containing slant range r (metres), or -1.
func (s *Sweep) RangeIndex(r float64) int {
	if r < s.RStart || s.RScale <= 0 {
		return -1
	}
	i := int(math.Floor((r - s.RStart) / s.RScale))
	if i >= s.nbins {
		return -1
	}
	return i
}

// NearestIndex returns the bin and ray covering lon/lat; ok is false
// beyond the last bin.
func (s *Sweep) NearestIndex(lon, lat float64) (bin, ray int, ok bool) {
	return s.nearestIndex(s.Navigator(), lon, lat)
}

func (s *Sweep) nearestIndex(nav Navigator, lon, lat float64) (bin, ray int, ok bool) {
	d, a := nav.LLToDA(lat, lon)
	r, _ := nav.DEToRH(d, s.Elangle)
	bin = s.RangeIndex(r)
	if bin < 0 {
		return 0, 0, false
	}
	return bin, s.AzimuthIndex(a), true
}

// Nearest returns the classified raw value of the default parameter at lon/lat.
func (s *Sweep) Nearest(lon, lat float64) (field.ValueType, float64) {
	p := s.DefaultParam()
	if p == nil {
		return field.Nodata, 0
	}
	bin, ray, ok := s.NearestIndex(lon, lat)
	if !ok {
		return field.Nodata, p.Nodata
	}
	return p.Value(bin, ray)
}

// NearestConverted is Nearest with gain and offset applied to data values.
func (s *Sweep) NearestConverted(lon, lat float64) (field.ValueType, float64) {
	return s.nearestConverted(s.Navigator(), lon, lat)
}

func (s *Sweep) nearestConverted(nav Navigator, lon, lat float64) (field.ValueType, float64) {
	p := s.DefaultParam()
	if p == nil {
		return field.Nodata, 0
	}
	bin, ray, ok := s.nearestIndex(nav, lon, lat)
	if !ok {
		return field.Nodata, p.Nodata
	}
	return p.ConvertedValue(bin, ray)
}

// ValueAtAzimuthAndRange returns the classified raw default-parameter value
// at azimuth a (degrees) and slant range r (metres).
func (s *Sweep) ValueAtAzimuthAndRange(a, r float64) (field.ValueType, float64) {
	p := s.DefaultParam()
	if p == nil {
		return field.Nodata, 0
	}
	bin := s.RangeIndex(r)
	if bin < 0 {
		return field.Nodata, p.Nodata
	}
	return p.Value(bin, s.AzimuthIndex(a))
}

// LonLatFromIndex locates the centre of a range bin.
func (s *Sweep) LonLatFromIndex(bin, ray int) (lon, lat float64, err error) {
	if bin < 0 || ray < 0 || bin >= s.nbins || ray >= s.nrays {
		return 0, 0, fmt.Errorf("%w: bin %d ray %d", ErrIndexOutOfRange, bin, ray)
	}
	nav := s.Navigator()
	r := s.RStart + (float64(bin)+0.5)*s.RScale
	d, _ := nav.REToDH(r, s.Elangle)
	lat, lon = nav.DAToLL(d, float64(ray)*s.AzimuthStep())
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return 0, 0, fmt.Errorf("%w: bin %d ray %d has no location", ErrIndexOutOfRange, bin, ray)
	}
	return lon, lat, nil
}

// Clone returns a deep copy including all parameters.
func (s *Sweep) Clone() *Sweep {
	c := *s
	c.params = make(map[string]*Param, len(s.params))
	for q, p := range s.params {
		c.params[q] = p.Clone()
	}
	c.order = append([]string(nil), s.order...)
	return &c
}
