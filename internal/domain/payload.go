package domain

import (
	"fmt"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/polar"
)

// ParamPayload is one quantity as rows of raw values. For sweeps a row is a
// ray and a column a range bin; for grids row 0 is the northern edge.
type ParamPayload struct {
	Quantity string      `json:"quantity"`
	Type     string      `json:"type,omitempty"` // field data type, default float64
	Gain     float64     `json:"gain"`
	Offset   float64     `json:"offset"`
	Nodata   float64     `json:"nodata"`
	Undetect float64     `json:"undetect"`
	Data     [][]float64 `json:"data"`
}

// SweepPayload carries a polar sweep. Lengths are metres, angles degrees.
type SweepPayload struct {
	Elangle   float64        `json:"elangle"`
	RScale    float64        `json:"rscale"`
	RStart    float64        `json:"rstart,omitempty"`
	Beamwidth float64        `json:"beamwidth,omitempty"`
	A1Gate    int            `json:"a1gate,omitempty"`
	Lon       float64        `json:"lon"`
	Lat       float64        `json:"lat"`
	Height    float64        `json:"height"`
	Source    string         `json:"source,omitempty"`
	Time      time.Time      `json:"time"`
	Params    []ParamPayload `json:"params"`
}

// VolumePayload carries a polar volume.
type VolumePayload struct {
	Source string         `json:"source,omitempty"`
	Lon    float64        `json:"lon"`
	Lat    float64        `json:"lat"`
	Height float64        `json:"height"`
	Time   time.Time      `json:"time"`
	Sweeps []SweepPayload `json:"sweeps"`
}

// GridPayload carries a Cartesian grid. On input the geometry comes from the
// request's area and only Params, Time and Source are read.
type GridPayload struct {
	Area       string         `json:"area,omitempty"`
	Projection string         `json:"projection,omitempty"`
	XSize      int            `json:"xsize,omitempty"`
	YSize      int            `json:"ysize,omitempty"`
	XScale     float64        `json:"xscale,omitempty"`
	YScale     float64        `json:"yscale,omitempty"`
	Extent     [4]float64     `json:"extent"`
	Source     string         `json:"source,omitempty"`
	Product    string         `json:"product,omitempty"`
	Time       time.Time      `json:"time"`
	Params     []ParamPayload `json:"params"`
}

func (p ParamPayload) field() (*field.Field, error) {
	t := field.Float64
	if p.Type != "" {
		var err error
		if t, err = field.ParseDataType(p.Type); err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Quantity, err)
		}
	}
	f, err := field.FromRows(p.Data, t)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", p.Quantity, err)
	}
	return f, nil
}

// ToSweep builds a sweep; its size is taken from the first parameter.
func (s SweepPayload) ToSweep() (*polar.Sweep, error) {
	if len(s.Params) == 0 {
		return nil, fmt.Errorf("%w: sweep has no parameters", ErrInvalidRequest)
	}
	var sweep *polar.Sweep
	for _, pp := range s.Params {
		f, err := pp.field()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		if sweep == nil {
			if sweep, err = polar.NewSweep(f.XSize(), f.YSize()); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
			}
		}
		p := polar.ParamFromField(pp.Quantity, f)
		p.Gain, p.Offset = pp.Gain, pp.Offset
		p.Nodata, p.Undetect = pp.Nodata, pp.Undetect
		if err := sweep.AddParam(p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	sweep.Elangle = s.Elangle
	sweep.RScale = s.RScale
	sweep.RStart = s.RStart
	sweep.Beamwidth = s.Beamwidth
	sweep.A1Gate = s.A1Gate
	sweep.Lon, sweep.Lat, sweep.Height = s.Lon, s.Lat, s.Height
	sweep.Source = s.Source
	sweep.Time = s.Time
	return sweep, nil
}

// ToVolume builds a volume of independent sweeps.
func (v VolumePayload) ToVolume() (*polar.Volume, error) {
	vol := &polar.Volume{
		Source: v.Source,
		Lon:    v.Lon,
		Lat:    v.Lat,
		Height: v.Height,
		Time:   v.Time,
	}
	for i, sp := range v.Sweeps {
		s, err := sp.ToSweep()
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", i, err)
		}
		if err := vol.AddSweep(s); err != nil {
			return nil, fmt.Errorf("sweep %d: %w", i, err)
		}
	}
	return vol, nil
}

// ToGrid lays the payload's parameters out on area.
func (g GridPayload) ToGrid(area cartesian.Area) (*cartesian.Grid, error) {
	if len(g.Params) == 0 {
		return nil, fmt.Errorf("%w: grid has no parameters", ErrInvalidRequest)
	}
	grid, err := cartesian.NewGrid(area)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	grid.Time = g.Time
	grid.Source = g.Source
	grid.Product = g.Product
	for _, pp := range g.Params {
		f, err := pp.field()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		p := cartesian.ParamFromField(pp.Quantity, f)
		p.Gain, p.Offset = pp.Gain, pp.Offset
		p.Nodata, p.Undetect = pp.Nodata, pp.Undetect
		if err := grid.AddParam(p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return grid, nil
}

// NewSweepPayload is the inverse of SweepPayload.ToSweep.
func NewSweepPayload(s *polar.Sweep) SweepPayload {
	out := SweepPayload{
		Elangle:   s.Elangle,
		RScale:    s.RScale,
		RStart:    s.RStart,
		Beamwidth: s.Beamwidth,
		A1Gate:    s.A1Gate,
		Lon:       s.Lon,
		Lat:       s.Lat,
		Height:    s.Height,
		Source:    s.Source,
		Time:      s.Time,
	}
	for _, q := range s.Quantities() {
		p, _ := s.Param(q)
		out.Params = append(out.Params, ParamPayload{
			Quantity: p.Quantity,
			Type:     p.DataType().String(),
			Gain:     p.Gain,
			Offset:   p.Offset,
			Nodata:   p.Nodata,
			Undetect: p.Undetect,
			Data:     p.Data().Rows(),
		})
	}
	return out
}

func NewVolumePayload(v *polar.Volume) VolumePayload {
	out := VolumePayload{
		Source: v.Source,
		Lon:    v.Lon,
		Lat:    v.Lat,
		Height: v.Height,
		Time:   v.Time,
	}
	for i := 0; i < v.Len(); i++ {
		out.Sweeps = append(out.Sweeps, NewSweepPayload(v.Sweep(i)))
	}
	return out
}

// NewGridPayload describes grid, which was laid out on the area named areaID.
func NewGridPayload(areaID string, g *cartesian.Grid) GridPayload {
	out := GridPayload{
		Area:    areaID,
		XSize:   g.XSize(),
		YSize:   g.YSize(),
		XScale:  g.XScale,
		YScale:  g.YScale,
		Extent:  g.Extent,
		Source:  g.Source,
		Product: g.Product,
		Time:    g.Time,
	}
	if g.Projection != nil {
		out.Projection = g.Projection.Definition()
	}
	for _, q := range g.Quantities() {
		p, _ := g.Param(q)
		out.Params = append(out.Params, ParamPayload{
			Quantity: p.Quantity,
			Type:     p.DataType().String(),
			Gain:     p.Gain,
			Offset:   p.Offset,
			Nodata:   p.Nodata,
			Undetect: p.Undetect,
			Data:     p.Data().Rows(),
		})
	}
	return out
}
