package domain

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/polar"
)

// Stats summarises one quantity of a product. Mean, StdDev, Min and Max are
// over converted data values only and are zero when there are none.
type Stats struct {
	Cells    int     `json:"cells"`
	Data     int     `json:"data"`
	Undetect int     `json:"undetect"`
	Nodata   int     `json:"nodata"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type accumulator struct {
	Stats
	values []float64
}

func (a *accumulator) add(t field.ValueType, v float64) {
	a.Cells++
	switch t {
	case field.Data:
		a.Data++
		a.values = append(a.values, v)
	case field.Undetect:
		a.Undetect++
	default:
		a.Nodata++
	}
}

func (a *accumulator) result() Stats {
	s := a.Stats
	if len(a.values) == 0 {
		return s
	}
	s.Min = floats.Min(a.values)
	s.Max = floats.Max(a.values)
	if len(a.values) == 1 {
		s.Mean = a.values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(a.values, nil)
	return s
}

func (a *accumulator) addSweep(p *polar.Param) {
	for ray := 0; ray < p.NRays(); ray++ {
		for bin := 0; bin < p.NBins(); bin++ {
			a.add(p.ConvertedValue(bin, ray))
		}
	}
}

// GridStats summarises a grid parameter.
func GridStats(p *cartesian.Param) Stats {
	var a accumulator
	if p == nil {
		return a.result()
	}
	for y := 0; y < p.YSize(); y++ {
		for x := 0; x < p.XSize(); x++ {
			a.add(p.ConvertedValue(x, y))
		}
	}
	return a.result()
}

// SweepStats summarises a sweep parameter.
func SweepStats(p *polar.Param) Stats {
	var a accumulator
	if p != nil {
		a.addSweep(p)
	}
	return a.result()
}

// VolumeStats summarises the default parameter of every sweep together.
func VolumeStats(v *polar.Volume) Stats {
	var a accumulator
	for i := 0; i < v.Len(); i++ {
		if p := v.Sweep(i).DefaultParam(); p != nil {
			a.addSweep(p)
		}
	}
	return a.result()
}
