package polar

import (
	"fmt"

	"github.com/couchcryptid/radar-transform-service/internal/field"
)

// Param is one named quantity of a sweep, addressed by (bin, ray).
type Param struct {
	Quantity string
	Gain     float64
	Offset   float64
	Nodata   float64
	Undetect float64

	data *field.Field
}

// NewParam allocates a zero-filled parameter of nbins by nrays values.
func NewParam(quantity string, nbins, nrays int, t field.DataType) (*Param, error) {
	f, err := field.New(nbins, nrays, t)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", quantity, err)
	}
	return &Param{Quantity: quantity, Gain: 1, data: f}, nil
}

// ParamFromField wraps existing storage; x is the bin, y the ray.
func ParamFromField(quantity string, f *field.Field) *Param {
	return &Param{Quantity: quantity, Gain: 1, data: f}
}

func (p *Param) NBins() int              { return p.data.XSize() }
func (p *Param) NRays() int               { return p.data.YSize() }
func (p *Param) DataType() field.DataType { return p.data.Type() }
func (p *Param) Data() *field.Field       { return p.data }

// Value returns the classified raw value. Out-of-range indices are nodata.
func (p *Param) Value(bin, ray int) (field.ValueType, float64) {
	v, ok := p.data.Value(bin, ray)
	if !ok {
		return field.Nodata, p.Nodata
	}
	return field.Classify(v, p.Nodata, p.Undetect), v
}

// ConvertedValue is Value with offset + gain*v applied to data values.
func (p *Param) ConvertedValue(bin, ray int) (field.ValueType, float64) {
	t, v := p.Value(bin, ray)
	if t == field.Data {
		v = p.Offset + v*p.Gain
	}
	return t, v
}

// SetValue stores v through the parameter's data type.
func (p *Param) SetValue(bin, ray int, v float64) bool {
	return p.data.SetValue(bin, ray, v)
}

// Clone copies the parameter and its storage.
func (p *Param) Clone() *Param {
	c := *p
	c.data = p.data.Clone()
	return &c
}
