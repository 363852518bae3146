package cartesian

import (
	"fmt"

	"github.com/couchcryptid/radar-transform-service/internal/field"
)

// Param is one named quantity of a grid.
type Param struct {
	Quantity string
	Gain     float64
	Offset   float64
	Nodata   float64
	Undetect float64

	data *field.Field
}

// NewParam allocates a zero-filled xsize by ysize parameter.
func NewParam(quantity string, xsize, ysize int, t field.DataType) (*Param, error) {
	f, err := field.New(xsize, ysize, t)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", quantity, err)
	}
	return &Param{Quantity: quantity, Gain: 1, data: f}, nil
}

// ParamFromField wraps existing storage.
func ParamFromField(quantity string, f *field.Field) *Param {
	return &Param{Quantity: quantity, Gain: 1, data: f}
}

func (p *Param) XSize() int               { return p.data.XSize() }
func (p *Param) YSize() int               { return p.data.YSize() }
func (p *Param) DataType() field.DataType { return p.data.Type() }
func (p *Param) Data() *field.Field       { return p.data }

// Value returns the classified raw value; cells outside the grid are nodata.
func (p *Param) Value(x, y int) (field.ValueType, float64) {
	v, ok := p.data.Value(x, y)
	if !ok {
		return field.Nodata, p.Nodata
	}
	return field.Classify(v, p.Nodata, p.Undetect), v
}

// ConvertedValue is Value with offset + gain*v applied to data values.
func (p *Param) ConvertedValue(x, y int) (field.ValueType, float64) {
	t, v := p.Value(x, y)
	if t == field.Data {
		v = p.Offset + v*p.Gain
	}
	return t, v
}

// SetValue stores v through the parameter's data type.
func (p *Param) SetValue(x, y int, v float64) bool {
	return p.data.SetValue(x, y, v)
}

// Clone copies the parameter and its storage.
func (p *Param) Clone() *Param {
	c := *p
	c.data = p.data.Clone()
	return &c
}
