package cartesian

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

// ErrParamMismatch is returned when a parameter does not fit the grid.
var ErrParamMismatch = errors.New("parameter does not match grid")

// Grid is a Cartesian product. Row 0 is the northern edge; cell (x, y) is
// centred on (llX + (x+0.5)*XScale, urY - (y+0.5)*YScale).
type Grid struct {
	XScale     float64
	YScale     float64
	Extent     [4]float64
	Projection *projection.Projection
	Time       time.Time
	Source     string
	Product    string

	xsize, ysize    int
	params          map[string]*Param
	order           []string
	defaultQuantity string
}

// NewGrid returns an empty grid covering area.
func NewGrid(a Area) (*Grid, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Grid{
		XScale:     a.XScale,
		YScale:     a.YScale,
		Extent:     a.Extent,
		Projection: a.Projection,
		xsize:      a.XSize,
		ysize:      a.YSize,
		params:     make(map[string]*Param),
	}, nil
}

// XSize is the number of columns.
func (g *Grid) XSize() int { return g.xsize }

// YSize is the number of rows.
func (g *Grid) YSize() int { return g.ysize }

// AddParam adds p, replacing any parameter with the same quantity. The first
// parameter added becomes the default one.
func (g *Grid) AddParam(p *Param) error {
	if p == nil || p.Quantity == "" {
		return fmt.Errorf("%w: missing quantity", ErrParamMismatch)
	}
	if p.XSize() != g.xsize || p.YSize() != g.ysize {
		return fmt.Errorf("%w: %s is %dx%d, grid is %dx%d",
			ErrParamMismatch, p.Quantity, p.XSize(), p.YSize(), g.xsize, g.ysize)
	}
	if _, ok := g.params[p.Quantity]; !ok {
		g.order = append(g.order, p.Quantity)
	}
	g.params[p.Quantity] = p
	if g.defaultQuantity == "" {
		g.defaultQuantity = p.Quantity
	}
	return nil
}

// CreateParam allocates a parameter sized to the grid and adds it.
func (g *Grid) CreateParam(quantity string, t field.DataType, nodata, undetect float64) (*Param, error) {
	p, err := NewParam(quantity, g.xsize, g.ysize, t)
	if err != nil {
		return nil, err
	}
	p.Nodata = nodata
	p.Undetect = undetect
	if err := g.AddParam(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Param returns the parameter named quantity.
func (g *Grid) Param(quantity string) (*Param, bool) {
	p, ok := g.params[quantity]
	return p, ok
}

// Quantities lists parameter names in insertion order.
func (g *Grid) Quantities() []string {
	return append([]string(nil), g.order...)
}

// DefaultQuantity names the parameter reads and writes go to.
func (g *Grid) DefaultQuantity() string { return g.defaultQuantity }

// SetDefaultQuantity selects an existing parameter as the default.
func (g *Grid) SetDefaultQuantity(q string) error {
	if _, ok := g.params[q]; !ok {
		return fmt.Errorf("%w: no parameter %s", ErrParamMismatch, q)
	}
	g.defaultQuantity = q
	return nil
}

// DefaultParam returns the default parameter, or nil.
func (g *Grid) DefaultParam() *Param { return g.params[g.defaultQuantity] }

// Nodata is the default parameter's nodata sentinel.
func (g *Grid) Nodata() float64 {
	if p := g.DefaultParam(); p != nil {
		return p.Nodata
	}
	return 0
}

// Undetect is the default parameter's undetect sentinel.
func (g *Grid) Undetect() float64 {
	if p := g.DefaultParam(); p != nil {
		return p.Undetect
	}
	return 0
}

// IsTransformable reports whether the grid has a projection, a usable
// geometry and a default parameter to write to.
func (g *Grid) IsTransformable() bool {
	return g.Projection != nil &&
		g.xsize > 0 && g.ysize > 0 &&
		g.XScale > 0 && g.YScale > 0 &&
		g.DefaultParam() != nil
}

// LocationX is the projected x of the centre of column x.
func (g *Grid) LocationX(x int) float64 {
	return g.Extent[0] + g.XScale*(float64(x)+0.5)
}

// LocationY is the projected y of the centre of row y.
func (g *Grid) LocationY(y int) float64 {
	return g.Extent[3] - g.YScale*(float64(y)+0.5)
}

// IndexX is the column containing projected x; it may be outside the grid.
func (g *Grid) IndexX(px float64) int {
	return int(math.Floor((px - g.Extent[0]) / g.XScale))
}

// IndexY is the row containing projected y; it may be outside the grid.
func (g *Grid) IndexY(py float64) int {
	return int(math.Floor((g.Extent[3] - py) / g.YScale))
}

// Value reads the default parameter; cells outside the grid are nodata.
func (g *Grid) Value(x, y int) (field.ValueType, float64) {
	p := g.DefaultParam()
	if p == nil {
		return field.Nodata, 0
	}
	return p.Value(x, y)
}

// ConvertedValue reads the default parameter with gain and offset applied.
func (g *Grid) ConvertedValue(x, y int) (field.ValueType, float64) {
	p := g.DefaultParam()
	if p == nil {
		return field.Nodata, 0
	}
	return p.ConvertedValue(x, y)
}

// SetValue writes the default parameter.
func (g *Grid) SetValue(x, y int, v float64) bool {
	p := g.DefaultParam()
	if p == nil {
		return false
	}
	return p.SetValue(x, y, v)
}

// Clone returns a deep copy including all parameters.
func (g *Grid) Clone() *Grid {
	c := *g
	c.params = make(map[string]*Param, len(g.params))
	for q, p := range g.params {
		c.params[q] = p.Clone()
	}
	c.order = append([]string(nil), g.order...)
	return &c
}
