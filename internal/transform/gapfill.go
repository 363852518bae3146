package transform

import (
	"fmt"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/field"
)

var neighbours = [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// FillGapOnParam returns a copy of p in which interior undetect cells whose
// four direct neighbours all hold data are set to the mean of those
// neighbours. Neighbours are read from p, never from filled cells, and the
// border rows and columns are copied unchanged.
func (e *Engine) FillGapOnParam(p *cartesian.Param) (*cartesian.Param, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil parameter", ErrInvalidArgument)
	}
	out := p.Clone()
	filled := 0
	for y := 1; y < p.YSize()-1; y++ {
		for x := 1; x < p.XSize()-1; x++ {
			if t, _ := p.Value(x, y); t != field.Undetect {
				continue
			}
			if mean, ok := neighbourMean(p, x, y); ok {
				out.SetValue(x, y, mean)
				filled++
			}
		}
	}
	e.logger.Debug("gap fill", "quantity", p.Quantity, "filled", filled)
	return out, nil
}

func neighbourMean(p *cartesian.Param, x, y int) (float64, bool) {
	var sum float64
	for _, d := range neighbours {
		t, v := p.Value(x+d[0], y+d[1])
		if t != field.Data {
			return 0, false
		}
		sum += v
	}
	return sum / 4, true
}

// FillGap returns a copy of grid with every parameter gap filled.
func (e *Engine) FillGap(grid *cartesian.Grid) (*cartesian.Grid, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidArgument)
	}
	out := grid.Clone()
	for _, q := range grid.Quantities() {
		p, _ := grid.Param(q)
		filled, err := e.FillGapOnParam(p)
		if err != nil {
			return nil, fmt.Errorf("fill gap %s: %w", q, err)
		}
		if err := out.AddParam(filled); err != nil {
			return nil, fmt.Errorf("fill gap %s: %w: %w", q, ErrAllocation, err)
		}
	}
	return out, nil
}
