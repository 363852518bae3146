// Package transform resamples radar data between polar and Cartesian
// geometry: PPI, CAPPI and pseudo-CAPPI products from sweeps and volumes,
// synthetic sweeps and volumes from grids, and gap filling of grids.
//
// The engine is synchronous and not safe for concurrent use; run separate
// engines for concurrent requests.
package transform

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/polar"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
)

// Engine holds the resampling method and the projection service.
type Engine struct {
	method Method
	proj   projection.Transformer
	logger *slog.Logger
}

// NewEngine returns a nearest-neighbour engine. A nil transformer uses
// projection.Proj4, a nil logger slog.Default().
func NewEngine(t projection.Transformer, logger *slog.Logger) *Engine {
	if t == nil {
		t = projection.Proj4{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{method: Nearest, proj: t, logger: logger}
}

// SetMethod selects the interpolation method for later products.
func (e *Engine) SetMethod(m Method) error {
	if !m.valid() {
		return fmt.Errorf("%w: method %d", ErrInvalidArgument, int(m))
	}
	e.method = m
	return nil
}

// Method is the current interpolation method.
func (e *Engine) Method() Method { return e.method }

type lookupFunc func(lon, lat float64) (field.ValueType, float64)

// PPI fills the default parameter of grid from sweep. Cells are written as
// they are computed, so a reprojection failure leaves earlier cells set.
func (e *Engine) PPI(sweep *polar.Sweep, grid *cartesian.Grid) error {
	if sweep == nil || grid == nil {
		return fmt.Errorf("%w: nil sweep or grid", ErrInvalidArgument)
	}
	if !sweep.IsTransformable() || !grid.IsTransformable() {
		return fmt.Errorf("ppi: %w", ErrGeometryNotReady)
	}
	return e.fillGrid("ppi", grid, sweep.Projection(), sweep.NearestConverted)
}

// CAPPI fills grid with values at height metres above sea level. Cells
// needing an elevation outside the volume's range become nodata.
func (e *Engine) CAPPI(vol *polar.Volume, grid *cartesian.Grid, height float64) error {
	return e.cappi("cappi", vol, grid, height, true)
}

// PCAPPI is CAPPI falling back to the nearest sweep outside the volume's
// elevation range.
func (e *Engine) PCAPPI(vol *polar.Volume, grid *cartesian.Grid, height float64) error {
	return e.cappi("pcappi", vol, grid, height, false)
}

func (e *Engine) cappi(op string, vol *polar.Volume, grid *cartesian.Grid, height float64, insidee bool) error {
	if vol == nil || grid == nil {
		return fmt.Errorf("%w: nil volume or grid", ErrInvalidArgument)
	}
	if !vol.IsTransformable() || !grid.IsTransformable() {
		return fmt.Errorf("%s: %w", op, ErrGeometryNotReady)
	}
	return e.fillGrid(op, grid, vol.Projection(), func(lon, lat float64) (field.ValueType, float64) {
		return vol.Nearest(lon, lat, height, insidee)
	})
}

func (e *Engine) fillGrid(op string, grid *cartesian.Grid, src *projection.Projection, lookup lookupFunc) error {
	pair, err := e.proj.Pair(grid.Projection, src)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrReprojection, err)
	}

	nodata, undetect := grid.Nodata(), grid.Undetect()
	for y := 0; y < grid.YSize(); y++ {
		py := grid.LocationY(y)
		for x := 0; x < grid.XSize(); x++ {
			lon, lat, err := pair(grid.LocationX(x), py)
			if err != nil {
				e.logger.Warn("reprojection failed, aborting",
					"op", op, "x", x, "y", y, "error", err)
				return fmt.Errorf("%s: cell (%d, %d): %w: %w", op, x, y, ErrReprojection, err)
			}
			vt, v := lookup(lon, lat)
			switch vt {
			case field.Nodata:
				v = nodata
			case field.Undetect:
				v = undetect
			}
			grid.SetValue(x, y, v)
		}
	}
	return nil
}

// ScanFromCartesian synthesises the sweep def would record at elangle
// (degrees) from the grid parameter named quantity, or the grid's default
// parameter when it has none by that name. Raw data values are copied
// verbatim together with the source parameter's gain, offset and sentinels;
// nodata and undetect cells are written as the sweep's own sentinels. The
// fallback parameter is uint8, and source sentinels it cannot hold become
// 255 and 0. Bins that cannot be located or reprojected keep their zero
// initial value.
func (e *Engine) ScanFromCartesian(grid *cartesian.Grid, def *polar.RadarDefinition, elangle float64, quantity string) (*polar.Sweep, error) {
	if grid == nil || def == nil {
		return nil, fmt.Errorf("%w: nil grid or radar definition", ErrInvalidArgument)
	}
	if !grid.IsTransformable() {
		return nil, fmt.Errorf("scan: %w", ErrGeometryNotReady)
	}

	src, dtype := grid.DefaultParam(), field.Uint8
	if p, ok := grid.Param(quantity); ok {
		src, dtype = p, p.DataType()
	}
	if quantity == "" {
		quantity = src.Quantity
	}

	sweep, err := polar.NewSweep(def.NBins, def.NRays)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w: %w", def.ID, ErrAllocation, err)
	}
	sweep.Elangle = elangle
	sweep.RScale = def.Scale
	sweep.Beamwidth = def.Beamwidth
	sweep.Lon, sweep.Lat, sweep.Height = def.Lon, def.Lat, def.Height
	sweep.Source = def.ID
	sweep.Time = grid.Time

	param, err := polar.NewParam(quantity, def.NBins, def.NRays, dtype)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w: %w", def.ID, ErrAllocation, err)
	}
	param.Gain, param.Offset = src.Gain, src.Offset
	param.Nodata, param.Undetect = src.Nodata, src.Undetect
	if dtype != src.DataType() {
		param.Nodata, param.Undetect = fitSentinels(dtype, src.Nodata, src.Undetect)
	}
	if err := sweep.AddParam(param); err != nil {
		return nil, fmt.Errorf("scan %s: %w: %w", def.ID, ErrAllocation, err)
	}

	pair, err := e.proj.Pair(sweep.Projection(), grid.Projection)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w: %w", def.ID, ErrReprojection, err)
	}

	skipped := 0
	for ray := 0; ray < def.NRays; ray++ {
		for bin := 0; bin < def.NBins; bin++ {
			lon, lat, err := sweep.LonLatFromIndex(bin, ray)
			if err != nil {
				skipped++
				continue
			}
			px, py, err := pair(lon, lat)
			if err != nil {
				skipped++
				continue
			}
			vt, v := src.Value(grid.IndexX(px), grid.IndexY(py))
			switch vt {
			case field.Nodata:
				v = param.Nodata
			case field.Undetect:
				v = param.Undetect
			}
			param.SetValue(bin, ray, v)
		}
	}
	if skipped > 0 {
		e.logger.Debug("bins skipped while synthesising scan",
			"radar", def.ID, "elangle", elangle, "skipped", skipped)
	}
	return sweep, nil
}

// VolumeFromCartesian synthesises one sweep per elevation of def. Any
// failing elevation fails the whole volume.
func (e *Engine) VolumeFromCartesian(grid *cartesian.Grid, def *polar.RadarDefinition, quantity string) (*polar.Volume, error) {
	if grid == nil || def == nil {
		return nil, fmt.Errorf("%w: nil grid or radar definition", ErrInvalidArgument)
	}
	if len(def.Elangles) == 0 {
		return nil, fmt.Errorf("%w: radar %s has no elevation angles", ErrInvalidArgument, def.ID)
	}

	vol := &polar.Volume{
		Source: def.ID,
		Lon:    def.Lon,
		Lat:    def.Lat,
		Height: def.Height,
		Time:   grid.Time,
	}
	for _, elangle := range def.Elangles {
		sweep, err := e.ScanFromCartesian(grid, def, elangle, quantity)
		if err != nil {
			return nil, fmt.Errorf("volume %s elevation %g: %w", def.ID, elangle, err)
		}
		if err := vol.AddSweep(sweep); err != nil {
			return nil, fmt.Errorf("volume %s: %w: %w", def.ID, ErrAllocation, err)
		}
	}
	return vol, nil
}

// fitSentinels returns nodata and undetect if t stores both exactly and
// apart, and the uint8 defaults otherwise.
func fitSentinels(t field.DataType, nodata, undetect float64) (float64, float64) {
	n, u := t.Convert(nodata), t.Convert(undetect)
	if n != nodata || u != undetect || n == u {
		return 255, 0
	}
	return nodata, undetect
}
