package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/domain"
	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/observability"
	"github.com/couchcryptid/radar-transform-service/internal/polar"
	"github.com/couchcryptid/radar-transform-service/internal/transform"
)

// Default sentinels for generated grids when a request does not set them.
const (
	defaultNodata   = 255
	defaultUndetect = 0
)

// Catalog resolves the area and radar identifiers a request names.
type Catalog interface {
	Area(id string) (cartesian.Area, error)
	Radar(id string) (polar.RadarDefinition, error)
}

// ProductTransformer implements Transformer by running product requests
// through a transform engine.
type ProductTransformer struct {
	catalog Catalog
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex // engine is not safe for concurrent use
	engine *transform.Engine
}

// NewTransformer creates a ProductTransformer. A nil metrics skips the
// per-product counters.
func NewTransformer(catalog Catalog, engine *transform.Engine, logger *slog.Logger, metrics *observability.Metrics) *ProductTransformer {
	return &ProductTransformer{
		catalog: catalog,
		engine:  engine,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *ProductTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	start := time.Now()
	t.mu.Lock()
	product, err := t.build(req)
	t.mu.Unlock()
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("%s request %s: %w", req.Product, req.ID, err)
	}

	if t.metrics != nil {
		kind := string(req.Product)
		t.metrics.ProductsGenerated.WithLabelValues(kind).Inc()
		t.metrics.ProductDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	t.logger.Debug("product generated",
		"id", product.ID,
		"product", product.Product,
		"area", product.Area,
		"quantity", product.Quantity,
		"cells", product.Stats.Cells,
	)
	return domain.SerializeProduct(product)
}

func (t *ProductTransformer) build(req domain.ProductRequest) (domain.Product, error) {
	area, err := t.catalog.Area(req.Area)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.NewProduct(req)
	switch req.Product {
	case domain.ProductPPI:
		err = t.ppi(req, area, &product)
	case domain.ProductCAPPI, domain.ProductPCAPPI:
		err = t.cappi(req, area, &product)
	case domain.ProductScan:
		err = t.scan(req, area, &product)
	case domain.ProductVolume:
		err = t.volume(req, area, &product)
	default:
		err = fmt.Errorf("%w: unknown product %q", domain.ErrInvalidRequest, req.Product)
	}
	return product, err
}

func (t *ProductTransformer) ppi(req domain.ProductRequest, area cartesian.Area, product *domain.Product) error {
	sweep, err := req.Sweep.ToSweep()
	if err != nil {
		return err
	}
	quantity, err := selectQuantity(req.Quantity, sweep)
	if err != nil {
		return err
	}
	grid, err := t.targetGrid(req, area, quantity)
	if err != nil {
		return err
	}
	grid.Time, grid.Source, grid.Product = sweep.Time, sweep.Source, "PPI"

	if err := t.engine.PPI(sweep, grid); err != nil {
		return err
	}
	return t.finishGrid(req, grid, product, quantity)
}

func (t *ProductTransformer) cappi(req domain.ProductRequest, area cartesian.Area, product *domain.Product) error {
	vol, err := req.Volume.ToVolume()
	if err != nil {
		return err
	}
	quantity := req.Quantity
	for i := 0; i < vol.Len(); i++ {
		q, err := selectQuantity(req.Quantity, vol.Sweep(i))
		if err != nil {
			return fmt.Errorf("sweep %d: %w", i, err)
		}
		if quantity == "" {
			quantity = q
		}
	}
	grid, err := t.targetGrid(req, area, quantity)
	if err != nil {
		return err
	}
	grid.Time, grid.Source = vol.Time, vol.Source

	if req.Product == domain.ProductPCAPPI {
		grid.Product = "PCAPPI"
		err = t.engine.PCAPPI(vol, grid, req.Height)
	} else {
		grid.Product = "CAPPI"
		err = t.engine.CAPPI(vol, grid, req.Height)
	}
	if err != nil {
		return err
	}
	return t.finishGrid(req, grid, product, quantity)
}

func (t *ProductTransformer) scan(req domain.ProductRequest, area cartesian.Area, product *domain.Product) error {
	grid, def, err := t.sourceGrid(req, area)
	if err != nil {
		return err
	}
	sweep, err := t.engine.ScanFromCartesian(grid, &def, req.Elangle, req.Quantity)
	if err != nil {
		return err
	}
	payload := domain.NewSweepPayload(sweep)
	product.Sweep = &payload
	product.Quantity = sweep.DefaultQuantity()
	product.Stats = domain.SweepStats(sweep.DefaultParam())
	return nil
}

func (t *ProductTransformer) volume(req domain.ProductRequest, area cartesian.Area, product *domain.Product) error {
	grid, def, err := t.sourceGrid(req, area)
	if err != nil {
		return err
	}
	vol, err := t.engine.VolumeFromCartesian(grid, &def, req.Quantity)
	if err != nil {
		return err
	}
	payload := domain.NewVolumePayload(vol)
	product.Volume = &payload
	if vol.Len() > 0 {
		product.Quantity = vol.Sweep(0).DefaultQuantity()
	}
	product.Stats = domain.VolumeStats(vol)
	return nil
}

// sourceGrid decodes the request's grid onto area and resolves its radar.
func (t *ProductTransformer) sourceGrid(req domain.ProductRequest, area cartesian.Area) (*cartesian.Grid, polar.RadarDefinition, error) {
	def, err := t.catalog.Radar(req.Radar)
	if err != nil {
		return nil, polar.RadarDefinition{}, err
	}
	grid, err := req.Grid.ToGrid(area)
	if err != nil {
		return nil, polar.RadarDefinition{}, err
	}
	return grid, def, nil
}

// targetGrid is an empty float64 grid on area with a single parameter.
func (t *ProductTransformer) targetGrid(req domain.ProductRequest, area cartesian.Area, quantity string) (*cartesian.Grid, error) {
	grid, err := cartesian.NewGrid(area)
	if err != nil {
		return nil, err
	}
	nodata, undetect := float64(defaultNodata), float64(defaultUndetect)
	if req.Nodata != nil {
		nodata = *req.Nodata
	}
	if req.Undetect != nil {
		undetect = *req.Undetect
	}
	if _, err := grid.CreateParam(quantity, field.Float64, nodata, undetect); err != nil {
		return nil, err
	}
	return grid, nil
}

func (t *ProductTransformer) finishGrid(req domain.ProductRequest, grid *cartesian.Grid, product *domain.Product, quantity string) error {
	if req.FillGaps {
		filled, err := t.engine.FillGap(grid)
		if err != nil {
			return err
		}
		grid = filled
	}
	payload := domain.NewGridPayload(req.Area, grid)
	product.Grid = &payload
	product.Quantity = quantity
	product.Stats = domain.GridStats(grid.DefaultParam())
	return nil
}

// selectQuantity makes the requested quantity the sweep's default and
// returns it, or returns the sweep's existing default when none is requested.
func selectQuantity(quantity string, s *polar.Sweep) (string, error) {
	if quantity == "" {
		return s.DefaultQuantity(), nil
	}
	if err := s.SetDefaultQuantity(quantity); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return quantity, nil
}
