package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidRequest is returned for requests that cannot produce a product.
var ErrInvalidRequest = errors.New("invalid product request")

// ParseRequest deserializes and validates a RawEvent's value. A request
// without an id takes the message key as its id.
func ParseRequest(raw RawEvent) (ProductRequest, error) {
	var req ProductRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ProductRequest{}, fmt.Errorf("parse product request: %w", err)
	}
	req.Product = ProductKind(strings.ToLower(strings.TrimSpace(string(req.Product))))
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if err := req.Validate(); err != nil {
		return ProductRequest{}, err
	}
	return req, nil
}

// Validate checks that the request names what its product kind needs.
func (r ProductRequest) Validate() error {
	switch r.Product {
	case ProductPPI:
		if r.Sweep == nil {
			return fmt.Errorf("%w: ppi needs a sweep", ErrInvalidRequest)
		}
	case ProductCAPPI, ProductPCAPPI:
		if r.Volume == nil || len(r.Volume.Sweeps) == 0 {
			return fmt.Errorf("%w: %s needs a volume", ErrInvalidRequest, r.Product)
		}
		if math.IsNaN(r.Height) || math.IsInf(r.Height, 0) {
			return fmt.Errorf("%w: height %v", ErrInvalidRequest, r.Height)
		}
	case ProductScan, ProductVolume:
		if r.Grid == nil {
			return fmt.Errorf("%w: %s needs a grid", ErrInvalidRequest, r.Product)
		}
		if r.Radar == "" {
			return fmt.Errorf("%w: %s needs a radar", ErrInvalidRequest, r.Product)
		}
	case "":
		return fmt.Errorf("%w: missing product", ErrInvalidRequest)
	default:
		return fmt.Errorf("%w: unknown product %q", ErrInvalidRequest, r.Product)
	}
	if r.Area == "" {
		return fmt.Errorf("%w: %s needs an area", ErrInvalidRequest, r.Product)
	}
	return nil
}

// inputTime is the nominal time of whatever the request carries.
func (r ProductRequest) inputTime() time.Time {
	switch {
	case r.Sweep != nil:
		return r.Sweep.Time
	case r.Volume != nil:
		return r.Volume.Time
	case r.Grid != nil:
		return r.Grid.Time
	}
	return time.Time{}
}

// NewProduct starts the product answering req, stamped with the current time.
func NewProduct(req ProductRequest) Product {
	return Product{
		ID:          productID(req),
		RequestID:   req.ID,
		Product:     req.Product,
		Area:        req.Area,
		Radar:       req.Radar,
		Quantity:    req.Quantity,
		Height:      req.Height,
		Elangle:     req.Elangle,
		GeneratedAt: clock.Now(),
	}
}

// productID is a deterministic hash of what identifies a product, so
// replaying a request publishes under the same key.
func productID(req ProductRequest) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%g|%g|%t|%s|%s",
		req.Product, req.Area, req.Radar, req.Quantity, req.Height, req.Elangle,
		req.FillGaps, req.inputTime().UTC().Format(time.RFC3339Nano), req.ID)
	hash := sha256.Sum256([]byte(input))
	return string(req.Product) + "-" + hex.EncodeToString(hash[:8])
}

// SerializeProduct marshals a product for the sink topic, keyed by product id.
func SerializeProduct(p Product) (OutputEvent, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize product: %w", err)
	}
	return OutputEvent{
		Key:   []byte(p.ID),
		Value: data,
		Headers: map[string]string{
			"product":      string(p.Product),
			"quantity":     p.Quantity,
			"generated_at": p.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
