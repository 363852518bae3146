package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ProductKind names the product a request asks for.
type ProductKind string

const (
	ProductPPI    ProductKind = "ppi"    // sweep -> grid
	ProductCAPPI  ProductKind = "cappi"  // volume -> grid at constant altitude
	ProductPCAPPI ProductKind = "pcappi" // as cappi, nearest sweep outside the volume
	ProductScan   ProductKind = "scan"   // grid -> synthetic sweep
	ProductVolume ProductKind = "pvol"   // grid -> synthetic volume
)

// ProductRequest is the message consumed from the source topic.
//
// PPI requests carry a Sweep, CAPPI and PCAPPI requests a Volume; both name
// the target Area. Scan and volume requests carry a Grid laid out on Area
// and name the Radar to synthesise.
type ProductRequest struct {
	ID       string         `json:"id,omitempty"`
	Product  ProductKind    `json:"product"`
	Area     string         `json:"area,omitempty"`
	Radar    string         `json:"radar,omitempty"`
	Quantity string         `json:"quantity,omitempty"`
	Height   float64        `json:"height,omitempty"`  // metres above sea level
	Elangle  float64        `json:"elangle,omitempty"` // degrees
	FillGaps bool           `json:"fill_gaps,omitempty"`
	Nodata   *float64       `json:"nodata,omitempty"`
	Undetect *float64       `json:"undetect,omitempty"`
	Sweep    *SweepPayload  `json:"sweep,omitempty"`
	Volume   *VolumePayload `json:"volume,omitempty"`
	Grid     *GridPayload   `json:"grid,omitempty"`
}

// Product is the message published to the sink topic. Exactly one of
// Grid, Sweep and Volume is set.
type Product struct {
	ID          string         `json:"id"`
	RequestID   string         `json:"request_id,omitempty"`
	Product     ProductKind    `json:"product"`
	Area        string         `json:"area,omitempty"`
	Radar       string         `json:"radar,omitempty"`
	Quantity    string         `json:"quantity"`
	Height      float64        `json:"height,omitempty"`
	Elangle     float64        `json:"elangle,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Stats       Stats          `json:"stats"`
	Grid        *GridPayload   `json:"grid,omitempty"`
	Sweep       *SweepPayload  `json:"sweep,omitempty"`
	Volume      *VolumePayload `json:"volume,omitempty"`
}
