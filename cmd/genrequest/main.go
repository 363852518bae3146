// Command genrequest writes synthetic product requests for a radar in the
// catalog. Each request carries a volume with a single convective cell that
// drifts across the radar's coverage between requests, so a sequence of
// requests looks like consecutive scans.
//
// Requests are validated with the service's own domain package before they
// are written. Output is JSON lines, or Kafka messages when -brokers is set.
//
// Usage:
//
//	go run ./cmd/genrequest \
//	  -catalog config/catalog.yaml -radar seang -area seang-240 \
//	  -product cappi -height 2000 -count 6 -out data/requests.jsonl
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/catalog"
	"github.com/couchcryptid/radar-transform-service/internal/domain"
	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/polar"
	"github.com/couchcryptid/radar-transform-service/internal/transform"
	kafkago "github.com/segmentio/kafka-go"
)

// DBZH encoding used for generated sweeps.
const (
	gain     = 0.5
	offset   = -32.0
	nodata   = 255.0
	undetect = 0.0
)

type options struct {
	catalogPath string
	radar       string
	area        string
	product     domain.ProductKind
	height      float64
	count       int
	interval    time.Duration
	start       time.Time
	seed        uint64
}

// storm is a Gaussian reflectivity cell. Positions are metres east and
// north of the radar.
type storm struct {
	x, y     float64
	dx, dy   float64 // metres per step
	peak     float64 // dBZ
	radius   float64 // metres
	echoTop  float64 // metres above sea level
	noiseDBZ float64
}

func (s storm) dbz(x, y, h float64, rng *rand.Rand) float64 {
	if h > s.echoTop {
		return math.Inf(-1)
	}
	d2 := (x-s.x)*(x-s.x) + (y-s.y)*(y-s.y)
	return s.peak*math.Exp(-d2/(2*s.radius*s.radius)) + rng.NormFloat64()*s.noiseDBZ
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	var product, start, out, brokers, topic string
	flag.StringVar(&opts.catalogPath, "catalog", catalog.DefaultPath, "catalog file")
	flag.StringVar(&opts.radar, "radar", "seang", "radar id from the catalog")
	flag.StringVar(&opts.area, "area", "seang-240", "target area id from the catalog")
	flag.StringVar(&product, "product", "cappi", "product kind: ppi, cappi, pcappi, scan or pvol")
	flag.Float64Var(&opts.height, "height", 2000, "CAPPI height in metres above sea level")
	flag.IntVar(&opts.count, "count", 6, "number of requests")
	flag.DurationVar(&opts.interval, "interval", 5*time.Minute, "time between generated scans")
	flag.StringVar(&start, "start", "2024-05-01T12:00:00Z", "nominal time of the first scan (RFC 3339)")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.StringVar(&out, "out", "", "output file; stdout when empty")
	flag.StringVar(&brokers, "brokers", "", "comma separated Kafka brokers; publish instead of writing JSON lines")
	flag.StringVar(&topic, "topic", "radar-product-requests", "Kafka topic used with -brokers")
	flag.Parse()

	opts.product = domain.ProductKind(strings.ToLower(product))
	var err error
	if opts.start, err = time.Parse(time.RFC3339, start); err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if opts.count < 1 {
		return fmt.Errorf("-count must be positive, got %d", opts.count)
	}

	cat, err := catalog.Load(opts.catalogPath)
	if err != nil {
		return err
	}
	requests, err := generate(cat, opts)
	if err != nil {
		return err
	}

	if brokers != "" {
		return publish(requests, strings.Split(brokers, ","), topic)
	}
	return writeLines(out, requests)
}

func generate(cat *catalog.Catalog, opts options) ([][]byte, error) {
	def, err := cat.Radar(opts.radar)
	if err != nil {
		return nil, err
	}
	area, err := cat.Area(opts.area)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	maxRange := float64(def.NBins) * def.Scale
	cell := storm{
		x:        -0.4 * maxRange,
		y:        0.2 * maxRange,
		dx:       0.05 * maxRange,
		dy:       -0.02 * maxRange,
		peak:     50 + 10*rng.Float64(),
		radius:   0.06 * maxRange,
		echoTop:  9000 + 4000*rng.Float64(),
		noiseDBZ: 1.5,
	}
	engine := transform.NewEngine(nil, nil)

	requests := make([][]byte, 0, opts.count)
	for i := 0; i < opts.count; i++ {
		scanTime := opts.start.Add(time.Duration(i) * opts.interval)
		vol, err := syntheticVolume(def, cell, scanTime, rng)
		if err != nil {
			return nil, err
		}

		req := domain.ProductRequest{
			ID:       fmt.Sprintf("%s-%s-%s", opts.radar, opts.product, scanTime.UTC().Format("20060102T1504Z")),
			Product:  opts.product,
			Area:     opts.area,
			Quantity: "DBZH",
			Height:   opts.height,
		}
		switch opts.product {
		case domain.ProductPPI:
			sweep := domain.NewSweepPayload(vol.Sweep(0))
			req.Sweep = &sweep
		case domain.ProductCAPPI, domain.ProductPCAPPI:
			payload := domain.NewVolumePayload(vol)
			req.Volume = &payload
		case domain.ProductScan, domain.ProductVolume:
			grid, err := syntheticGrid(engine, area, vol, opts.height)
			if err != nil {
				return nil, err
			}
			payload := domain.NewGridPayload(opts.area, grid)
			req.Grid = &payload
			req.Radar = opts.radar
			req.Elangle = def.Elangles[0]
		default:
			return nil, fmt.Errorf("unknown product %q", opts.product)
		}

		data, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal request %s: %w", req.ID, err)
		}
		// Round trip through the consumer's parser so only valid requests leave.
		if _, err := domain.ParseRequest(domain.RawEvent{Key: []byte(req.ID), Value: data}); err != nil {
			return nil, fmt.Errorf("generated request %s: %w", req.ID, err)
		}
		requests = append(requests, data)
		log.Printf("%s: %d sweeps, cell at (%.0f, %.0f) m", req.ID, vol.Len(), cell.x, cell.y)

		cell.x += cell.dx
		cell.y += cell.dy
	}
	return requests, nil
}

func syntheticVolume(def polar.RadarDefinition, cell storm, scanTime time.Time, rng *rand.Rand) (*polar.Volume, error) {
	vol := &polar.Volume{
		Source: "NOD:" + def.ID,
		Lon:    def.Lon,
		Lat:    def.Lat,
		Height: def.Height,
		Time:   scanTime,
	}
	nav := polar.NewNavigator(def.Lon, def.Lat, def.Height)

	for _, elangle := range def.Elangles {
		sweep, err := polar.NewSweep(def.NBins, def.NRays)
		if err != nil {
			return nil, err
		}
		sweep.Elangle = elangle
		sweep.RScale = def.Scale
		sweep.Beamwidth = def.Beamwidth
		sweep.Lon, sweep.Lat, sweep.Height = def.Lon, def.Lat, def.Height
		sweep.Source = vol.Source
		sweep.Time = scanTime

		param, err := polar.NewParam("DBZH", def.NBins, def.NRays, field.Uint8)
		if err != nil {
			return nil, err
		}
		param.Gain, param.Offset = gain, offset
		param.Nodata, param.Undetect = nodata, undetect

		for ray := 0; ray < def.NRays; ray++ {
			az := float64(ray) * sweep.AzimuthStep() * math.Pi / 180
			for bin := 0; bin < def.NBins; bin++ {
				r := (float64(bin) + 0.5) * def.Scale
				d, h := nav.REToDH(r, elangle)
				dbz := cell.dbz(d*math.Sin(az), d*math.Cos(az), h, rng)
				raw := undetect
				if dbz >= 5 {
					// Keep clear of the nodata code.
					raw = math.Min((dbz-offset)/gain, nodata-1)
				}
				param.SetValue(bin, ray, raw)
			}
		}
		if err := sweep.AddParam(param); err != nil {
			return nil, err
		}
		if err := vol.AddSweep(sweep); err != nil {
			return nil, err
		}
	}
	return vol, nil
}

// syntheticGrid renders the volume as a CAPPI on area, the input a scan or
// volume request expects.
func syntheticGrid(engine *transform.Engine, area cartesian.Area, vol *polar.Volume, height float64) (*cartesian.Grid, error) {
	grid, err := cartesian.NewGrid(area)
	if err != nil {
		return nil, err
	}
	grid.Time = vol.Time
	grid.Source = vol.Source
	grid.Product = "CAPPI"
	param, err := grid.CreateParam("DBZH", field.Uint8, nodata, undetect)
	if err != nil {
		return nil, err
	}
	param.Gain, param.Offset = gain, offset
	if err := engine.PCAPPI(vol, grid, height); err != nil {
		return nil, err
	}
	return grid, nil
}

func writeLines(path string, requests [][]byte) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	for _, data := range requests {
		if _, err := bw.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if path != "" {
		log.Printf("wrote %d requests to %s", len(requests), path)
	}
	return nil
}

func publish(requests [][]byte, brokers []string, topic string) error {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafkago.RequireAll,
		BatchBytes:             50e6,
		AllowAutoTopicCreation: true,
	}
	defer w.Close()

	msgs := make([]kafkago.Message, 0, len(requests))
	for _, data := range requests {
		var req struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		msgs = append(msgs, kafkago.Message{Key: []byte(req.ID), Value: data})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.Printf("published %d requests to %s", len(msgs), topic)
	return nil
}
