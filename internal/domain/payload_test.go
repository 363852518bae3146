package domain

import (
	"testing"
	"time"

	"github.com/couchcryptid/radar-transform-service/internal/cartesian"
	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testSweepPayload() SweepPayload {
	return SweepPayload{
		Elangle: 0.5,
		RScale:  1000,
		Lon:     12.85,
		Lat:     56.37,
		Height:  209,
		Source:  "NOD:seang",
		Time:    testTime,
		Params: []ParamPayload{
			{Quantity: "DBZH", Type: "uint8", Gain: 0.5, Offset: -32, Nodata: 255, Undetect: 0,
				Data: [][]float64{{10, 20, 30}, {40, 50, 60}}},
			{Quantity: "TH", Nodata: -1, Data: [][]float64{{1.5, 2, 3}, {4, 5, 6}}},
		},
	}
}

func TestSweepPayload_ToSweep(t *testing.T) {
	in := testSweepPayload()
	s, err := in.ToSweep()
	require.NoError(t, err)

	assert.Equal(t, 3, s.NBins())
	assert.Equal(t, 2, s.NRays())
	assert.Equal(t, "DBZH", s.DefaultQuantity())
	assert.Equal(t, 209.0, s.Height)

	dbzh, ok := s.Param("DBZH")
	require.True(t, ok)
	assert.Equal(t, field.Uint8, dbzh.DataType())
	vt, v := dbzh.ConvertedValue(1, 1)
	assert.Equal(t, field.Data, vt)
	assert.Equal(t, -7.0, v)

	th, ok := s.Param("TH")
	require.True(t, ok)
	assert.Equal(t, field.Float64, th.DataType(), "type defaults to float64")

	if diff := cmp.Diff(in, NewSweepPayload(s), cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Type"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("sweep payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSweepPayload_Errors(t *testing.T) {
	_, err := SweepPayload{}.ToSweep()
	require.ErrorIs(t, err, ErrInvalidRequest)

	ragged := testSweepPayload()
	ragged.Params[1].Data = [][]float64{{1, 2}, {3, 4}}
	_, err = ragged.ToSweep()
	require.ErrorIs(t, err, ErrInvalidRequest)

	badType := testSweepPayload()
	badType.Params[0].Type = "complex64"
	_, err = badType.ToSweep()
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVolumePayload_ToVolume(t *testing.T) {
	in := VolumePayload{
		Source: "NOD:seang",
		Lon:    12.85,
		Lat:    56.37,
		Height: 209,
		Time:   testTime,
		Sweeps: []SweepPayload{testSweepPayload(), testSweepPayload()},
	}
	in.Sweeps[1].Elangle = 1.5

	v, err := in.ToVolume()
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())
	assert.Equal(t, 1.5, v.Sweep(1).Elangle)

	out := NewVolumePayload(v)
	assert.Equal(t, in.Source, out.Source)
	assert.Len(t, out.Sweeps, 2)

	in.Sweeps[1].Params = nil
	_, err = in.ToVolume()
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVolumePayload_ToVolumeLocatesSweeps(t *testing.T) {
	in := VolumePayload{Lon: 12.85, Lat: 56.37, Height: 209, Sweeps: []SweepPayload{testSweepPayload()}}
	in.Sweeps[0].Lon, in.Sweeps[0].Lat, in.Sweeps[0].Height = 0, 0, 0

	v, err := in.ToVolume()
	require.NoError(t, err)
	s := v.Sweep(0)
	assert.Equal(t, [3]float64{12.85, 56.37, 209}, [3]float64{s.Lon, s.Lat, s.Height})

	// Position given only on the sweeps.
	in = VolumePayload{Sweeps: []SweepPayload{testSweepPayload()}}
	v, err = in.ToVolume()
	require.NoError(t, err)
	assert.Equal(t, [3]float64{12.85, 56.37, 209}, [3]float64{v.Lon, v.Lat, v.Height})
}

func TestGridPayload_ToGrid(t *testing.T) {
	area := cartesian.Area{
		ID:         "tiny",
		XSize:      3,
		YSize:      2,
		XScale:     1000,
		YScale:     1000,
		Extent:     [4]float64{0, 0, 3000, 2000},
		Projection: projection.LonLat(),
	}
	in := GridPayload{
		Time:   testTime,
		Source: "ORG:82",
		Params: []ParamPayload{{Quantity: "DBZH", Nodata: 255, Data: [][]float64{{1, 2, 3}, {4, 5, 6}}}},
	}

	g, err := in.ToGrid(area)
	require.NoError(t, err)
	assert.Equal(t, testTime, g.Time)
	_, v := g.Value(2, 1)
	assert.Equal(t, 6.0, v)

	out := NewGridPayload("tiny", g)
	assert.Equal(t, "tiny", out.Area)
	assert.Equal(t, 3, out.XSize)
	assert.Equal(t, projection.LonLatDefinition, out.Projection)
	assert.Equal(t, in.Params[0].Data, out.Params[0].Data)
	assert.Equal(t, "float64", out.Params[0].Type)

	wrongSize := in
	wrongSize.Params = []ParamPayload{{Quantity: "DBZH", Data: [][]float64{{1, 2}}}}
	_, err = wrongSize.ToGrid(area)
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = GridPayload{}.ToGrid(area)
	require.ErrorIs(t, err, ErrInvalidRequest)
}
