package polar

import (
	"testing"

	"github.com/couchcryptid/radar-transform-service/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSweep returns a 10 bin x 36 ray sweep at lon/lat 0/0 with 1 km
// bins and a single DBZH parameter filled with value.
func newTestSweep(t *testing.T, elangle, value float64) *Sweep {
	t.Helper()
	s, err := NewSweep(10, 36)
	require.NoError(t, err)
	s.Elangle = elangle
	s.RScale = 1000

	p, err := NewParam("DBZH", 10, 36, field.Uint8)
	require.NoError(t, err)
	p.Nodata = 255
	p.Undetect = 0
	p.Data().Fill(value)
	require.NoError(t, s.AddParam(p))
	return s
}

func TestNewSweep_InvalidGeometry(t *testing.T) {
	_, err := NewSweep(0, 360)
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestSweep_AzimuthIndex(t *testing.T) {
	s := newTestSweep(t, 0.5, 1)
	for a, want := range map[float64]int{
		0:   0,
		4.9: 0,
		5.1: 1,
		90:  9,
		354: 35,
		355: 0,
		359: 0,
		-10: 35,
	} {
		assert.Equal(t, want, s.AzimuthIndex(a), "azimuth %v", a)
	}
}

func TestSweep_RangeIndex(t *testing.T) {
	s := newTestSweep(t, 0.5, 1)
	for r, want := range map[float64]int{
		-1:    -1,
		0:     0,
		999:   0,
		1000:  1,
		9999:  9,
		10000: -1,
	} {
		assert.Equal(t, want, s.RangeIndex(r), "range %v", r)
	}

	s.RStart = 2000
	assert.Equal(t, -1, s.RangeIndex(1500))
	assert.Equal(t, 0, s.RangeIndex(2500))
}

func TestSweep_LonLatFromIndexRoundTrip(t *testing.T) {
	s := newTestSweep(t, 0.5, 1)

	lon, lat, err := s.LonLatFromIndex(0, 9)
	require.NoError(t, err)
	assert.Greater(t, lon, 0.0)
	assert.InDelta(t, 0, lat, 1e-9)

	for ray := 0; ray < s.NRays(); ray++ {
		for bin := 0; bin < s.NBins(); bin++ {
			lon, lat, err := s.LonLatFromIndex(bin, ray)
			require.NoError(t, err)
			b, r, ok := s.NearestIndex(lon, lat)
			require.True(t, ok)
			assert.Equal(t, bin, b)
			assert.Equal(t, ray, r)
		}
	}

	_, _, err = s.LonLatFromIndex(10, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSweep_Nearest(t *testing.T) {
	s := newTestSweep(t, 0.5, 40)
	p := s.DefaultParam()
	p.Gain = 0.5
	p.Offset = -32
	p.SetValue(2, 9, 0)

	// 0.02 degrees east is about 2.2 km along ray 9.
	vt, v := s.Nearest(0.02, 0)
	assert.Equal(t, field.Undetect, vt)
	assert.Equal(t, 0.0, v)

	vt, v = s.NearestConverted(0, 0.02)
	assert.Equal(t, field.Data, vt)
	assert.Equal(t, -12.0, v)

	vt, v = s.NearestConverted(1, 0)
	assert.Equal(t, field.Nodata, vt)
	assert.Equal(t, 255.0, v)
}

func TestSweep_ValueAtAzimuthAndRange(t *testing.T) {
	s := newTestSweep(t, 0.5, 7)
	s.DefaultParam().SetValue(3, 18, 9)

	vt, v := s.ValueAtAzimuthAndRange(180, 3500)
	assert.Equal(t, field.Data, vt)
	assert.Equal(t, 9.0, v)

	vt, _ = s.ValueAtAzimuthAndRange(180, 20000)
	assert.Equal(t, field.Nodata, vt)
}

func TestSweep_AddParam(t *testing.T) {
	s := newTestSweep(t, 0.5, 1)

	bad, err := NewParam("TH", 5, 36, field.Uint8)
	require.NoError(t, err)
	require.ErrorIs(t, s.AddParam(bad), ErrParamMismatch)

	th, err := NewParam("TH", 10, 36, field.Float64)
	require.NoError(t, err)
	require.NoError(t, s.AddParam(th))
	assert.Equal(t, []string{"DBZH", "TH"}, s.Quantities())
	assert.Equal(t, "DBZH", s.DefaultQuantity())

	require.NoError(t, s.SetDefaultQuantity("TH"))
	assert.Same(t, th, s.DefaultParam())
	require.ErrorIs(t, s.SetDefaultQuantity("VRAD"), ErrParamMismatch)
}

func TestSweep_IsTransformable(t *testing.T) {
	s, err := NewSweep(10, 36)
	require.NoError(t, err)
	assert.False(t, s.IsTransformable(), "no parameter and no scale")

	s = newTestSweep(t, 0.5, 1)
	assert.True(t, s.IsTransformable())
	s.RScale = 0
	assert.False(t, s.IsTransformable())
}

func TestSweep_CloneIsDeep(t *testing.T) {
	s := newTestSweep(t, 0.5, 1)
	c := s.Clone()
	c.DefaultParam().SetValue(0, 0, 99)
	c.Elangle = 3

	_, v := s.DefaultParam().Value(0, 0)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, 0.5, s.Elangle)
}

func TestParam_Value(t *testing.T) {
	p, err := NewParam("DBZH", 2, 2, field.Uint8)
	require.NoError(t, err)
	p.Nodata = 255
	p.Undetect = 0
	p.Gain = 0.5
	p.Offset = -32
	p.SetValue(0, 0, 100)
	p.SetValue(1, 0, 255)

	vt, v := p.ConvertedValue(0, 0)
	assert.Equal(t, field.Data, vt)
	assert.Equal(t, 18.0, v)

	vt, v = p.ConvertedValue(1, 0)
	assert.Equal(t, field.Nodata, vt)
	assert.Equal(t, 255.0, v)

	vt, _ = p.ConvertedValue(0, 1)
	assert.Equal(t, field.Undetect, vt)

	vt, _ = p.Value(5, 5)
	assert.Equal(t, field.Nodata, vt)
}
