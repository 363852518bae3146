package projection

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMerc = "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"

func TestNew(t *testing.T) {
	p, err := New("merc", "mercator", testMerc)
	require.NoError(t, err)
	assert.Equal(t, "merc", p.ID())
	assert.Equal(t, "mercator", p.Description())
	assert.Equal(t, testMerc, p.Definition())
	assert.False(t, p.IsLatLong())
	assert.True(t, LonLat().IsLatLong())
}

func TestNew_InvalidDefinition(t *testing.T) {
	tests := []struct {
		name       string
		definition string
	}{
		{"unknown name", "+proj=nosuchprojection"},
		{"no transformer", "+proj=aeqd +lon_0=13 +lat_0=56 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", "", tt.definition)
			require.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestNew_SupportedDefinitionsTransform(t *testing.T) {
	for _, def := range []string{
		LonLatDefinition,
		testMerc,
		"+proj=tmerc +lon_0=13 +lat_0=56 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
		"+proj=lcc +lat_1=50 +lat_2=60 +lat_0=56 +lon_0=13 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
	} {
		p, err := New("p", "", def)
		require.NoError(t, err, def)
		_, err = Proj4{}.Pair(p, LonLat())
		require.NoError(t, err, def)
	}
}

func TestProj4_RoundTrip(t *testing.T) {
	merc, err := New("merc", "", testMerc)
	require.NoError(t, err)

	fwd, err := Proj4{}.Pair(LonLat(), merc)
	require.NoError(t, err)
	inv, err := Proj4{}.Pair(merc, LonLat())
	require.NoError(t, err)

	x, y, err := fwd(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, y, err = fwd(1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, x, 1)
	assert.InDelta(t, 0, y, 1e-6)

	lon, lat, err := inv(x, 5000)
	require.NoError(t, err)
	assert.InDelta(t, 1, lon, 1e-9)
	assert.InDelta(t, 0.0452, lat, 1e-3)
}

func TestProj4_NilProjection(t *testing.T) {
	_, err := Proj4{}.Pair(nil, LonLat())
	require.Error(t, err)
}

// --- CachedTransformer ---

type countingTransformer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingTransformer) Pair(_, _ *Projection) (Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return func(x, y float64) (float64, float64, error) { return x, y, nil }, nil
}

func TestCachedTransformer_Hit(t *testing.T) {
	merc, err := New("merc", "", testMerc)
	require.NoError(t, err)

	inner := &countingTransformer{}
	var hits, misses int
	cached := NewCachedTransformer(inner, 4, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	_, err = cached.Pair(LonLat(), merc)
	require.NoError(t, err)
	_, err = cached.Pair(LonLat(), merc)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "should only compile once")
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedTransformer_DirectionMatters(t *testing.T) {
	merc, err := New("merc", "", testMerc)
	require.NoError(t, err)

	inner := &countingTransformer{}
	cached := NewCachedTransformer(inner, 4, nil)

	_, _ = cached.Pair(LonLat(), merc)
	_, _ = cached.Pair(merc, LonLat())

	assert.Equal(t, 2, inner.calls)
}

func TestCachedTransformer_ErrorsNotCached(t *testing.T) {
	inner := &countingTransformer{err: errors.New("boom")}
	cached := NewCachedTransformer(inner, 4, nil)

	_, err := cached.Pair(LonLat(), LonLat())
	require.Error(t, err)
	_, err = cached.Pair(LonLat(), LonLat())
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.Len())
}

// --- LRU cache unit tests ---

func identity(x, y float64) (float64, float64, error) { return x, y, nil }

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", identity)
	c.put("b", identity)
	c.put("c", identity) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")
	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", identity)
	c.put("b", identity)
	c.get("a")
	c.put("c", identity)

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", identity)
	c.put("a", func(x, y float64) (float64, float64, error) { return y, x, nil })

	p, ok := c.get("a")
	require.True(t, ok)
	x, y, _ := p(1, 2)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 1.0, y)
	assert.Len(t, c.entries, 1)
}
