package polar

import (
	"math"
)

// Default earth model used by NewNavigator.
const (
	DefaultEquatorRadius = 6378160.0 // metres
	DefaultPoleRadius    = 6356780.0 // metres
	DefaultDndh          = -3.9e-8   // refractivity gradient per metre
)

// Navigator does radar beam geometry around an origin on an ellipsoidal
// earth, with beam bending modelled by an effective earth radius.
// Angles are degrees, lengths metres.
type Navigator struct {
	Lon, Lat, Alt float64
	EquatorRadius float64
	PoleRadius    float64
	Dndh          float64
}

// NewNavigator returns a navigator for a radar at lon/lat/alt with the default earth model.
func NewNavigator(lon, lat, alt float64) Navigator {
	return Navigator{
		Lon:           lon,
		Lat:           lat,
		Alt:           alt,
		EquatorRadius: DefaultEquatorRadius,
		PoleRadius:    DefaultPoleRadius,
		Dndh:          DefaultDndh,
	}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(r float64) float64   { return r * 180 / math.Pi }

// EarthRadius is the geocentric radius of the ellipsoid at latitude lat.
func (n Navigator) EarthRadius(lat float64) float64 {
	a, b := n.EquatorRadius, n.PoleRadius
	c, s := math.Cos(rad(lat)), math.Sin(rad(lat))
	num := a*a*c*a*a*c + b*b*s*b*b*s
	den := a*c*a*c + b*s*b*s
	return math.Sqrt(num / den)
}

func (n Navigator) EarthRadiusOrigin() float64 {
	return n.EarthRadius(n.Lat)
}

// effectiveRadius is the 4/3-like earth radius that straightens the beam.
func (n Navigator) effectiveRadius() float64 {
	return 1 / (1/n.EarthRadiusOrigin() + n.Dndh)
}

// LLToDA returns the surface distance d and azimuth a (clockwise from north,
// in [0, 360)) from the origin to lat/lon.
func (n Navigator) LLToDA(lat, lon float64) (d, a float64) {
	lat1, lon1 := rad(n.Lat), rad(n.Lon)
	lat2, lon2 := rad(lat), rad(lon)
	dlat, dlon := lat2-lat1, lon2-lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	d = 2 * n.EarthRadiusOrigin() * math.Asin(math.Min(1, math.Sqrt(h)))

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	a = math.Mod(deg(math.Atan2(y, x))+360, 360)
	return d, a
}

// DAToLL is the inverse of LLToDA.
func (n Navigator) DAToLL(d, a float64) (lat, lon float64) {
	lat1, lon1 := rad(n.Lat), rad(n.Lon)
	delta := d / n.EarthRadiusOrigin()
	az := rad(a)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(az))
	lon2 := lon1 + math.Atan2(math.Sin(az)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))
	lon = math.Mod(deg(lon2)+540, 360) - 180
	return deg(lat2), lon
}

// DHToRE returns the slant range r and elevation e of the beam that is at
// height h (above sea level) at surface distance d.
func (n Navigator) DHToRE(d, h float64) (r, e float64) {
	R := n.effectiveRadius()
	gamma := d / R
	a := R + n.Alt
	b := R + h
	r = math.Sqrt(a*a + b*b - 2*a*b*math.Cos(gamma))
	e = deg(math.Atan2(b*math.Cos(gamma)-a, b*math.Sin(gamma)))
	return r, e
}

// DEToRH returns the slant range r and height h of a beam at elevation e
// when it is above surface distance d.
func (n Navigator) DEToRH(d, e float64) (r, h float64) {
	R := n.effectiveRadius()
	gamma := d / R
	a := R + n.Alt
	c := math.Cos(gamma + rad(e))
	r = a * math.Sin(gamma) / c
	h = a*math.Cos(rad(e))/c - R
	return r, h
}

// REToDH returns the surface distance d and height h of the range gate at
// slant range r on a beam at elevation e.
func (n Navigator) REToDH(r, e float64) (d, h float64) {
	R := n.effectiveRadius()
	a := R + n.Alt
	hh := math.Sqrt(r*r + a*a + 2*r*a*math.Sin(rad(e)))
	h = hh - R
	d = R * math.Asin(r*math.Cos(rad(e))/hh)
	return d, h
}
