package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS84 ellipsoid.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1 / 298.257223563
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// epsilon is the length below which vectors and angles are treated as zero.
const epsilon = 1e-12

// GeodeticToECEF converts latitude and longitude in degrees and altitude in
// metres above the ellipsoid to earth-centred, earth-fixed metres.
func GeodeticToECEF(lat, lon, alt float64) r3.Vec {
	phi := DegToRad(lat)
	lambda := DegToRad(lon)
	sinPhi, cosPhi := math.Sincos(phi)
	sinLambda, cosLambda := math.Sincos(lambda)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinPhi*sinPhi)
	return r3.Vec{
		X: (n + alt) * cosPhi * cosLambda,
		Y: (n + alt) * cosPhi * sinLambda,
		Z: (n*(1-wgs84E2) + alt) * sinPhi,
	}
}

// ECEFToGeodetic is the inverse of GeodeticToECEF. Latitude is refined by
// fixed-point iteration, which converges to well below a millimetre away
// from the poles.
func ECEFToGeodetic(p r3.Vec) (lat, lon, alt float64) {
	lon = math.Atan2(p.Y, p.X)
	rho := math.Hypot(p.X, p.Y)
	if rho < epsilon {
		// On the polar axis.
		lat = math.Copysign(math.Pi/2, p.Z)
		b := wgs84A * (1 - wgs84F)
		return RadToDeg(lat), RadToDeg(lon), math.Abs(p.Z) - b
	}

	phi := math.Atan2(p.Z, rho*(1-wgs84E2))
	var n, h float64
	for i := 0; i < 8; i++ {
		sinPhi := math.Sin(phi)
		n = wgs84A / math.Sqrt(1-wgs84E2*sinPhi*sinPhi)
		h = rho/math.Cos(phi) - n
		phi = math.Atan2(p.Z, rho*(1-wgs84E2*n/(n+h)))
	}
	return RadToDeg(phi), RadToDeg(lon), h
}

// GeodeticToENU converts a geodetic point to East-North-Up metres relative to
// the reference point (lat0, lon0, alt0).
func GeodeticToENU(lat, lon, alt, lat0, lon0, alt0 float64) r3.Vec {
	p := GeodeticToECEF(lat, lon, alt)
	o := GeodeticToECEF(lat0, lon0, alt0)
	return ecefToENU(r3.Sub(p, o), lat0, lon0)
}

// ENUToGeodetic converts East-North-Up metres relative to (lat0, lon0, alt0)
// back to geodetic coordinates.
func ENUToGeodetic(enu r3.Vec, lat0, lon0, alt0 float64) (lat, lon, alt float64) {
	sinPhi, cosPhi := math.Sincos(DegToRad(lat0))
	sinLambda, cosLambda := math.Sincos(DegToRad(lon0))

	d := r3.Vec{
		X: -sinLambda*enu.X - sinPhi*cosLambda*enu.Y + cosPhi*cosLambda*enu.Z,
		Y: cosLambda*enu.X - sinPhi*sinLambda*enu.Y + cosPhi*sinLambda*enu.Z,
		Z: cosPhi*enu.Y + sinPhi*enu.Z,
	}
	return ECEFToGeodetic(r3.Add(GeodeticToECEF(lat0, lon0, alt0), d))
}

func ecefToENU(d r3.Vec, lat0, lon0 float64) r3.Vec {
	sinPhi, cosPhi := math.Sincos(DegToRad(lat0))
	sinLambda, cosLambda := math.Sincos(DegToRad(lon0))
	return r3.Vec{
		X: -sinLambda*d.X + cosLambda*d.Y,
		Y: -sinPhi*cosLambda*d.X - sinPhi*sinLambda*d.Y + cosPhi*d.Z,
		Z: cosPhi*cosLambda*d.X + cosPhi*sinLambda*d.Y + sinPhi*d.Z,
	}
}
