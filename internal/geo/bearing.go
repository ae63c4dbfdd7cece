package geo

import "math"

// DefaultArrowPosition places arrows near, but not on, the destination end.
const DefaultArrowPosition = 0.82

// ArrowGlyph is the directional marker drawn at each arrow position.
const ArrowGlyph = "➤"

// Bearing returns the initial great-circle bearing from point 1 to point 2,
// in degrees clockwise from north within [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	x := math.Sin(dLon) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	deg := math.Atan2(x, y) * 180 / math.Pi
	deg = math.Mod(deg+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Interpolate returns the point a fraction t along the straight line between
// two coordinates. Only meaningful for short segments.
func Interpolate(lat1, lon1, lat2, lon2, t float64) (float64, float64) {
	return lat1 + (lat2-lat1)*t, lon1 + (lon2-lon1)*t
}

// Arrows computes one marker per path, using the offset endpoints so the
// marker sits on the line as drawn.
func Arrows(paths []RenderPath, t float64) []Arrow {
	out := make([]Arrow, 0, len(paths))
	for _, p := range paths {
		from, to := p.OffsetFrom, p.OffsetTo
		lat, lon := Interpolate(from.Lat, from.Lon, to.Lat, to.Lon, t)
		out = append(out, Arrow{
			Lat:           lat,
			Lon:           lon,
			Heading:       Bearing(from.Lat, from.Lon, to.Lat, to.Lon),
			Glyph:         ArrowGlyph,
			LinkID:        p.ID,
			ApplicationID: p.ApplicationID,
		})
	}
	return out
}
