package geo

import "math"

// DefaultCenter is used when there is nothing located to center on.
var DefaultCenter = LatLon{Lat: -2.5, Lon: 118.0}

// Center averages latitudes and longitudes independently, skipping
// non-finite values per axis. ok is false when neither axis had any value;
// in that case DefaultCenter is returned.
func Center(points []LatLon) (LatLon, bool) {
	var sumLat, sumLon float64
	var nLat, nLon int
	for _, p := range points {
		if !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) {
			sumLat += p.Lat
			nLat++
		}
		if !math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0) {
			sumLon += p.Lon
			nLon++
		}
	}
	if nLat == 0 || nLon == 0 {
		return DefaultCenter, false
	}
	return LatLon{Lat: sumLat / float64(nLat), Lon: sumLon / float64(nLon)}, true
}

// SitePositions returns the true (not spread) positions of sites, with
// missing axes reported as NaN so Center skips them.
func SitePositions(sites []Site) []LatLon {
	out := make([]LatLon, 0, len(sites))
	for _, s := range sites {
		p := LatLon{Lat: math.NaN(), Lon: math.NaN()}
		if v := finite(s.Lat); v != nil {
			p.Lat = *v
		}
		if v := finite(s.Lon); v != nil {
			p.Lon = *v
		}
		out = append(out, p)
	}
	return out
}

// PathEndpoints returns the offset endpoints of every path.
func PathEndpoints(paths []RenderPath) []LatLon {
	out := make([]LatLon, 0, 2*len(paths))
	for _, p := range paths {
		out = append(out, p.OffsetFrom, p.OffsetTo)
	}
	return out
}
