package geo

import (
	"fmt"
	"math"
)

// Deconflict resolves each link to drawable geometry. Links that share the
// same directed segment (endpoints compared at 8 decimal places) are
// translated sideways so they render as parallel lines spaced offsetMeters
// apart and centred on the true segment. A→B and B→A are separate groups.
//
// Links missing any endpoint coordinate (nil or non-finite) are dropped from
// the result without error. Surviving links keep input order.
func Deconflict(links []JoinedLink, offsetMeters float64) []RenderPath {
	offsetMeters = finiteOrZero(offsetMeters)

	resolved := make([]RenderPath, 0, len(links))
	for _, l := range links {
		fromLat, fromLon := finite(l.FromLat), finite(l.FromLon)
		toLat, toLon := finite(l.ToLat), finite(l.ToLon)
		if fromLat == nil || fromLon == nil || toLat == nil || toLon == nil {
			continue
		}
		resolved = append(resolved, RenderPath{
			Link: l.Link,
			From: LatLon{Lat: *fromLat, Lon: *fromLon},
			To:   LatLon{Lat: *toLat, Lon: *toLon},
		})
	}

	groups := make(map[string][]int)
	keys := make([]string, len(resolved))
	for i, p := range resolved {
		k := segmentKey(p.From, p.To)
		keys[i] = k
		groups[k] = append(groups[k], i)
	}

	for _, members := range groups {
		n := len(members)
		if n == 1 {
			p := &resolved[members[0]]
			p.GroupSize = 1
			p.setOffset(p.From, p.To, LatLon{})
			continue
		}

		// Every member is shifted relative to the first member's segment.
		from, to := resolved[members[0]].From, resolved[members[0]].To
		perp := perpendicularDegrees(from, to)
		for pos, idx := range members {
			index := float64(pos) - float64(n-1)/2
			distance := index * offsetMeters
			p := &resolved[idx]
			p.GroupSize = n
			p.OffsetIndex = index
			p.setOffset(from, to, LatLon{Lat: distance * perp.Lat, Lon: distance * perp.Lon})
		}
	}
	return resolved
}

// CenteredIndices returns the symmetric offset indices assigned to a group of
// n overlapping links: i − (n−1)/2 for i in [0, n).
func CenteredIndices(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) - float64(n-1)/2
	}
	return out
}

func (p *RenderPath) setOffset(from, to, shift LatLon) {
	p.OffsetFrom = LatLon{Lat: from.Lat + shift.Lat, Lon: from.Lon + shift.Lon}
	p.OffsetTo = LatLon{Lat: to.Lat + shift.Lat, Lon: to.Lon + shift.Lon}
	p.Path = [2][2]float64{
		{p.OffsetFrom.Lon, p.OffsetFrom.Lat},
		{p.OffsetTo.Lon, p.OffsetTo.Lat},
	}
}

// perpendicularDegrees is the unit perpendicular of from→to, built in a local
// meter frame around the midpoint latitude and converted back to degrees per
// axis. Multiplying by a distance in meters yields a degree offset.
func perpendicularDegrees(from, to LatLon) LatLon {
	latToM := metersPerDegree
	lonToM := lonMetersPerDegree((from.Lat + to.Lat) / 2)

	dLatM := (to.Lat - from.Lat) * latToM
	dLonM := (to.Lon - from.Lon) * lonToM

	length := math.Sqrt(dLatM*dLatM + dLonM*dLonM)
	if length < 1 {
		length = 1
	}

	perpLatM := -dLonM / length
	perpLonM := dLatM / length
	return LatLon{Lat: perpLatM / latToM, Lon: perpLonM / lonToM}
}

func segmentKey(from, to LatLon) string {
	return fmt.Sprintf("%s,%s->%s,%s",
		coordKey(&from.Lat), coordKey(&from.Lon),
		coordKey(&to.Lat), coordKey(&to.Lon),
	)
}
