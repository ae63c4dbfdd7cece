package geo

import "math"

// Decluster assigns every site a render position. Sites sharing a coordinate
// (compared at 8 decimal places) are spread evenly on a circle of radius
// separationMeters around the coordinate of the first site in the group; the
// i-th member by input order takes the angle 2π·i/n. Singletons, and every
// site when enabled is false, are rendered where they are.
//
// The result has one entry per input site, in input order.
func Decluster(sites []Site, enabled bool, separationMeters float64) []RenderPoint {
	out := make([]RenderPoint, 0, len(sites))
	if len(sites) == 0 {
		return out
	}
	separationMeters = finiteOrZero(separationMeters)

	groups := make(map[string][]int)
	keys := make([]string, len(sites))
	for i, s := range sites {
		k := coordKey(finite(s.Lat)) + "," + coordKey(finite(s.Lon))
		keys[i] = k
		groups[k] = append(groups[k], i)
	}

	slot := make(map[int]int, len(sites))
	for _, members := range groups {
		for pos, idx := range members {
			slot[idx] = pos
		}
	}

	for i, s := range sites {
		lat, lon := finite(s.Lat), finite(s.Lon)
		members := groups[keys[i]]
		n := len(members)

		p := RenderPoint{
			Site:      s,
			RenderLat: lat,
			RenderLon: lon,
			OrigLat:   lat,
			OrigLon:   lon,
			GroupSize: n,
		}
		if n > 1 && enabled {
			anchor := sites[members[0]]
			aLat, aLon := finite(anchor.Lat), finite(anchor.Lon)

			latDeg := 0.0
			if aLat != nil {
				latDeg = *aLat
			}
			dLat := separationMeters / metersPerDegree
			dLon := separationMeters / lonMetersPerDegree(latDeg)

			theta := 2 * math.Pi * float64(slot[i]) / float64(n)
			if aLat != nil {
				p.RenderLat = ptr(*aLat + dLat*math.Sin(theta))
			}
			if aLon != nil {
				p.RenderLon = ptr(*aLon + dLon*math.Cos(theta))
			}
		}
		out = append(out, p)
	}
	return out
}
