package mapview

// FeatureCollection is a minimal GeoJSON document. Coordinates are
// [lon, lat] per RFC 7946.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// GeoJSON renders sites as Points at their drawn position, links as
// LineStrings along their offset path, and arrows as Points. Sites without
// coordinates are omitted.
func GeoJSON(m Map) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(m.Sites)+len(m.Links)+len(m.Arrows))}

	for _, s := range m.Sites {
		if s.RenderLat == nil || s.RenderLon == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: []float64{*s.RenderLon, *s.RenderLat}},
			Properties: map[string]any{
				"kind":       "site",
				"id":         s.ID,
				"name":       s.Name,
				"group_size": s.GroupSize,
				"orig_lat":   s.OrigLat,
				"orig_lon":   s.OrigLon,
				"tooltip":    s.Tooltip,
			},
		})
	}

	for _, l := range m.Links {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{Type: "LineString", Coordinates: [][]float64{
				{l.Path[0][0], l.Path[0][1]},
				{l.Path[1][0], l.Path[1][1]},
			}},
			Properties: map[string]any{
				"kind":           "link",
				"id":             l.ID,
				"application_id": l.ApplicationID,
				"client_name":    l.ClientName,
				"from_site_id":   l.FromSiteID,
				"to_site_id":     l.ToSiteID,
				"operator":       l.Operator.Key,
				"color":          l.Operator.Colors.Main,
				"pulse_color":    l.Operator.Colors.Pulse,
				"hover_color":    l.Operator.Colors.Hover,
				"group_size":     l.GroupSize,
				"offset_index":   l.OffsetIndex,
				"tooltip":        l.Tooltip,
			},
		})
	}

	for _, a := range m.Arrows {
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: []float64{a.Lon, a.Lat}},
			Properties: map[string]any{
				"kind":           "arrow",
				"link_id":        a.LinkID,
				"application_id": a.ApplicationID,
				"heading":        a.Heading,
				"glyph":          a.Glyph,
			},
		})
	}
	return fc
}
