package geo

import (
	"math"
	"testing"
)

func TestBearing_CardinalDirections(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"east", 0, 0, 0, 1, 90},
		{"north", 0, 0, 1, 0, 0},
		{"west", 0, 0, 0, -1, 270},
		{"south", 0, 0, -1, 0, 180},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Bearing(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBearing_AlwaysInRange(t *testing.T) {
	coords := []float64{-80, -45.5, -1, 0, 0.5, 33, 89}
	for _, a := range coords {
		for _, b := range coords {
			got := Bearing(a, b, b/2, a/3)
			if got < 0 || got >= 360 {
				t.Fatalf("bearing out of range: %v", got)
			}
		}
	}
}

func TestInterpolate(t *testing.T) {
	lat, lon := Interpolate(0, 0, 10, 20, 0.5)
	if lat != 5 || lon != 10 {
		t.Fatalf("expected (5,10), got (%v,%v)", lat, lon)
	}
	lat, lon = Interpolate(-6, 106, -7, 107, 0)
	if lat != -6 || lon != 106 {
		t.Fatalf("expected start point at t=0, got (%v,%v)", lat, lon)
	}
}

func TestArrows_UseOffsetEndpoints(t *testing.T) {
	appl := "APP-1"
	l1 := joined(1, 0, 0, 0, 1)
	l1.ApplicationID = &appl
	paths := Deconflict([]JoinedLink{l1, joined(2, 0, 0, 0, 1)}, 25)

	arrows := Arrows(paths, DefaultArrowPosition)
	if len(arrows) != 2 {
		t.Fatalf("expected 2 arrows, got %d", len(arrows))
	}
	for i, a := range arrows {
		p := paths[i]
		if a.LinkID != p.ID {
			t.Fatalf("expected arrow for link %d, got %d", p.ID, a.LinkID)
		}
		if a.Glyph != ArrowGlyph {
			t.Fatalf("unexpected glyph %q", a.Glyph)
		}
		wantLat, wantLon := Interpolate(p.OffsetFrom.Lat, p.OffsetFrom.Lon, p.OffsetTo.Lat, p.OffsetTo.Lon, DefaultArrowPosition)
		if a.Lat != wantLat || a.Lon != wantLon {
			t.Fatalf("expected arrow on the offset line at (%v,%v), got (%v,%v)", wantLat, wantLon, a.Lat, a.Lon)
		}
		if a.Lat == 0 {
			t.Fatalf("expected arrow off the true line for an offset link")
		}
		if math.Abs(a.Heading-90) > 1e-4 {
			t.Fatalf("expected eastward heading, got %v", a.Heading)
		}
	}
	if arrows[0].ApplicationID == nil || *arrows[0].ApplicationID != appl {
		t.Fatalf("expected application id carried onto arrow")
	}
}

func TestCenter(t *testing.T) {
	c, ok := Center([]LatLon{{Lat: 1, Lon: 2}, {Lat: 3, Lon: math.NaN()}, {Lat: math.NaN(), Lon: 4}})
	if !ok {
		t.Fatalf("expected ok")
	}
	if c.Lat != 2 || c.Lon != 3 {
		t.Fatalf("expected (2,3), got %+v", c)
	}

	c, ok = Center(nil)
	if ok || c != DefaultCenter {
		t.Fatalf("expected default center, got %+v ok=%v", c, ok)
	}
}

func TestSitePositions_MissingAxesAreNaN(t *testing.T) {
	got := SitePositions([]Site{{ID: "a", Lat: f(1)}})
	if got[0].Lat != 1 || !math.IsNaN(got[0].Lon) {
		t.Fatalf("expected (1, NaN), got %+v", got[0])
	}
}
