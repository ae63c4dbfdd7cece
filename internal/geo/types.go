// Package geo turns raw site and link coordinates into map geometry that
// stays readable when points or lines coincide. Everything here is pure:
// no I/O, no shared state, and every call recomputes from its inputs.
package geo

import (
	"math"
	"strconv"
)

// metersPerDegree is the equirectangular meters-per-degree-of-latitude factor.
const metersPerDegree = 111320.0

// minCosLat floors cos(lat) so longitude deltas stay bounded near the poles.
const minCosLat = 0.15

// keyPrecision is the number of decimals used when bucketing coordinates.
const keyPrecision = 8

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Site is a located endpoint as read from storage. Lat/Lon are nil when the
// stored coordinate is missing.
type Site struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// RenderPoint is a Site with the position it should be drawn at.
type RenderPoint struct {
	Site
	RenderLat *float64 `json:"render_lat"`
	RenderLon *float64 `json:"render_lon"`
	OrigLat   *float64 `json:"orig_lat"`
	OrigLon   *float64 `json:"orig_lon"`
	GroupSize int      `json:"group_size"`
}

// Link carries the attributes of a directed link. Geometry code never reads
// anything but the identifiers.
type Link struct {
	ID            int64   `json:"id"`
	ApplicationID *string `json:"application_id,omitempty"`
	ClientID      *int64  `json:"client_id,omitempty"`
	ClientName    *string `json:"client_name,omitempty"`
	FromSiteID    string  `json:"from_site_id"`
	ToSiteID      string  `json:"to_site_id"`
	FromSiteName  *string `json:"from_site_name,omitempty"`
	ToSiteName    *string `json:"to_site_name,omitempty"`
	Frequency     *int32  `json:"frequency,omitempty"`
	FrequencyPair *int32  `json:"frequency_pair,omitempty"`
	Bandwidth     *int32  `json:"bandwidth,omitempty"`
	Model         *string `json:"model,omitempty"`
}

// JoinedLink is a Link whose endpoint site ids have been resolved to
// coordinates. Any of the four may be nil when the site is unknown or has no
// stored position.
type JoinedLink struct {
	Link
	FromLat *float64 `json:"from_lat"`
	FromLon *float64 `json:"from_lon"`
	ToLat   *float64 `json:"to_lat"`
	ToLon   *float64 `json:"to_lon"`
}

// RenderPath is a link with fully resolved endpoints plus the shifted
// endpoints it should be drawn with.
type RenderPath struct {
	Link
	From        LatLon        `json:"from"`
	To          LatLon        `json:"to"`
	OffsetFrom  LatLon        `json:"offset_from"`
	OffsetTo    LatLon        `json:"offset_to"`
	Path        [2][2]float64 `json:"path"`
	GroupSize   int           `json:"group_size"`
	OffsetIndex float64       `json:"offset_index"`
}

// Arrow is a directional marker placed along a rendered path.
type Arrow struct {
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Heading       float64 `json:"heading"`
	Glyph         string  `json:"glyph"`
	LinkID        int64   `json:"link_id"`
	ApplicationID *string `json:"application_id,omitempty"`
}

// finite returns v when it points at a finite number and nil otherwise.
// NaN and ±Inf are treated exactly like a missing coordinate.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}

// finiteOrZero is used for distances: non-finite values collapse the spread.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func coordKey(v *float64) string {
	if v == nil {
		return "null"
	}
	s := strconv.FormatFloat(*v, 'f', keyPrecision, 64)
	if s == negativeZeroKey {
		return s[1:]
	}
	return s
}

var negativeZeroKey = "-" + strconv.FormatFloat(0, 'f', keyPrecision, 64)

func lonMetersPerDegree(latDeg float64) float64 {
	return metersPerDegree * math.Max(minCosLat, math.Cos(latDeg*math.Pi/180))
}

func ptr(v float64) *float64 {
	return &v
}
