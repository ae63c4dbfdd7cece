// Package importer loads clients, sites and links from the flat CSV export
// used by the licensing database (one row per link, both endpoints inline).
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"linkmap/core-go/internal/geo"
)

const (
	ColClientName = "CLNT_NAME"
	ColSiteName   = "STN_NAME"
	ColSiteAddr   = "STN_ADDR"
	ColLat        = "LAT_DEC"
	ColLon        = "LONG_DEC"
	ColPeerName   = "STASIUN_LAWAN"
	ColPeerLat    = "TO_LAT_DEC"
	ColPeerLon    = "TO_LONG_DEC"
	ColApplID     = "APPL_ID"
	ColFreq       = "FREQ"
	ColFreqPair   = "FREQ_PAIR"
	ColBandwidth  = "BWIDTH"
	ColModel      = "EQ_MDL"
)

var RequiredColumns = []string{
	ColClientName,
	ColSiteName,
	ColLat,
	ColLon,
	ColPeerName,
	ColPeerLat,
	ColPeerLon,
}

var ErrMissingColumns = errors.New("csv is missing required columns")

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns.Error(), strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// RowError points at the offending cell. Row is 1-based and counts the
// header, so it matches what a spreadsheet shows.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type SiteRow struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type LinkRow struct {
	Row        int     `json:"row"`
	ApplID     *string `json:"appl_id,omitempty"`
	ClientName string  `json:"client_name"`
	SiteFrom   string  `json:"site_from"`
	SiteTo     string  `json:"site_to"`
	Freq       *int32  `json:"freq,omitempty"`
	FreqPair   *int32  `json:"freq_pair,omitempty"`
	Bandwidth  *int32  `json:"bandwidth,omitempty"`
	Model      *string `json:"model,omitempty"`
}

// Plan is the parsed, deduplicated content of an import file. Nothing has
// been written yet.
type Plan struct {
	Rows    int       `json:"rows"`
	Clients []string  `json:"clients"`
	Sites   []SiteRow `json:"sites"`
	Links   []LinkRow `json:"links"`
}

type Summary struct {
	Rows          int      `json:"rows"`
	Clients       int      `json:"clients"`
	Sites         int      `json:"sites"`
	Links         int      `json:"links"`
	SampleClients []string `json:"sample_clients"`
	SampleSites   []string `json:"sample_sites"`
}

const sampleSize = 5

func (p *Plan) Summary() Summary {
	s := Summary{
		Rows:          p.Rows,
		Clients:       len(p.Clients),
		Sites:         len(p.Sites),
		Links:         len(p.Links),
		SampleClients: make([]string, 0, sampleSize),
		SampleSites:   make([]string, 0, sampleSize),
	}
	for i := 0; i < len(p.Clients) && i < sampleSize; i++ {
		s.SampleClients = append(s.SampleClients, p.Clients[i])
	}
	for i := 0; i < len(p.Sites) && i < sampleSize; i++ {
		s.SampleSites = append(s.SampleSites, p.Sites[i].Name)
	}
	return s
}

// Parse reads the whole CSV and builds a Plan. Sites come from both the
// near-end (STN_NAME) and far-end (STASIUN_LAWAN) columns; the first
// occurrence of a name wins.
func Parse(r io.Reader) (*Plan, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MissingColumnsError{Columns: append([]string(nil), RequiredColumns...)}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	plan := &Plan{}
	seenClients := map[string]bool{}
	seenSites := map[string]bool{}
	addSite := func(s SiteRow) {
		if s.ID == "" || seenSites[s.ID] {
			return
		}
		seenSites[s.ID] = true
		plan.Sites = append(plan.Sites, s)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		if blankRecord(rec) {
			continue
		}
		plan.Rows++

		row := rowReader{rec: rec, idx: idx, line: line}

		client := row.text(ColClientName)
		if client != "" && !seenClients[client] {
			seenClients[client] = true
			plan.Clients = append(plan.Clients, client)
		}

		fromName := row.text(ColSiteName)
		toName := row.text(ColPeerName)

		fromLat, fromLon, err := row.coords(ColLat, ColLon)
		if err != nil {
			return nil, err
		}
		toLat, toLon, err := row.coords(ColPeerLat, ColPeerLon)
		if err != nil {
			return nil, err
		}
		addSite(SiteRow{ID: fromName, Name: fromName, Address: row.optText(ColSiteAddr), Lat: fromLat, Lon: fromLon})
		addSite(SiteRow{ID: toName, Name: toName, Lat: toLat, Lon: toLon})

		freq, err := row.optInt(ColFreq)
		if err != nil {
			return nil, err
		}
		freqPair, err := row.optInt(ColFreqPair)
		if err != nil {
			return nil, err
		}
		bw, err := row.optInt(ColBandwidth)
		if err != nil {
			return nil, err
		}

		plan.Links = append(plan.Links, LinkRow{
			Row:        line,
			ApplID:     row.optText(ColApplID),
			ClientName: client,
			SiteFrom:   fromName,
			SiteTo:     toName,
			Freq:       freq,
			FreqPair:   freqPair,
			Bandwidth:  bw,
			Model:      row.optText(ColModel),
		})
	}
	return plan, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type rowReader struct {
	rec  []string
	idx  map[string]int
	line int
}

func (r rowReader) text(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r rowReader) optText(col string) *string {
	v := r.text(col)
	if v == "" {
		return nil
	}
	return &v
}

func (r rowReader) optFloat(col string) (*float64, error) {
	v := r.text(col)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &RowError{Row: r.line, Column: col, Err: fmt.Errorf("not a number: %q", v)}
	}
	return &f, nil
}

// coords returns nil for both when either is blank: a half-located site is
// treated as unlocated.
func (r rowReader) coords(latCol, lonCol string) (*float64, *float64, error) {
	lat, err := r.optFloat(latCol)
	if err != nil {
		return nil, nil, err
	}
	lon, err := r.optFloat(lonCol)
	if err != nil {
		return nil, nil, err
	}
	if lat == nil || lon == nil {
		return nil, nil, nil
	}
	if err := geo.CheckLatLon(*lat, *lon); err != nil {
		return nil, nil, &RowError{Row: r.line, Column: latCol + "/" + lonCol, Err: err}
	}
	return lat, lon, nil
}

// optInt accepts "7000" and spreadsheet-style "7000.0"; fractions truncate.
func (r rowReader) optInt(col string) (*int32, error) {
	f, err := r.optFloat(col)
	if err != nil || f == nil {
		return nil, err
	}
	if *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil, &RowError{Row: r.line, Column: col, Err: fmt.Errorf("out of range: %v", *f)}
	}
	v := int32(*f)
	return &v, nil
}
