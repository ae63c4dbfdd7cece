package sqlcgen

type Client struct {
	ClientID   int64
	ClientName string
}

type Site struct {
	SiteID      string
	SiteName    *string
	SiteAddress *string
	LatDec      *float64
	LongDec     *float64
}

type Link struct {
	LinkID    int64
	ApplID    *string
	ClientID  *int64
	SiteFrom  *string
	SiteTo    *string
	Freq      *int32
	FreqPair  *int32
	Bandwidth *int32
	Model     *string
}

// LinkEndpoint is a link joined with the coordinates and names of both
// endpoint sites and its client name. Coordinates are nil when the site row
// is missing or has no stored position.
type LinkEndpoint struct {
	Link
	ClientName   *string
	FromSiteName *string
	FromLat      *float64
	FromLon      *float64
	ToSiteName   *string
	ToLat        *float64
	ToLon        *float64
}
