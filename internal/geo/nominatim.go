// Package geo resolves shared coordinates to an Indian postal address.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"swasthyasathi/pkg"
)

// ErrNoResult is returned when the service knows nothing about a point.
var ErrNoResult = errors.New("no address for location")

// Nominatim is a reverse geocoder backed by an OSM Nominatim server.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		// the public server rejects requests without one
		userAgent = "swasthyasathi/1.0"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type reverseResponse struct {
	Error   string `json:"error"`
	Address struct {
		Postcode      string `json:"postcode"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		County        string `json:"county"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
	} `json:"address"`
}

// Reverse looks up the address for lat/lon.  The coordinates themselves are
// always copied into the result.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (pkg.Location, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return pkg.Location{}, err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return pkg.Location{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkg.Location{}, fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return pkg.Location{}, fmt.Errorf("reverse geocode: decode: %w", err)
	}
	if out.Error != "" {
		return pkg.Location{}, ErrNoResult
	}

	a := out.Address
	loc := pkg.Location{
		Pincode:     strings.ReplaceAll(a.Postcode, " ", ""),
		City:        firstNonEmpty(a.City, a.Town, a.Village),
		State:       a.State,
		District:    a.StateDistrict,
		Subdistrict: a.County,
		Latitude:    &lat,
		Longitude:   &lon,
	}
	if loc.Pincode == "" && loc.City == "" && loc.District == "" && loc.State == "" {
		return loc, ErrNoResult
	}
	return loc, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
