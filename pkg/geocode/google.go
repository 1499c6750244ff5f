package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/resilience"
)

// ErrNoKey is returned by Lookup when no API key is configured.
var ErrNoKey = eris.New("geocode: google api key not configured")

// StatusError reports a Geocoding API envelope whose status was not OK, or
// an OK envelope without results.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "geocode: google status " + e.Status
	}
	return "geocode: google status " + e.Status + ": " + e.Message
}

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	Geometry struct {
		Location Coordinate `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// Lookup geocodes addr and returns the first result's location.
func (c *Client) Lookup(ctx context.Context, addr AddressInput) (*Coordinate, error) {
	if !c.Enabled() {
		return nil, ErrNoKey
	}

	params := url.Values{
		"address": {addr.OneLine()},
		"key":     {c.key},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("geocode: google", resp.StatusCode, body)
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	if googleResp.Status != "OK" || len(googleResp.Results) == 0 {
		return nil, &StatusError{Status: googleResp.Status, Message: googleResp.ErrorMessage}
	}

	loc := googleResp.Results[0].Geometry.Location
	if loc.Lat == "" || loc.Lng == "" {
		return nil, eris.New("geocode: google result has no location")
	}
	return &loc, nil
}
