package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-enrich/internal/resilience"
)

var kelcon = AddressInput{Street: "155 Ryland Pike", City: "Brownsboro", State: "AL", ZipCode: "35741"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", WithHTTPClient(newRewriteClient(srv.URL, defaultBaseURL)))
}

func TestAddressInput_OneLine(t *testing.T) {
	assert.Equal(t, "155 Ryland Pike, Brownsboro, AL 35741", kelcon.OneLine())
}

func TestLookup_KeepsDecimalText(t *testing.T) {
	var gotAddress, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [
				{"geometry": {"location": {"lat": 34.6950, "lng": -86.4527}}},
				{"geometry": {"location": {"lat": 1.0, "lng": 2.0}}}
			]
		}`)
	})

	coord, err := c.Lookup(context.Background(), kelcon)
	require.NoError(t, err)
	assert.Equal(t, "34.6950", coord.Lat.String())
	assert.Equal(t, "-86.4527", coord.Lng.String())
	assert.Equal(t, "155 Ryland Pike, Brownsboro, AL 35741", gotAddress)
	assert.Equal(t, "test-key", gotKey)
}

func TestLookup_ZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	})

	coord, err := c.Lookup(context.Background(), kelcon)
	assert.Nil(t, coord)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ZERO_RESULTS", se.Status)
}

func TestLookup_RequestDenied(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid.", "results": []}`)
	})

	_, err := c.Lookup(context.Background(), kelcon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestLookup_OKWithoutResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "OK", "results": []}`)
	})

	_, err := c.Lookup(context.Background(), kelcon)
	var se *StatusError
	assert.True(t, errors.As(err, &se))
}

func TestLookup_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Lookup(context.Background(), kelcon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.True(t, resilience.IsTransient(err))
}

func TestLookup_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := c.Lookup(context.Background(), kelcon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestLookup_NoKey(t *testing.T) {
	c := New("")
	assert.False(t, c.Enabled())

	_, err := c.Lookup(context.Background(), kelcon)
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestGeocode_SwallowsFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "OVER_QUERY_LIMIT", "results": []}`)
	})
	assert.Nil(t, c.Geocode(context.Background(), kelcon))
}

func TestGeocode_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New("test-key", WithBaseURL(url), WithTimeout(time.Second))
	assert.Nil(t, c.Geocode(context.Background(), kelcon))
}

func TestGeocode_DisabledMakesNoRequest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := New("  ", WithBaseURL(srv.URL))
	assert.Nil(t, c.Geocode(context.Background(), kelcon))
	assert.Zero(t, calls)
}

func TestGeocode_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "OK", "results": [{"geometry": {"location": {"lat": 30.6954, "lng": -88.0399}}}]}`)
	})

	coord := c.Geocode(context.Background(), AddressInput{Street: "1 Main St", City: "Mobile", State: "AL", ZipCode: "36602"})
	require.NotNil(t, coord)
	assert.Equal(t, "30.6954", string(coord.Lat))
}

func TestWithBaseURL_IgnoresEmpty(t *testing.T) {
	c := New("k", WithBaseURL(""))
	assert.Equal(t, defaultBaseURL, c.baseURL)
}

func TestWithTimeout_DefaultClient(t *testing.T) {
	assert.Equal(t, 10*time.Second, New("k").httpClient.Timeout)
	assert.Equal(t, 3*time.Second, New("k", WithTimeout(3*time.Second)).httpClient.Timeout)
	assert.Equal(t, 10*time.Second, New("k", WithTimeout(0)).httpClient.Timeout)
}

func TestWithTimeout_LeavesSuppliedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: 30 * time.Second}
	c := New("k", WithHTTPClient(shared), WithTimeout(time.Second))
	assert.Same(t, shared, c.httpClient)
	assert.Equal(t, 30*time.Second, shared.Timeout)

	c = New("k", WithTimeout(time.Second), WithHTTPClient(shared))
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestWithHTTPClient_NilKeepsDefault(t *testing.T) {
	c := New("k", WithHTTPClient(nil), WithTimeout(2*time.Second))
	require.NotNil(t, c.httpClient)
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
}
