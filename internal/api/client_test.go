package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmap/internal/api"
	"gridmap/internal/dataset"
	"gridmap/internal/geom"
	"gridmap/internal/server"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	d, err := dataset.Sample(zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(server.New(server.Config{}, d, zerolog.Nop()))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRoundTrip(t *testing.T) {
	ts := newBackend(t)
	c := api.NewClient(ts.URL+"/", api.WithHTTPClient(ts.Client()))
	ctx := context.Background()

	status, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status)

	b, err := c.Boundary(ctx)
	require.NoError(t, err)
	assert.Len(t, b.Features, 1)

	res, err := c.Power(ctx, geom.OverlandPark)
	require.NoError(t, err)
	assert.NotEmpty(t, res.GeoJSON.Features)
	assert.Equal(t, 6, res.Stats.Transformers())
	require.NotNil(t, res.Stats.HighestVoltage)
}

func TestClientSurfacesDetail(t *testing.T) {
	ts := newBackend(t)
	c := api.NewClient(ts.URL)

	_, err := c.Power(context.Background(), geom.Region{South: 38.0, West: -95.5, North: 39.5, East: -94.0})
	require.Error(t, err)

	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Zoom in - bounding box too large (max 60km diagonal)", se.Error())
}

func TestClientStatusWithoutDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := api.NewClient(ts.URL).Boundary(context.Background())
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "request failed with status 502", se.Error())
}

func TestClientSubstationCountFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "38.85,-94.8,39.1,-94.55", r.URL.Query().Get("bbox"))
		_, _ = w.Write([]byte(`{"geojson":{"type":"FeatureCollection","features":[]},"stats":{"transmission_miles":1.5,"distribution_miles":0,"substation_count":4}}`))
	}))
	defer ts.Close()

	res, err := api.NewClient(ts.URL).Power(context.Background(), geom.OverlandPark)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Stats.Transformers())
	assert.Equal(t, 1.5, res.Stats.TransmissionMiles)
	assert.Empty(t, res.GeoJSON.Features)
}

func TestClientContextCancel(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := api.NewClient(ts.URL).Boundary(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
