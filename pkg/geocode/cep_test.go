package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cepBody = `{
	"cep": "41650195",
	"state": "BA",
	"city": "Lauro de Freitas",
	"neighborhood": "Ipitanga",
	"street": "Rua São Cristóvão",
	"location": {
		"type": "Point",
		"coordinates": {"latitude": "-12.8905", "longitude": "-38.3222"}
	}
}`

func TestCEPGeocode_Match(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, cepBody)
	}))
	defer srv.Close()

	p := NewCEPProvider(WithCEPBaseURL(srv.URL))
	result, err := p.Geocode(context.Background(), "41650-195")
	require.NoError(t, err)

	assert.Equal(t, "/41650195", gotPath) // formatting stripped
	assert.True(t, result.Matched)
	assert.InDelta(t, -12.8905, result.Latitude, 0.0001)
	assert.InDelta(t, -38.3222, result.Longitude, 0.0001)
	assert.Equal(t, "Rua São Cristóvão, Ipitanga, Lauro de Freitas - BA", result.Label)
}

func TestCEPGeocode_UnknownCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewCEPProvider(WithCEPBaseURL(srv.URL))
	result, err := p.Geocode(context.Background(), "00000-000")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestCEPGeocode_NoCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"cep":"40000000","state":"BA","city":"Salvador","location":{"coordinates":{}}}`)
	}))
	defer srv.Close()

	p := NewCEPProvider(WithCEPBaseURL(srv.URL))
	result, err := p.Geocode(context.Background(), "40000-000")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestCEPGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewCEPProvider(WithCEPBaseURL(srv.URL))
	_, err := p.Geocode(context.Background(), "41650-195")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCEPGeocode_NotACode(t *testing.T) {
	p := NewCEPProvider(WithCEPBaseURL("http://127.0.0.1:1")) // never reached
	result, err := p.Geocode(context.Background(), "Rua A, Salvador")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}
