package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode_Match(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat":"-12.9718","lon":"-38.5011","display_name":"Salvador, BA, Brasil"}]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(
		WithNominatimBaseURL(srv.URL),
		WithNominatimMinDelay(time.Millisecond),
		WithNominatimUserAgent("test-agent/1.0"),
	)

	result, err := p.Geocode(context.Background(), "Salvador - BA")
	require.NoError(t, err)

	assert.Equal(t, "Salvador - BA, Brasil", gotQuery) // country qualifier appended
	assert.Equal(t, "test-agent/1.0", gotUA)
	assert.True(t, result.Matched)
	assert.InDelta(t, -12.9718, result.Latitude, 0.0001)
	assert.InDelta(t, -38.5011, result.Longitude, 0.0001)
	assert.Equal(t, "Salvador - BA", result.Label) // verbatim query, no qualifier
}

func TestNominatimGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(WithNominatimBaseURL(srv.URL), WithNominatimMinDelay(time.Millisecond))
	result, err := p.Geocode(context.Background(), "Rua Inexistente, Lugar Nenhum")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestNominatimGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewNominatimProvider(WithNominatimBaseURL(srv.URL), WithNominatimMinDelay(time.Millisecond))
	_, err := p.Geocode(context.Background(), "Salvador")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNominatimGeocode_BlankQuery(t *testing.T) {
	p := NewNominatimProvider(WithNominatimBaseURL("http://127.0.0.1:1"))
	result, err := p.Geocode(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestNominatimGeocode_SharedLimiterSerializes(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	const delay = 50 * time.Millisecond
	p := NewNominatimProvider(WithNominatimBaseURL(srv.URL), WithNominatimMinDelay(delay))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Geocode(context.Background(), "Salvador")
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 3)
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(stamps); i++ {
		for j := 0; j < i; j++ {
			gap := stamps[i].Sub(stamps[j])
			if gap < 0 {
				gap = -gap
			}
			assert.GreaterOrEqual(t, gap, delay/2, "calls %d and %d burst through the limiter", j, i)
		}
	}
}
