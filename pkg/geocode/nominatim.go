package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	nominatimSearchURL = "https://nominatim.openstreetmap.org/search"
	countryQualifier   = ", Brasil"

	defaultUserAgent = "ledax-mapa-unidades/2.0"
	defaultMinDelay  = time.Second
)

// NominatimProvider resolves free-text queries against a Nominatim-style
// geocoding service. All calls share one rate limiter: the service requires
// a minimum delay between successive requests regardless of caller.
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NominatimOption configures the NominatimProvider.
type NominatimOption func(*NominatimProvider)

// WithNominatimHTTPClient sets a custom HTTP client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(p *NominatimProvider) {
		p.httpClient = hc
	}
}

// WithNominatimBaseURL overrides the search endpoint URL.
func WithNominatimBaseURL(u string) NominatimOption {
	return func(p *NominatimProvider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithNominatimUserAgent sets the User-Agent header sent on every request.
func WithNominatimUserAgent(ua string) NominatimOption {
	return func(p *NominatimProvider) {
		p.userAgent = ua
	}
}

// WithNominatimMinDelay sets the minimum interval between live requests.
func WithNominatimMinDelay(d time.Duration) NominatimOption {
	return func(p *NominatimProvider) {
		if d > 0 {
			p.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// NewNominatimProvider creates a NominatimProvider with the given options.
func NewNominatimProvider(opts ...NominatimOption) *NominatimProvider {
	p := &NominatimProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    nominatimSearchURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(defaultMinDelay), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// nominatimPlace is one entry of the search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Provider. The country qualifier is appended to every
// query; the returned Label is the query exactly as given, so callers know
// the text that matched verbatim.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return &Result{Matched: false}, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"q":      {query + countryQualifier},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lat")
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lon")
	}

	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Label:     query,
		Matched:   true,
	}, nil
}
