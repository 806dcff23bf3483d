package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const cepLookupURL = "https://brasilapi.com.br/api/cep/v2"

// CEPProvider resolves coordinates by exact postal code via a structured
// CEP lookup service.
type CEPProvider struct {
	httpClient *http.Client
	baseURL    string
}

// CEPOption configures the CEPProvider.
type CEPOption func(*CEPProvider)

// WithCEPHTTPClient sets a custom HTTP client.
func WithCEPHTTPClient(hc *http.Client) CEPOption {
	return func(p *CEPProvider) {
		p.httpClient = hc
	}
}

// WithCEPBaseURL overrides the lookup service base URL.
func WithCEPBaseURL(u string) CEPOption {
	return func(p *CEPProvider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// NewCEPProvider creates a CEPProvider with the given options.
func NewCEPProvider(opts ...CEPOption) *CEPProvider {
	p := &CEPProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cepLookupURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *CEPProvider) Name() string { return "cep" }

// cepResponse is the JSON body of the CEP lookup service. Coordinates are
// reported as strings and may be absent for codes without geo data.
type cepResponse struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Location     struct {
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

// Geocode implements Provider. The query is a postal code in any common
// formatting; anything other than 8 digits after stripping is a clean miss.
func (p *CEPProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	digits := digitsOnly(query)
	if len(digits) != 8 {
		return &Result{Matched: false}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+digits, nil)
	if err != nil {
		return nil, eris.Wrap(err, "cep: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "cep: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	// The service answers 404 for unknown codes.
	if resp.StatusCode == http.StatusNotFound {
		return &Result{Matched: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("cep: lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "cep: read body")
	}

	var cr cepResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, eris.Wrap(err, "cep: parse response")
	}

	lat, latErr := strconv.ParseFloat(cr.Location.Coordinates.Latitude, 64)
	lon, lonErr := strconv.ParseFloat(cr.Location.Coordinates.Longitude, 64)
	if latErr != nil || lonErr != nil {
		// Code exists but carries no coordinates.
		return &Result{Matched: false}, nil
	}

	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Label:     cepLabel(cr),
		Matched:   true,
	}, nil
}

// cepLabel reconstructs a readable address from the structured fields.
func cepLabel(cr cepResponse) string {
	var parts []string
	for _, s := range []string{cr.Street, cr.Neighborhood, cr.City} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	label := strings.Join(parts, ", ")
	if st := strings.TrimSpace(cr.State); st != "" {
		if label == "" {
			return st
		}
		label += " - " + st
	}
	return label
}
