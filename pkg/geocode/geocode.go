// Package geocode resolves noisy Brazilian postal addresses to coordinates.
// A Resolver runs a fixed cascade of strategies (structured CEP lookup,
// then increasingly relaxed free-text queries) against two providers,
// consulting a persistent query cache before every live call.
package geocode

import "context"

// Result holds one provider lookup outcome. A clean miss is Matched=false
// with a nil error; transport and protocol failures are returned as errors
// so callers can tell the two apart.
type Result struct {
	Latitude  float64
	Longitude float64
	Label     string // human-readable form of what matched
	Matched   bool
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Result, error)
}
