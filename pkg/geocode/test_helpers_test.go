package geocode

import (
	"context"
	"path/filepath"
	"testing"
)

// fakeProvider records every query and answers via the respond func.
type fakeProvider struct {
	name    string
	calls   []string
	respond func(query string) (*Result, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Geocode(_ context.Context, query string) (*Result, error) {
	f.calls = append(f.calls, query)
	return f.respond(query)
}

// neverMatches answers every query with a clean miss.
func neverMatches(name string) *fakeProvider {
	return &fakeProvider{
		name:    name,
		respond: func(string) (*Result, error) { return &Result{Matched: false}, nil },
	}
}

// matchesOnly answers with coordinates when the query equals want.
func matchesOnly(name, want string, lat, lon float64) *fakeProvider {
	return &fakeProvider{
		name: name,
		respond: func(q string) (*Result, error) {
			if q == want {
				return &Result{Latitude: lat, Longitude: lon, Label: q, Matched: true}, nil
			}
			return &Result{Matched: false}, nil
		},
	}
}

// newTestCache creates an empty cache backed by a temp file.
func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return NewCache(filepath.Join(t.TempDir(), "geocache.json"))
}
