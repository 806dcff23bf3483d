package geocode

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Defaults for the Bahia service area the source data covers.
var defaultKnownCities = []string{
	"Salvador",
	"Camaçari",
	"Lauro de Freitas",
	"Simões Filho",
	"Praia do Forte",
	"Acupe",
}

const (
	defaultState         = "BA"
	defaultFallbackQuery = "Salvador - BA"
)

// Resolution is the cascade output. Coordinates and Query are either all
// set or all nil; Query is the exact text that produced the match.
type Resolution struct {
	Latitude  *float64
	Longitude *float64
	Query     *string
}

// Resolver runs the address-resolution cascade. All collaborators are
// explicit dependencies; the zero value is not usable.
type Resolver struct {
	cache      *Cache
	structured Provider
	fuzzy      Provider
	cities     []string
	state      string
	fallback   string
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithKnownCities overrides the ordered city list used for anchored retries.
func WithKnownCities(cities []string) ResolverOption {
	return func(r *Resolver) {
		r.cities = cities
	}
}

// WithDefaultState overrides the two-letter state qualifier.
func WithDefaultState(uf string) ResolverOption {
	return func(r *Resolver) {
		r.state = uf
	}
}

// WithFallbackQuery overrides the last-resort query.
func WithFallbackQuery(q string) ResolverOption {
	return func(r *Resolver) {
		r.fallback = q
	}
}

// NewResolver creates a Resolver over the given cache and providers.
func NewResolver(cache *Cache, structured, fuzzy Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:      cache,
		structured: structured,
		fuzzy:      fuzzy,
		cities:     defaultKnownCities,
		state:      defaultState,
		fallback:   defaultFallbackQuery,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tries each strategy in order and returns on the first match.
// Strategies, strictly in order:
//  1. clean the address; blank input terminates immediately
//  2. structured lookup by extracted CEP
//  3. the cleaned text as-is
//  4. text qualified with the default state, when no state suffix present
//  5. text anchored on each known city mentioned in it, in list order
//  6. the fixed capital-city fallback
//
// Every attempt goes through the cache; live calls happen only on a miss
// and their outcome, including failures, is recorded before returning.
func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	addr := CleanAddress(raw)
	if addr == "" {
		return Resolution{}
	}

	if cep := ExtractCEP(addr); cep != "" {
		if res := r.tryStructured(ctx, cep); res != nil {
			return *res
		}
	}

	if res := r.tryFuzzy(ctx, addr); res != nil {
		return *res
	}

	if !hasStateSuffix(addr) {
		if res := r.tryFuzzy(ctx, addr+" - "+r.state); res != nil {
			return *res
		}
	}

	folded := foldDiacritics(strings.ToLower(addr))
	for _, city := range r.cities {
		if strings.Contains(folded, foldDiacritics(strings.ToLower(city))) {
			if res := r.tryFuzzy(ctx, addr+", "+city+" - "+r.state); res != nil {
				return *res
			}
		}
	}

	if res := r.tryFuzzy(ctx, r.fallback); res != nil {
		return *res
	}

	return Resolution{}
}

// tryStructured resolves a postal code through the cache and the structured
// provider. The cache key is the bare digits, so formatting variants of the
// same code share an entry. Provenance is the prefixed code, independent of
// whether the coordinates came from cache or a live call.
func (r *Resolver) tryStructured(ctx context.Context, cep string) *Resolution {
	key := digitsOnly(cep)
	prov := "CEP " + cep

	if e, ok := r.cache.Lookup(key); ok {
		if e.Lat == nil {
			return nil
		}
		return &Resolution{Latitude: e.Lat, Longitude: e.Lon, Query: &prov}
	}

	res, err := r.structured.Geocode(ctx, cep)
	if err != nil {
		zap.L().Debug("structured lookup failed",
			zap.String("cep", cep),
			zap.Error(err),
		)
		r.cache.Record(key, nil, nil)
		return nil
	}
	if !res.Matched {
		r.cache.Record(key, nil, nil)
		return nil
	}

	zap.L().Debug("structured lookup matched",
		zap.String("cep", cep),
		zap.String("label", res.Label),
	)
	lat, lon := res.Latitude, res.Longitude
	r.cache.Record(key, &lat, &lon)
	return &Resolution{Latitude: &lat, Longitude: &lon, Query: &prov}
}

// tryFuzzy resolves a free-text query through the cache and the fuzzy
// provider. A cached negative entry short-circuits without a live call.
func (r *Resolver) tryFuzzy(ctx context.Context, query string) *Resolution {
	if e, ok := r.cache.Lookup(query); ok {
		if e.Lat == nil {
			return nil
		}
		q := query
		return &Resolution{Latitude: e.Lat, Longitude: e.Lon, Query: &q}
	}

	res, err := r.fuzzy.Geocode(ctx, query)
	if err != nil {
		zap.L().Debug("fuzzy lookup failed",
			zap.String("query", query),
			zap.Error(err),
		)
		r.cache.Record(query, nil, nil)
		return nil
	}
	if !res.Matched {
		r.cache.Record(query, nil, nil)
		return nil
	}

	lat, lon := res.Latitude, res.Longitude
	r.cache.Record(query, &lat, &lon)
	q := query
	return &Resolution{Latitude: &lat, Longitude: &lon, Query: &q}
}

// hasStateSuffix reports whether the last hyphen-delimited segment is a
// two-letter state abbreviation.
func hasStateSuffix(addr string) bool {
	parts := strings.Split(addr, "-")
	last := strings.TrimSpace(parts[len(parts)-1])
	if len(last) != 2 {
		return false
	}
	for _, r := range last {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// foldDiacritics strips combining marks so that, e.g., "camacari" matches
// "camaçari" in the known-city scan.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
