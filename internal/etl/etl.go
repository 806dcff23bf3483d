// Package etl ingests the commercial-unit spreadsheet, resolves each row's
// address through the geocoding cascade, and persists the enriched records.
package etl

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/ledax/mapa-unidades/internal/fetcher"
	"github.com/ledax/mapa-unidades/internal/model"
	"github.com/ledax/mapa-unidades/internal/store"
	"github.com/ledax/mapa-unidades/pkg/geocode"
)

// Canonical column keys after header normalization. "endere_o" is what
// "Endereço" collapses to.
const (
	colRede     = "rede"
	colNome     = "nome"
	colEndereco = "endere_o"
	colCNPJ     = "cnpj_cpf"
)

var headerRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader lowercases each column name and collapses every run of
// non-alphanumeric characters to a single underscore.
func NormalizeHeader(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = headerRe.ReplaceAllString(strings.ToLower(c), "_")
	}
	return out
}

// Processor runs one batch ingestion. All collaborators are injected; the
// processor owns only the run loop and checkpoint cadence.
type Processor struct {
	store           store.Store
	resolver        *geocode.Resolver
	cache           *geocode.Cache
	commitEvery     int
	cacheFlushEvery int
	progress        bool
	sheetName       string
}

// Option configures the Processor.
type Option func(*Processor)

// WithCommitEvery sets how many rows are buffered per store commit.
func WithCommitEvery(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.commitEvery = n
		}
	}
}

// WithCacheFlushEvery sets how many rows pass between cache flushes.
func WithCacheFlushEvery(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.cacheFlushEvery = n
		}
	}
}

// WithProgress toggles the stderr progress bar.
func WithProgress(enabled bool) Option {
	return func(p *Processor) {
		p.progress = enabled
	}
}

// WithSheetName selects a specific worksheet for XLSX input.
func WithSheetName(name string) Option {
	return func(p *Processor) {
		p.sheetName = name
	}
}

// New creates a Processor.
func New(s store.Store, resolver *geocode.Resolver, cache *geocode.Cache, opts ...Option) *Processor {
	p := &Processor{
		store:           s,
		resolver:        resolver,
		cache:           cache,
		commitEvery:     200,
		cacheFlushEvery: 100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests the file at path. The destination table is dropped and
// recreated first: each ETL run is a full refresh of the dataset. Progress
// committed before a crash survives; the unflushed tail does not.
func (p *Processor) Run(ctx context.Context, path string) error {
	table, err := p.readTable(path)
	if err != nil {
		return eris.Wrapf(err, "etl: read %s", path)
	}

	idx, err := columnIndex(table.Header)
	if err != nil {
		return err
	}

	if err := p.store.Reset(ctx); err != nil {
		return eris.Wrap(err, "etl: reset schema")
	}

	zap.L().Info("processing units",
		zap.String("input", path),
		zap.Int("rows", len(table.Rows)),
		zap.Int("cached_queries", p.cache.Len()),
	)

	var bar *progressbar.ProgressBar
	if p.progress {
		bar = progressbar.NewOptions(len(table.Rows),
			progressbar.OptionSetDescription("Geocoding units"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var buf []model.Unit
	var processed, skipped int

	for i, row := range table.Rows {
		if bar != nil {
			_ = bar.Add(1)
		}

		rede := cell(row, idx[colRede])
		nome := cell(row, idx[colNome])
		endereco := cell(row, idx[colEndereco])
		if rede == "" || nome == "" || endereco == "" {
			skipped++
			continue
		}

		res := p.resolver.Resolve(ctx, endereco)
		buf = append(buf, model.Unit{
			ID:               uuid.New().String(),
			Rede:             rede,
			Nome:             nome,
			EnderecoOriginal: endereco,
			CNPJ:             cell(row, idx[colCNPJ]),
			EnderecoUsado:    res.Query,
			Latitude:         res.Latitude,
			Longitude:        res.Longitude,
		})
		processed++

		if len(buf) >= p.commitEvery {
			if err := p.store.InsertUnits(ctx, buf); err != nil {
				return eris.Wrap(err, "etl: commit units")
			}
			buf = buf[:0]
		}

		if (i+1)%p.cacheFlushEvery == 0 {
			if err := p.cache.Flush(); err != nil {
				zap.L().Warn("cache flush failed", zap.Error(err))
			}
		}
	}

	if len(buf) > 0 {
		if err := p.store.InsertUnits(ctx, buf); err != nil {
			return eris.Wrap(err, "etl: final commit")
		}
	}
	if err := p.cache.Flush(); err != nil {
		zap.L().Warn("final cache flush failed", zap.Error(err))
	}

	zap.L().Info("etl complete",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
		zap.Int("cached_queries", p.cache.Len()),
	)
	return nil
}

func (p *Processor) readTable(path string) (*fetcher.Table, error) {
	if p.sheetName != "" && strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: p.sheetName})
	}
	return fetcher.ReadTable(path)
}

// columnIndex maps canonical column keys to their position. The CNPJ
// column is optional; the others are hard requirements of the dataset.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, c := range NormalizeHeader(header) {
		if _, seen := idx[c]; !seen {
			idx[c] = i
		}
	}
	for _, required := range []string{colRede, colNome, colEndereco} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("etl: input is missing required column %q", required)
		}
	}
	if _, ok := idx[colCNPJ]; !ok {
		idx[colCNPJ] = -1
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
