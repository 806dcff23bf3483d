package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledax/mapa-unidades/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "units.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func geocoded(rede, nome, endereco string, lat, lon float64) model.Unit {
	q := endereco
	return model.Unit{
		ID:               uuid.New().String(),
		Rede:             rede,
		Nome:             nome,
		EnderecoOriginal: endereco,
		EnderecoUsado:    &q,
		Latitude:         &lat,
		Longitude:        &lon,
	}
}

func unresolved(rede, nome, endereco string) model.Unit {
	return model.Unit{
		ID:               uuid.New().String(),
		Rede:             rede,
		Nome:             nome,
		EnderecoOriginal: endereco,
	}
}

func TestSQLite_InsertAndList(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	units := []model.Unit{
		geocoded("Acme", "Loja 1", "Rua A, Salvador - BA", -12.97, -38.50),
		geocoded("Beta", "Loja 2", "Rua B, Camaçari - BA", -12.69, -38.32),
		unresolved("Gama", "Loja 3", "Endereço ilegível"),
	}
	require.NoError(t, s.InsertUnits(ctx, units))

	got, err := s.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2, "units without coordinates are not listed")
	assert.Equal(t, "Acme", got[0].Rede)
	assert.NotNil(t, got[0].Latitude)
	assert.NotNil(t, got[0].EnderecoUsado)
}

func TestSQLite_ListChains(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUnits(ctx, []model.Unit{
		geocoded("Zeta", "Loja 1", "Rua A", 1, 2),
		geocoded("Acme", "Loja 2", "Rua B", 1, 2),
		geocoded("Acme", "Loja 3", "Rua C", 1, 2),
		unresolved("Gama", "Loja 4", "Rua D"),
	}))

	redes, err := s.ListChains(ctx)
	require.NoError(t, err)
	// Distinct, sorted; chains of unresolved units still appear.
	assert.Equal(t, []string{"Acme", "Gama", "Zeta"}, redes)
}

func TestSQLite_FilterUnits(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUnits(ctx, []model.Unit{
		geocoded("A", "Loja 1", "Rua A", 1, 2),
		geocoded("B", "Loja 2", "Rua B", 1, 2),
		geocoded("C", "Loja 3", "Rua C", 1, 2),
		unresolved("A", "Loja 4", "Rua D"),
	}))

	got, err := s.FilterUnits(ctx, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Rede)
	assert.Equal(t, "B", got[1].Rede)

	all, err := s.FilterUnits(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3, "empty filter returns everything with coordinates")
}

func TestSQLite_ResetDropsData(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUnits(ctx, []model.Unit{geocoded("A", "Loja", "Rua", 1, 2)}))
	require.NoError(t, s.Reset(ctx))

	got, err := s.ListUnits(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUnits(ctx, []model.Unit{geocoded("A", "Loja", "Rua", 1, 2)}))
	require.NoError(t, s.Migrate(ctx), "migrate must not touch existing data")

	got, err := s.ListUnits(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_InsertEmptyBatch(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.InsertUnits(context.Background(), nil))
}
