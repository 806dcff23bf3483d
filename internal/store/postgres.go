package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ledax/mapa-unidades/internal/db"
	"github.com/ledax/mapa-unidades/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with its own connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (or a mock in tests).
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS unidades (
	id                     TEXT PRIMARY KEY,
	rede                   TEXT NOT NULL,
	nome                   TEXT NOT NULL,
	endereco_original      TEXT NOT NULL,
	cnpj                   TEXT,
	endereco_usado_geocode TEXT,
	latitude               DOUBLE PRECISION,
	longitude              DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_unidades_rede ON unidades(rede);
CREATE INDEX IF NOT EXISTS idx_unidades_latitude ON unidades(latitude);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS unidades`); err != nil {
		return eris.Wrap(err, "postgres: drop table")
	}
	return s.Migrate(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var unitColumns = []string{
	"id", "rede", "nome", "endereco_original", "cnpj",
	"endereco_usado_geocode", "latitude", "longitude",
}

func (s *PostgresStore) InsertUnits(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}

	rows := make([][]any, len(units))
	for i, u := range units {
		rows[i] = []any{
			u.ID, u.Rede, u.Nome, u.EnderecoOriginal, nilIfEmpty(u.CNPJ),
			u.EnderecoUsado, u.Latitude, u.Longitude,
		}
	}

	_, err := db.CopyFrom(ctx, s.pool, "unidades", unitColumns, rows)
	return eris.Wrap(err, "postgres: insert units")
}

const postgresSelectUnits = `
	SELECT id, rede, nome, endereco_original, cnpj, endereco_usado_geocode, latitude, longitude
	FROM unidades
	WHERE latitude IS NOT NULL`

func (s *PostgresStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	rows, err := s.pool.Query(ctx, postgresSelectUnits+` ORDER BY rede, nome`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list units")
	}
	defer rows.Close()
	return scanUnitsPgx(rows)
}

func (s *PostgresStore) ListChains(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT rede FROM unidades WHERE rede <> '' ORDER BY rede`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list chains")
	}
	defer rows.Close()

	var redes []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chain")
		}
		redes = append(redes, r)
	}
	return redes, eris.Wrap(rows.Err(), "postgres: list chains iterate")
}

func (s *PostgresStore) FilterUnits(ctx context.Context, redes []string) ([]model.Unit, error) {
	if len(redes) == 0 {
		return s.ListUnits(ctx)
	}

	rows, err := s.pool.Query(ctx,
		postgresSelectUnits+` AND rede = ANY($1) ORDER BY rede, nome`, redes)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: filter units")
	}
	defer rows.Close()
	return scanUnitsPgx(rows)
}

// pgxRows is the minimal row iterator shared by pgx and pgxmock results.
type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanUnitsPgx(rows pgxRows) ([]model.Unit, error) {
	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		var cnpj *string
		if err := rows.Scan(&u.ID, &u.Rede, &u.Nome, &u.EnderecoOriginal, &cnpj,
			&u.EnderecoUsado, &u.Latitude, &u.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan unit")
		}
		if cnpj != nil {
			u.CNPJ = *cnpj
		}
		units = append(units, u)
	}
	return units, eris.Wrap(rows.Err(), "postgres: iterate units")
}
