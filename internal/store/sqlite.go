package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ledax/mapa-unidades/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS unidades (
	id                     TEXT PRIMARY KEY,
	rede                   TEXT NOT NULL,
	nome                   TEXT NOT NULL,
	endereco_original      TEXT NOT NULL,
	cnpj                   TEXT,
	endereco_usado_geocode TEXT,
	latitude               REAL,
	longitude              REAL
);

CREATE INDEX IF NOT EXISTS idx_unidades_rede ON unidades(rede);
CREATE INDEX IF NOT EXISTS idx_unidades_latitude ON unidades(latitude);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS unidades`); err != nil {
		return eris.Wrap(err, "sqlite: drop table")
	}
	return s.Migrate(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertUnits(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unidades (id, rede, nome, endereco_original, cnpj, endereco_usado_geocode, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, u := range units {
		if _, err := stmt.ExecContext(ctx,
			u.ID, u.Rede, u.Nome, u.EnderecoOriginal, nilIfEmpty(u.CNPJ),
			u.EnderecoUsado, u.Latitude, u.Longitude,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert unit %s", u.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

const sqliteSelectUnits = `
	SELECT id, rede, nome, endereco_original, cnpj, endereco_usado_geocode, latitude, longitude
	FROM unidades
	WHERE latitude IS NOT NULL`

func (s *SQLiteStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectUnits+` ORDER BY rede, nome`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list units")
	}
	defer rows.Close() //nolint:errcheck
	return scanUnits(rows)
}

func (s *SQLiteStore) ListChains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT rede FROM unidades WHERE rede != '' ORDER BY rede`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list chains")
	}
	defer rows.Close() //nolint:errcheck

	var redes []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chain")
		}
		redes = append(redes, r)
	}
	return redes, eris.Wrap(rows.Err(), "sqlite: list chains iterate")
}

func (s *SQLiteStore) FilterUnits(ctx context.Context, redes []string) ([]model.Unit, error) {
	if len(redes) == 0 {
		return s.ListUnits(ctx)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(redes)), ",")
	args := make([]any, len(redes))
	for i, r := range redes {
		args[i] = r
	}

	rows, err := s.db.QueryContext(ctx,
		sqliteSelectUnits+` AND rede IN (`+placeholders+`) ORDER BY rede, nome`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: filter units")
	}
	defer rows.Close() //nolint:errcheck
	return scanUnits(rows)
}

func scanUnits(rows *sql.Rows) ([]model.Unit, error) {
	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		var cnpj sql.NullString
		if err := rows.Scan(&u.ID, &u.Rede, &u.Nome, &u.EnderecoOriginal, &cnpj,
			&u.EnderecoUsado, &u.Latitude, &u.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan unit")
		}
		u.CNPJ = cnpj.String
		units = append(units, u)
	}
	return units, eris.Wrap(rows.Err(), "sqlite: iterate units")
}

// nilIfEmpty maps empty strings to NULL.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
