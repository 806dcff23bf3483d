package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ledax/mapa-unidades/internal/config"
	"github.com/ledax/mapa-unidades/internal/store"
)

// openStore builds the configured store backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}
