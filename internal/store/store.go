// Package store persists geocoded commercial units and serves the read API.
package store

import (
	"context"

	"github.com/ledax/mapa-unidades/internal/model"
)

// Store is the persistence interface shared by the ETL and the query API.
// The two processes bootstrap differently on purpose: the ETL calls Reset
// for a full refresh of the table, the API only ever calls Migrate.
type Store interface {
	// Migrate creates the schema if absent. Never drops data.
	Migrate(ctx context.Context) error

	// Reset drops and recreates the schema. Only the ETL uses this.
	Reset(ctx context.Context) error

	// InsertUnits persists a batch of units in a single commit.
	InsertUnits(ctx context.Context, units []model.Unit) error

	// ListUnits returns all units with coordinates.
	ListUnits(ctx context.Context) ([]model.Unit, error)

	// ListChains returns distinct non-empty chain names, sorted.
	ListChains(ctx context.Context) ([]string, error)

	// FilterUnits returns units with coordinates whose chain is in redes.
	// An empty filter means no filtering.
	FilterUnits(ctx context.Context, redes []string) ([]model.Unit, error)

	Close() error
}
