// Package api exposes the read-only HTTP query layer over persisted units.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ledax/mapa-unidades/internal/model"
	"github.com/ledax/mapa-unidades/internal/store"
)

// Handler serves the listing endpoints. It only ever reads from the store.
type Handler struct {
	store store.Store
}

// NewHandler creates a Handler over the given store.
func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}

// Router builds the chi router with permissive CORS, matching the map
// front-end's cross-origin access pattern.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", h.health)
	r.Route("/unidades", func(r chi.Router) {
		r.Get("/all", h.listUnits)
		r.Get("/redes", h.listChains)
		r.Get("/filtrar", h.filterUnits)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listUnits returns every unit with coordinates.
func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.store.ListUnits(r.Context())
	if err != nil {
		serverError(w, "list units", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilUnits(units))
}

// listChains returns the distinct chain names for the front-end filter.
func (h *Handler) listChains(w http.ResponseWriter, r *http.Request) {
	redes, err := h.store.ListChains(r.Context())
	if err != nil {
		serverError(w, "list chains", err)
		return
	}
	if redes == nil {
		redes = []string{}
	}
	writeJSON(w, http.StatusOK, redes)
}

// filterUnits returns units whose chain matches any repeated ?rede= value.
// No rede parameters means no filtering.
func (h *Handler) filterUnits(w http.ResponseWriter, r *http.Request) {
	redes := r.URL.Query()["rede"]
	units, err := h.store.FilterUnits(r.Context(), redes)
	if err != nil {
		serverError(w, "filter units", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilUnits(units))
}

func nonNilUnits(units []model.Unit) []model.Unit {
	if units == nil {
		return []model.Unit{}
	}
	return units
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func serverError(w http.ResponseWriter, op string, err error) {
	zap.L().Error(op, zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}
