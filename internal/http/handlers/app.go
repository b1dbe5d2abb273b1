package handlers

import (
	"encoding/json"
	"net/http"

	"patioquote/internal/infra"
	"patioquote/internal/quote"
	"patioquote/internal/storage"
)

// App bundles the collaborators every handler needs.
type App struct {
	Config *infra.Config
	Logger *infra.Logger
	Store  storage.BlobStore
	Quotes *quote.Service
}

func NewApp(cfg *infra.Config, logger *infra.Logger, store storage.BlobStore, quotes *quote.Service) *App {
	return &App{Config: cfg, Logger: logger, Store: store, Quotes: quotes}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"code": errCode, "error": message})
}
