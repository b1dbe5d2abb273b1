package httpapi

import (
	stdhttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"patioquote/internal/http/handlers"
	"patioquote/internal/middleware"
)

// NewRouter assembles the HTTP surface: the quote and upload endpoints, a
// health probe, and static serving for stored uploads so returned URLs are
// fetchable.
func NewRouter(app *handlers.App, staticDir string, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	if app.Logger != nil {
		r.Use(middleware.Logger(*app.Logger))
	}
	if origins := splitOrigins(app.Config.CORSOrigins); len(origins) > 0 {
		r.Use(middleware.CORS(origins))
	}
	r.Use(middleware.Currency(app.Config.DefaultCurrency, lookup))

	r.Get("/v1/healthz", app.Health)
	r.Post("/quote", app.Quote)
	r.Post("/upload", app.Upload)

	if staticDir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(staticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
