package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Routes builds the REST API plus the live channel mounted at /ws.
func Routes(h *Handler, live http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// after RequestID
	r.Use(RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", h.CreateAnalysis)
			r.Get("/recent", h.RecentAnalyses)
			r.Get("/{id}", h.GetAnalysis)
		})
		r.Get("/queue", h.Queue)
		r.Get("/stats", h.Stats)
		r.Get("/activity", h.Activity)
		r.Get("/health", h.Health)
	})

	r.Handle("/ws", live)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return otelhttp.NewHandler(r, "moderation-service",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/ws" }),
	)
}
