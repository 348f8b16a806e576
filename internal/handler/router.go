package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/service"
)

// RouterOptions tunes the router's cross-cutting behaviour.
type RouterOptions struct {
	Logger              *slog.Logger
	RateLimitRPS        float64
	RateLimitBurst      int
	RegistrationEnabled bool
}

// NewRouter wires every route of the service.
func NewRouter(auth *AuthHandler, contacts *ContactHandler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
		}
		r.Get("/token", auth.HandleToken)
		r.Post("/login", auth.HandleLogin)
		if opts.RegistrationEnabled {
			r.Post("/registro", auth.HandleRegister)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken)
		r.Get("/", auth.HandleRoot)

		r.Route("/contactos", func(r chi.Router) {
			r.Get("/", contacts.HandleList)
			r.Post("/", contacts.HandleCreate)
			r.Get("/buscar", contacts.HandleSearch)
			r.Get("/{ref}", contacts.HandleGet)
			r.Put("/{ref}", contacts.HandleUpdate)
			r.Patch("/{ref}", contacts.HandlePatch)
			r.Delete("/{ref}", contacts.HandleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found", Kind: service.KindNotFound})
	})

	return r
}
