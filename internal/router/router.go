package router

import (
	"net/http"

	filestore "monkey-registry/internal/adapters/storage/file"
	"monkey-registry/internal/domain/monkeys"
	"monkey-registry/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/afero"
)

type Options struct {
	// Repo es el backend ya construido en main. Si viene nil (tests, modo
	// dev) se usa un file store sobre un filesystem en memoria.
	Repo monkeys.Repository

	Log logger.Logger

	CORSOrigins []string
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.New(logger.Options{App: "monkey-registry"})
	}

	repo := opts.Repo
	if repo == nil {
		repo = filestore.New(afero.NewMemMapFs(), "monkeys.json")
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	svc := monkeys.NewService(repo)

	// Rutas de la API bajo /api (mismo prefijo que esperan los clientes).
	r.Route("/api", func(api chi.Router) {
		monkeys.RegisterRoutes(api, svc, log)
	})

	return r
}
