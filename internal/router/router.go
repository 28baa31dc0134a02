package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "herd-reproduction/internal/adapters/storage/memory"
	pg "herd-reproduction/internal/adapters/storage/postgres"
	"herd-reproduction/internal/domain/animals"
	"herd-reproduction/internal/domain/breeding"
	"herd-reproduction/internal/domain/pedigree"
	"herd-reproduction/internal/middleware"
	"herd-reproduction/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: repositorio ya construido (mongo/postgres desde main).
	// Si viene nil, intenta Postgres por env y cae a in-memory.
	Repo animals.Repository

	// Opcional: si viene, usa Postgres. Ignorado cuando Repo != nil.
	DB *sql.DB
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	repo := opts.Repo

	// Si no te pasan repo explícito, intenta Postgres por env (dev/handoff)
	if repo == nil {
		db := opts.DB
		if db == nil {
			if dsn := os.Getenv("DB_DSN"); dsn != "" {
				opened, err := pg.Open(dsn)
				if err == nil {
					db = opened
				}
			}
		}
		if db != nil {
			repo = pg.NewAnimalsRepo(db)
		} else {
			repo = mem.NewAnimalsRepo()
		}
	}

	// Services por módulo. breeding implementa el sintetizador de partos
	// que animals invoca al registrar crías con madre declarada.
	breedingSvc := breeding.NewService(repo)
	animalsSvc := animals.NewService(repo, breedingSvc)
	resolver := pedigree.NewResolver(repo)

	// Rutas por módulo
	animals.RegisterRoutes(r, animalsSvc)
	breeding.RegisterRoutes(r, breedingSvc)
	pedigree.RegisterRoutes(r, resolver)

	return r
}
