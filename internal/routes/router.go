package routes

import (
	"log/slog"

	"gametracker/internal/controllers"
	"gametracker/internal/services"
	"gametracker/internal/storage/backups"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Catalog controllers.CatalogClient
	News    controllers.NewsClient
	Library *services.LibraryService
	Updates *services.UpdateService
	Backups backups.IBackups
}

func SetupRouter(log *slog.Logger, deps Deps, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	gameController := controllers.NewGameController(deps.Catalog, deps.News, log)
	libraryController := controllers.NewLibraryController(deps.Library, deps.Backups, log)
	updateController := controllers.NewUpdateController(deps.Updates, deps.Library, log)

	r.Route("/api", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Get("/search", gameController.Search)
			r.Get("/trending", gameController.Trending)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", gameController.Details)
				r.Get("/screenshots", gameController.Screenshots)
				r.Get("/dlc", gameController.DLC)
				r.Get("/news", gameController.News)
			})
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/", libraryController.List)
			r.Post("/", libraryController.Save)
			r.Get("/export", libraryController.Export)
			r.Post("/import", libraryController.Import)
			r.Get("/backups", libraryController.Backups)
			r.Post("/restore", libraryController.Restore)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", libraryController.Remove)
				r.Post("/pin", libraryController.TogglePin)
				r.Post("/checked", libraryController.MarkChecked)
			})
		})

		r.Get("/updates", updateController.Feed)

		r.Get("/preferences", libraryController.Preferences)
		r.Patch("/preferences", libraryController.UpdatePreferences)
	})

	return r
}
