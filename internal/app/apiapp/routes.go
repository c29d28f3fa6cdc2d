package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	creditssvc "github.com/humapedia/humapedia/internal/services/credits"
	facesvc "github.com/humapedia/humapedia/internal/services/facesearch"
	historysvc "github.com/humapedia/humapedia/internal/services/history"
	profilessvc "github.com/humapedia/humapedia/internal/services/profiles"
	searchsvc "github.com/humapedia/humapedia/internal/services/search"
	"github.com/humapedia/humapedia/internal/transport/http/handlers"
)

type Dependencies struct {
	SearchService     *searchsvc.Service
	FaceSearchService *facesvc.Service
	CreditsService    *creditssvc.Service
	HistoryService    *historysvc.Service
	ProfilesService   *profilessvc.Service
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	searchHandler := handlers.NewSearchHandler(deps.SearchService, deps.HistoryService, deps.Logger)
	faceSearchHandler := handlers.NewFaceSearchHandler(deps.FaceSearchService, deps.HistoryService, deps.Logger)
	creditsHandler := handlers.NewCreditsHandler(deps.CreditsService)
	historyHandler := handlers.NewHistoryHandler(deps.HistoryService)
	profileHandler := handlers.NewProfileHandler(deps.ProfilesService)

	r.Get("/healthz", healthHandler.Handle)

	register := func(r chi.Router) {
		r.Get("/search", searchHandler.SearchQuery)
		r.Post("/search", searchHandler.Search)
		r.Post("/face-search", faceSearchHandler.Search)

		r.Get("/credits", creditsHandler.Overview)
		r.Post("/credits", creditsHandler.Purchase)
		// Kept for clients wired against the older purchase path.
		r.Post("/credits/purchase", creditsHandler.Purchase)

		r.Get("/search-history", historyHandler.List)
		r.Post("/search-history", historyHandler.Append)
		r.Delete("/search-history", historyHandler.Delete)
		r.Delete("/search-history/{entryID}", historyHandler.Remove)
		r.Get("/search-history/stats", historyHandler.Stats)
		r.Get("/search-history/suggestions", historyHandler.Suggestions)

		r.Get("/profiles/{profileID}", profileHandler.Get)
		r.Put("/profiles/{profileID}", profileHandler.Update)
		r.Delete("/profiles/{profileID}", profileHandler.Delete)
	}

	// Same surface at the root and under /v1 for clients pinned to either.
	register(r)
	r.Route("/v1", register)
}
