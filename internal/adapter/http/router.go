package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/kehillahub/gemach-directory/internal/adapter/http/middleware"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

func NewRouter(h *Handler, jwtSecret string, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.JWTAuth(jwtSecret, log))

	// Public directory.
	r.Get("/api/listings", h.HandleBrowseListings)
	r.Get("/api/listings/{id}", h.HandleGetListing)

	// Owner operations. Authentication is enforced per handler so the
	// same Get route can serve owners their hidden listings.
	r.Post("/api/listings", h.HandleSubmitListing)
	r.Put("/api/listings/{id}", h.HandleUpdateListing)
	r.Delete("/api/listings/{id}", h.HandleSoftDeleteListing)
	r.Get("/api/my/listings", h.HandleListOwned)

	r.Post("/api/listings/{id}/images", h.HandleAttachImage)
	r.Delete("/api/listings/{id}/images/{imageID}", h.HandleRemoveImage)
	r.Patch("/api/listings/{id}/images/{imageID}/primary", h.HandleSetPrimaryImage)

	// Moderation.
	r.Get("/api/moderation/queue", h.HandleModerationQueue)
	r.Post("/api/moderation/{id}/{action}", h.HandleModerate)

	return r
}
