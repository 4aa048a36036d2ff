package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kehillahub/gemach-directory/internal/adapter/http/middleware"
	"github.com/kehillahub/gemach-directory/internal/adapter/repository/cache"
	"github.com/kehillahub/gemach-directory/internal/directory/domain"
	"github.com/kehillahub/gemach-directory/internal/directory/usecase"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

const maxImageUploadBytes = 10 << 20

// Handler translates HTTP requests into core operations and core
// errors back into statuses. It holds no business rules: every access
// decision lives behind the usecases.
type Handler struct {
	directory *usecase.DirectoryUsecase
	images    *usecase.ImageUsecase
	cache     *cache.ListingCache
	logger    *logger.Logger
}

func NewHandler(directory *usecase.DirectoryUsecase, images *usecase.ImageUsecase, listingCache *cache.ListingCache, log *logger.Logger) *Handler {
	return &Handler{
		directory: directory,
		images:    images,
		cache:     listingCache,
		logger:    log,
	}
}

type submissionRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Neighborhood string `json:"neighborhood"`
	Description  string `json:"description"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	ManagerPhone string `json:"manager_phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Hours        string `json:"hours"`
	HasFee       bool   `json:"has_fee"`
	FeeDetails   string `json:"fee_details,omitempty"`
	Website      string `json:"website,omitempty"`
}

func (req submissionRequest) toSubmission() domain.Submission {
	return domain.Submission{
		Name:         req.Name,
		Category:     req.Category,
		Neighborhood: req.Neighborhood,
		Description:  req.Description,
		Address:      req.Address,
		Phone:        req.Phone,
		ManagerPhone: req.ManagerPhone,
		Email:        req.Email,
		Hours:        req.Hours,
		HasFee:       req.HasFee,
		FeeDetails:   req.FeeDetails,
		Website:      req.Website,
	}
}

type patchRequest struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	Neighborhood *string `json:"neighborhood"`
	Description  *string `json:"description"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	ManagerPhone *string `json:"manager_phone"`
	Email        *string `json:"email"`
	Hours        *string `json:"hours"`
	HasFee       *bool   `json:"has_fee"`
	FeeDetails   *string `json:"fee_details"`
	Website      *string `json:"website"`
}

func (req patchRequest) toPatch() domain.Patch {
	return domain.Patch{
		Name:         req.Name,
		Category:     req.Category,
		Neighborhood: req.Neighborhood,
		Description:  req.Description,
		Address:      req.Address,
		Phone:        req.Phone,
		ManagerPhone: req.ManagerPhone,
		Email:        req.Email,
		Hours:        req.Hours,
		HasFee:       req.HasFee,
		FeeDetails:   req.FeeDetails,
		Website:      req.Website,
	}
}

type imageResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url,omitempty"`
	Primary   bool      `json:"primary"`
	CreatedAt time.Time `json:"created_at"`
}

type listingResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Neighborhood string          `json:"neighborhood"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	Phone        string          `json:"phone"`
	ManagerPhone string          `json:"manager_phone,omitempty"`
	Email        string          `json:"email,omitempty"`
	Hours        string          `json:"hours"`
	HasFee       bool            `json:"has_fee"`
	FeeDetails   string          `json:"fee_details,omitempty"`
	Website      string          `json:"website,omitempty"`
	OwnerID      string          `json:"owner_id,omitempty"`
	Status       string          `json:"status"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Images       []imageResponse `json:"images"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	images := make([]imageResponse, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, imageResponse{
			ID:        img.ID,
			URL:       img.URL,
			Primary:   img.Primary,
			CreatedAt: img.CreatedAt,
		})
	}
	return listingResponse{
		ID:           l.ID,
		Name:         l.Name,
		Category:     l.Category,
		Neighborhood: l.Neighborhood,
		Description:  l.Description,
		Address:      l.Address,
		Phone:        l.Phone,
		ManagerPhone: l.ManagerPhone,
		Email:        l.Email,
		Hours:        l.Hours,
		HasFee:       l.HasFee,
		FeeDetails:   l.FeeDetails,
		Website:      l.Website,
		OwnerID:      l.OwnerID,
		Status:       string(l.Status),
		DeletedAt:    l.DeletedAt,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		Images:       images,
	}
}

func toListingResponses(listings []*domain.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l))
	}
	return out
}

// ---- Public directory ----

func (h *Handler) HandleBrowseListings(w http.ResponseWriter, r *http.Request) {
	filter := domain.Filter{
		Text:         r.URL.Query().Get("q"),
		Category:     r.URL.Query().Get("category"),
		Neighborhood: r.URL.Query().Get("neighborhood"),
	}

	listings, err := h.directory.ListPublic(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponses(listings))
}

func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := middleware.ViewerFromContext(r.Context())

	// Anonymous reads of public listings are served from cache when
	// possible; only approved, active listings are ever cached.
	if h.cache != nil && !viewer.IsAuthenticated() {
		if cached, err := h.cache.GetListing(r.Context(), id); err == nil && cached != nil {
			h.writeJSON(w, http.StatusOK, toListingResponse(cached))
			return
		}
	}

	listing, err := h.directory.Get(r.Context(), id, viewer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.images.ResolveURLs(r.Context(), listing)

	if h.cache != nil && listing.Status == domain.StatusApproved && !listing.IsDeleted() {
		if err := h.cache.SetListing(r.Context(), listing); err != nil {
			h.logger.Warn("HandleGetListing: cache write failed", "listing_id", id, "error", err.Error())
		}
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// ---- Owner operations ----

func (h *Handler) HandleSubmitListing(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.directory.Submit(r.Context(), viewer.ID, req.toSubmission())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *Handler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.directory.Update(r.Context(), id, viewer, req.toPatch())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, id)
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleSoftDeleteListing lets owners (and moderators) move a listing
// to the trash. DELETE on the resource maps to the soft-delete
// transition; permanent removal goes through the moderation routes.
func (h *Handler) HandleSoftDeleteListing(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	listing, err := h.directory.Transition(r.Context(), id, viewer, domain.TransitionSoftDelete)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, id)
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}

	listings, err := h.directory.ListOwned(r.Context(), viewer.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// ---- Images ----

func (h *Handler) HandleAttachImage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	primary := r.FormValue("primary") == "true"

	image, err := h.images.Attach(r.Context(), id, viewer, header.Filename, data, primary)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, id)
	h.writeJSON(w, http.StatusCreated, imageResponse{
		ID:        image.ID,
		Primary:   image.Primary,
		CreatedAt: image.CreatedAt,
	})
}

func (h *Handler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	imageID := chi.URLParam(r, "imageID")

	if err := h.images.Remove(r.Context(), id, imageID, viewer); err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetPrimaryImage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	imageID := chi.URLParam(r, "imageID")

	if err := h.images.SetPrimary(r.Context(), id, imageID, viewer); err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- Moderation ----

func (h *Handler) HandleModerationQueue(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}

	listings, err := h.directory.ModerationQueue(r.Context(), viewer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponses(listings))
}

func (h *Handler) HandleModerate(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireAuthenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	action, err := domain.ParseTransition(chi.URLParam(r, "action"))
	if err != nil {
		http.Error(w, "unknown moderation action", http.StatusBadRequest)
		return
	}

	listing, err := h.directory.Transition(r.Context(), id, viewer, action)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, id)

	if action == domain.TransitionPermanentDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// ---- Helpers ----

func (h *Handler) requireAuthenticated(w http.ResponseWriter, r *http.Request) (domain.Viewer, bool) {
	viewer := middleware.ViewerFromContext(r.Context())
	if !viewer.IsAuthenticated() {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return viewer, false
	}
	return viewer, true
}

func (h *Handler) invalidate(r *http.Request, id string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteListing(r.Context(), id); err != nil {
		h.logger.Warn("cache invalidation failed", "listing_id", id, "error", err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err.Error())
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var cerr *domain.CollaboratorError

	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, domain.ErrListingNotFound), errors.Is(err, domain.ErrImageNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrForbidden):
		h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "you are not allowed to perform this action"})
	case errors.Is(err, domain.ErrConflict):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: "action not available in current state"})
	case errors.As(err, &cerr):
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporary failure, please retry"})
	default:
		h.logger.Error("unclassified handler error", "error", err.Error())
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
