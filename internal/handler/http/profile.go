package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/service"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// ProfileHandler serves the signed-in user's profile and the static lists a
// profile is edited against.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *slog.Logger
}

// NewProfileHandler creates a new profile HTTP handler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// UpdateProfileRequest is the JSON body of PUT /api/v1/me. Omitted fields
// are left unchanged.
type UpdateProfileRequest struct {
	FullName           *string  `json:"full_name" validate:"omitempty,min=1,max=100"`
	AvatarID           *string  `json:"avatar_id" validate:"omitempty,max=32"`
	SelectedCategories []string `json:"selected_categories" validate:"omitempty,dive,category"`
}

// ProfileResponse adds the derived display fields to a profile.
type ProfileResponse struct {
	*domain.Profile
	DisplayName string `json:"display_name"`
	AvatarAsset string `json:"avatar_asset"`
}

func newProfileResponse(p *domain.Profile) ProfileResponse {
	asset := domain.DefaultAvatarAsset
	if a, ok := domain.LookupAvatar(p.AvatarID); ok {
		asset = a.Asset
	}
	return ProfileResponse{Profile: p, DisplayName: p.DisplayName(), AvatarAsset: asset}
}

// GetProfile handles GET /api/v1/me
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), sessionFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newProfileResponse(profile))
}

// UpdateProfile handles PUT /api/v1/me
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), sessionFrom(r), service.UpdateProfileInput{
		FullName:           req.FullName,
		AvatarID:           req.AvatarID,
		SelectedCategories: req.SelectedCategories,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newProfileResponse(profile))
}

// ListCategories handles GET /api/v1/categories
func (h *ProfileHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, domain.Categories)
}

// ListAvatars handles GET /api/v1/avatars
func (h *ProfileHandler) ListAvatars(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, domain.Avatars)
}
