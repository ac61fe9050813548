package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/auth"
	"github.com/HEAL-capstone/HEAL-server/internal/service"
)

// InterestHandler exposes the category list and the per-user interest
// associations over HTTP.
type InterestHandler struct {
	interests *service.InterestService
	logger    *slog.Logger
}

// NewInterestHandler creates an InterestHandler.
func NewInterestHandler(interests *service.InterestService, logger *slog.Logger) *InterestHandler {
	return &InterestHandler{
		interests: interests,
		logger:    logger,
	}
}

// HandleListCategories returns the full category list.
//
// HTTP: GET /interests (public — reference data, no identity involved)
func (h *InterestHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.interests.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// HandleListMine returns the authenticated user's interests.
//
// HTTP: GET /users/me/interests (auth required)
func (h *InterestHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	interests, err := h.interests.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, interests)
}

type replaceInterestsRequest struct {
	Interests []int64 `json:"interests"`
}

// HandleReplaceMine replaces the authenticated user's entire interest set.
//
// HTTP: POST /users/me/interests
// Body: {"interests":[1,2]}
//
// The replace is atomic: an unknown ID anywhere in the batch leaves the
// existing set untouched and reports that ID. Responds 201 with the new
// association set.
func (h *InterestHandler) HandleReplaceMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req replaceInterestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	interests, err := h.interests.Replace(r.Context(), user.ID, req.Interests)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, interests)
}

// HandleRemoveMine removes a single interest association.
//
// HTTP: DELETE /users/me/interests/{id} (auth required)
func (h *InterestHandler) HandleRemoveMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	interestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "interest id must be an integer"))
		return
	}

	if err := h.interests.Remove(r.Context(), user.ID, interestID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
