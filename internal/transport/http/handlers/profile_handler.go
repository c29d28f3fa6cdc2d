package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	profilessvc "github.com/humapedia/humapedia/internal/services/profiles"
	"github.com/humapedia/humapedia/internal/transport/http/dto"
	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

type ProfileHandler struct {
	profiles *profilessvc.Service
}

func NewProfileHandler(profiles *profilessvc.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeInternal(w, "PROFILES_SERVICE_UNAVAILABLE", "profiles service is unavailable")
		return
	}

	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		switch {
		case errors.Is(err, profilessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "profile id is required")
		case errors.Is(err, profilessvc.ErrNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileFromModel(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeInternal(w, "PROFILES_SERVICE_UNAVAILABLE", "profiles service is unavailable")
		return
	}

	var req dto.ProfileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	updated, err := h.profiles.Update(r.Context(), req.ToModel(chi.URLParam(r, "profileID")))
	if err != nil {
		switch {
		case errors.Is(err, profilessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid profile payload")
		case errors.Is(err, profilessvc.ErrNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to update profile")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileFromModel(updated))
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeInternal(w, "PROFILES_SERVICE_UNAVAILABLE", "profiles service is unavailable")
		return
	}

	if err := h.profiles.Delete(r.Context(), chi.URLParam(r, "profileID")); err != nil {
		switch {
		case errors.Is(err, profilessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "profile id is required")
		case errors.Is(err, profilessvc.ErrNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to delete profile")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
