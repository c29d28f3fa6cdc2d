package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	historysvc "github.com/humapedia/humapedia/internal/services/history"
	"github.com/humapedia/humapedia/internal/transport/http/dto"
	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

type HistoryHandler struct {
	history *historysvc.Service
}

func NewHistoryHandler(history *historysvc.Service) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeInternal(w, "HISTORY_SERVICE_UNAVAILABLE", "history service is unavailable")
		return
	}

	limit, okLimit := queryInt(r, "limit")
	offset, okOffset := queryInt(r, "offset")
	if !okLimit || !okOffset {
		writeBadRequest(w, "VALIDATION_ERROR", "limit and offset must be integers")
		return
	}

	caller := userID(r)
	result, err := h.history.List(r.Context(), caller, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, historysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid pagination parameters")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load history")
		}
		return
	}

	stats, err := h.history.Stats(r.Context(), caller)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load history stats")
		return
	}

	suggestions, err := h.history.Suggestions(r.Context(), caller)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load suggestions")
		return
	}

	entries := make([]dto.HistoryEntryDTO, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, dto.HistoryEntryFromModel(e))
	}

	httperrors.Write(w, http.StatusOK, dto.HistoryListResponse{
		Entries: entries,
		Pagination: dto.HistoryPaginationDTO{
			Total:   result.Total,
			Limit:   result.Limit,
			Offset:  result.Offset,
			HasMore: result.HasMore,
		},
		Statistics:  statsDTO(stats),
		Suggestions: suggestions,
	})
}

// Append records a search performed outside the API, e.g. a client-side
// cached search replayed for bookkeeping.
func (h *HistoryHandler) Append(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeInternal(w, "HISTORY_SERVICE_UNAVAILABLE", "history service is unavailable")
		return
	}

	var req dto.HistoryAppendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	var timestamp time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "timestamp must be RFC 3339")
			return
		}
		timestamp = parsed
	}

	entry, err := h.history.Append(r.Context(), callerID(r, req.UserID), historysvc.AppendInput{
		Query:     req.Query,
		Type:      req.Type,
		Results:   req.Results,
		Filters:   req.Filters.ToModel(),
		Timestamp: timestamp,
		Success:   req.Success,
	})
	if err != nil {
		switch {
		case errors.Is(err, historysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid history entry payload")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record history entry")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.HistoryEntryFromModel(entry))
}

// Delete removes the entry named by the search_id query parameter, or
// clears the whole history when the parameter is absent.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeInternal(w, "HISTORY_SERVICE_UNAVAILABLE", "history service is unavailable")
		return
	}

	if searchID := strings.TrimSpace(r.URL.Query().Get("search_id")); searchID != "" {
		h.remove(w, r, searchID)
		return
	}

	if err := h.history.Clear(r.Context(), userID(r)); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to clear history")
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *HistoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeInternal(w, "HISTORY_SERVICE_UNAVAILABLE", "history service is unavailable")
		return
	}

	h.remove(w, r, chi.URLParam(r, "entryID"))
}

func (h *HistoryHandler) remove(w http.ResponseWriter, r *http.Request, entryID string) {
	if err := h.history.Remove(r.Context(), userID(r), entryID); err != nil {
		switch {
		case errors.Is(err, historysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "entry id is required")
		case errors.Is(err, historysvc.ErrEntryNotFound):
			writeNotFound(w, "HISTORY_ENTRY_NOT_FOUND", "history entry not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to remove history entry")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeInternal(w, "HISTORY_SERVICE_UNAVAILABLE", "history service is unavailable")
		return
	}

	stats, err := h.history.Stats(r.Context(), userID(r))
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load history stats")
		return
	}

	httperrors.Write(w, http.StatusOK, statsDTO(stats))
}

func statsDTO(stats historysvc.Stats) dto.HistoryStatsResponse {
	return dto.HistoryStatsResponse{
		Total:          stats.Total,
		TextSearches:   stats.TextSearches,
		FaceSearches:   stats.FaceSearches,
		Successful:     stats.Successful,
		SuccessRate:    stats.SuccessRate,
		AverageResults: stats.AverageResults,
	}
}

func (h *HistoryHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeInternal(w, "HISTORY_SERVICE_UNAVAILABLE", "history service is unavailable")
		return
	}

	suggestions, err := h.history.Suggestions(r.Context(), userID(r))
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load suggestions")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.HistorySuggestionsResponse{Suggestions: suggestions})
}
