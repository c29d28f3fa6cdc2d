package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	historysvc "github.com/humapedia/humapedia/internal/services/history"
	searchsvc "github.com/humapedia/humapedia/internal/services/search"
	"github.com/humapedia/humapedia/internal/transport/http/dto"
	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

type SearchHandler struct {
	search  *searchsvc.Service
	history *historysvc.Service
	logger  *zap.Logger
}

func NewSearchHandler(search *searchsvc.Service, history *historysvc.Service, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SearchHandler{
		search:  search,
		history: history,
		logger:  logger,
	}
}

// SearchQuery is the GET form: criteria arrive as query parameters.
func (h *SearchHandler) SearchQuery(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeInternal(w, "SEARCH_SERVICE_UNAVAILABLE", "search service is unavailable")
		return
	}

	page, okPage := queryInt(r, "page")
	limit, okLimit := queryInt(r, "limit")
	if !okPage || !okLimit {
		writeBadRequest(w, "VALIDATION_ERROR", "page and limit must be integers")
		return
	}

	params := r.URL.Query()
	h.respond(w, r, userID(r), searchsvc.Input{
		Query: params.Get("q"),
		Filters: model.SearchFilters{
			Location:   params.Get("location"),
			Profession: params.Get("profession"),
			Company:    params.Get("company"),
		},
		Page:  page,
		Limit: limit,
	})
}

// Search is the POST form: criteria arrive in a JSON body.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeInternal(w, "SEARCH_SERVICE_UNAVAILABLE", "search service is unavailable")
		return
	}

	var req dto.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	h.respond(w, r, callerID(r, req.UserID), searchsvc.Input{
		Query:   req.Query,
		Filters: req.Filters.ToModel(),
		Page:    req.Page,
		Limit:   req.Limit,
	})
}

func (h *SearchHandler) respond(w http.ResponseWriter, r *http.Request, caller string, in searchsvc.Input) {
	started := time.Now()

	page, err := h.search.Search(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, searchsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid search parameters")
		default:
			writeInternal(w, "INTERNAL_ERROR", "search failed")
		}
		return
	}

	// The history append is best-effort; a broken history store must not
	// fail the search itself.
	if h.history != nil {
		if _, err := h.history.Append(r.Context(), caller, historysvc.AppendInput{
			Query:   in.Query,
			Type:    model.SearchTypeText,
			Results: page.Total,
			Filters: in.Filters,
		}); err != nil {
			h.logger.Warn("record text search in history", zap.Error(err))
		}
	}

	results := make([]dto.ProfileResponse, 0, len(page.Results))
	for _, p := range page.Results {
		results = append(results, dto.ProfileFromModel(p))
	}

	httperrors.Write(w, http.StatusOK, dto.SearchResponse{
		Query:   in.Query,
		Filters: dto.FiltersFromModel(in.Filters),
		Results: results,
		Pagination: dto.PaginationDTO{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			HasNext:    page.HasNext,
			HasPrev:    page.HasPrev,
		},
		Metadata: dto.SearchMetadataDTO{
			SearchTime:   fmt.Sprintf("%.3fs", time.Since(started).Seconds()),
			TotalResults: page.Total,
		},
	})
}
