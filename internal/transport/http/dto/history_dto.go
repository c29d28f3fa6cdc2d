package dto

import (
	"time"

	"github.com/humapedia/humapedia/internal/domain/model"
)

type HistoryEntryDTO struct {
	ID        string           `json:"id"`
	Query     string           `json:"query,omitempty"`
	Type      string           `json:"type"`
	Results   int              `json:"results"`
	Filters   SearchFiltersDTO `json:"filters"`
	Timestamp time.Time        `json:"timestamp"`
	Success   bool             `json:"success"`
}

func HistoryEntryFromModel(e model.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:        e.ID,
		Query:     e.Query,
		Type:      e.Type,
		Results:   e.Results,
		Filters:   FiltersFromModel(e.Filters),
		Timestamp: e.Timestamp,
		Success:   e.Success,
	}
}

type HistoryAppendRequest struct {
	UserID  string           `json:"user_id,omitempty"`
	Query   string           `json:"query"`
	Type    string           `json:"type"`
	Results int              `json:"results"`
	Filters SearchFiltersDTO `json:"filters"`
	// Timestamp backdates replayed searches; RFC 3339, optional.
	Timestamp string `json:"timestamp,omitempty"`
	Success   *bool  `json:"success,omitempty"`
}

type HistoryPaginationDTO struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type HistoryListResponse struct {
	Entries     []HistoryEntryDTO    `json:"history"`
	Pagination  HistoryPaginationDTO `json:"pagination"`
	Statistics  HistoryStatsResponse `json:"statistics"`
	Suggestions []string             `json:"suggestions"`
}

type HistoryStatsResponse struct {
	Total          int     `json:"total"`
	TextSearches   int     `json:"text_searches"`
	FaceSearches   int     `json:"face_searches"`
	Successful     int     `json:"successful"`
	SuccessRate    float64 `json:"success_rate"`
	AverageResults float64 `json:"average_results"`
}

type HistorySuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
