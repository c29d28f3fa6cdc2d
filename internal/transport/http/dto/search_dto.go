package dto

import "github.com/humapedia/humapedia/internal/domain/model"

type SearchFiltersDTO struct {
	Location   string `json:"location,omitempty"`
	Profession string `json:"profession,omitempty"`
	Company    string `json:"company,omitempty"`
}

func (f SearchFiltersDTO) ToModel() model.SearchFilters {
	return model.SearchFilters{
		Location:   f.Location,
		Profession: f.Profession,
		Company:    f.Company,
	}
}

func FiltersFromModel(f model.SearchFilters) SearchFiltersDTO {
	return SearchFiltersDTO{
		Location:   f.Location,
		Profession: f.Profession,
		Company:    f.Company,
	}
}

type SearchRequest struct {
	UserID  string           `json:"user_id,omitempty"`
	Query   string           `json:"query"`
	Filters SearchFiltersDTO `json:"filters"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

type PaginationDTO struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type SearchMetadataDTO struct {
	SearchTime   string `json:"search_time"`
	TotalResults int    `json:"total_results"`
}

type SearchResponse struct {
	Query      string            `json:"query"`
	Filters    SearchFiltersDTO  `json:"filters"`
	Results    []ProfileResponse `json:"results"`
	Pagination PaginationDTO     `json:"pagination"`
	Metadata   SearchMetadataDTO `json:"metadata"`
}
