package model

import "time"

const (
	SearchTypeText = "text_search"
	SearchTypeFace = "face_search"
)

type SearchFilters struct {
	Location   string `json:"location,omitempty"`
	Profession string `json:"profession,omitempty"`
	Company    string `json:"company,omitempty"`
}

func (f SearchFilters) Empty() bool {
	return f.Location == "" && f.Profession == "" && f.Company == ""
}

type HistoryEntry struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Query     string        `json:"query"`
	Type      string        `json:"type"`
	Results   int           `json:"results"`
	Filters   SearchFilters `json:"filters"`
	Timestamp time.Time     `json:"timestamp"`
	Success   bool          `json:"success"`
	ImageKey  string        `json:"image_key,omitempty"`
}
