package dto

type FaceSearchRequest struct {
	UserID  string           `json:"user_id,omitempty"`
	Image   string           `json:"image"`
	Filters SearchFiltersDTO `json:"filters"`
}

type FaceMatchDTO struct {
	Profile    ProfileResponse `json:"profile"`
	Confidence float64         `json:"confidence"`
}

type FaceSearchAnalysisDTO struct {
	TotalMatches        int     `json:"total_matches"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	ProcessingTime      string  `json:"processing_time"`
}

type FaceSearchCreditsDTO struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type FaceSearchResponse struct {
	Matches  []FaceMatchDTO        `json:"matches"`
	Analysis FaceSearchAnalysisDTO `json:"analysis"`
	Credits  FaceSearchCreditsDTO  `json:"credits"`
	ImageKey string                `json:"image_key,omitempty"`
}
