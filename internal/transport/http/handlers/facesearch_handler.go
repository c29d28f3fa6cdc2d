package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	facesvc "github.com/humapedia/humapedia/internal/services/facesearch"
	historysvc "github.com/humapedia/humapedia/internal/services/history"
	"github.com/humapedia/humapedia/internal/transport/http/dto"
	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

type FaceSearchHandler struct {
	face    *facesvc.Service
	history *historysvc.Service
	logger  *zap.Logger
}

func NewFaceSearchHandler(face *facesvc.Service, history *historysvc.Service, logger *zap.Logger) *FaceSearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FaceSearchHandler{
		face:    face,
		history: history,
		logger:  logger,
	}
}

func (h *FaceSearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.face == nil {
		writeInternal(w, "FACE_SEARCH_SERVICE_UNAVAILABLE", "face search service is unavailable")
		return
	}

	var req dto.FaceSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	caller := callerID(r, req.UserID)
	result, err := h.face.Search(r.Context(), caller, facesvc.Input{
		ImageBase64: req.Image,
		Filters:     req.Filters.ToModel(),
	})
	if err != nil {
		var insufficient *facesvc.InsufficientCreditsError
		var limited *facesvc.RateLimitedError
		switch {
		case errors.Is(err, facesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid face search payload")
		case errors.As(err, &insufficient):
			httperrors.Write(w, http.StatusPaymentRequired, httperrors.InsufficientCreditsError{
				Code:      "INSUFFICIENT_CREDITS",
				Message:   "not enough credits for a face search",
				Required:  insufficient.Required,
				Available: insufficient.Available,
			})
		case errors.As(err, &limited):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "too many face searches",
				RetryAfterSec: limited.RetryAfterSec,
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "face search failed")
		}
		return
	}

	if h.history != nil {
		if _, err := h.history.Append(r.Context(), caller, historysvc.AppendInput{
			Type:     model.SearchTypeFace,
			Results:  len(result.Matches),
			Filters:  req.Filters.ToModel(),
			ImageKey: result.ImageKey,
		}); err != nil {
			h.logger.Warn("record face search in history", zap.Error(err))
		}
	}

	matches := make([]dto.FaceMatchDTO, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, dto.FaceMatchDTO{
			Profile:    dto.ProfileFromModel(m.Profile),
			Confidence: m.Confidence,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.FaceSearchResponse{
		Matches: matches,
		Analysis: dto.FaceSearchAnalysisDTO{
			TotalMatches:        len(matches),
			ConfidenceThreshold: result.ConfidenceThreshold,
			ProcessingTime:      fmt.Sprintf("%.3fs", result.ProcessingTime.Seconds()),
		},
		Credits: dto.FaceSearchCreditsDTO{
			Used:      result.CreditsUsed,
			Remaining: result.Remaining,
		},
		ImageKey: result.ImageKey,
	})
}
