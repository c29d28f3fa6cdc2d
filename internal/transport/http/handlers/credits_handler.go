package handlers

import (
	"errors"
	"net/http"

	"github.com/humapedia/humapedia/internal/domain/model"
	creditssvc "github.com/humapedia/humapedia/internal/services/credits"
	"github.com/humapedia/humapedia/internal/transport/http/dto"
	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

type CreditsHandler struct {
	credits *creditssvc.Service
}

func NewCreditsHandler(credits *creditssvc.Service) *CreditsHandler {
	return &CreditsHandler{credits: credits}
}

func (h *CreditsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h.credits == nil {
		writeInternal(w, "CREDITS_SERVICE_UNAVAILABLE", "credits service is unavailable")
		return
	}

	overview, err := h.credits.Overview(r.Context(), userID(r))
	if err != nil {
		switch {
		case errors.Is(err, creditssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid credits request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load credits")
		}
		return
	}

	purchases := make([]dto.PurchaseDTO, 0, len(overview.Purchases))
	for _, p := range overview.Purchases {
		purchases = append(purchases, purchaseDTO(p))
	}

	usage := make([]dto.UsageDTO, 0, len(overview.Usages))
	for _, u := range overview.Usages {
		usage = append(usage, dto.UsageDTO{
			ID:          u.ID,
			Type:        u.Type,
			CreditsUsed: u.CreditsUsed,
			Description: u.Description,
			CreatedAt:   u.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.CreditsOverviewResponse{
		Credits:        overview.Account.Credits,
		TotalPurchased: overview.Account.TotalPurchased,
		TotalUsed:      overview.Account.TotalUsed,
		LastPurchase:   overview.Account.LastPurchase,
		Pricing:        pricingDTO(overview.Pricing),
		Costs: dto.OperationCostsDTO{
			FaceSearch: overview.Costs.FaceSearch,
			TextSearch: overview.Costs.TextSearch,
			BulkSearch: overview.Costs.BulkSearch,
		},
		Purchases: purchases,
		Usage:     usage,
	})
}

func (h *CreditsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	if h.credits == nil {
		writeInternal(w, "CREDITS_SERVICE_UNAVAILABLE", "credits service is unavailable")
		return
	}

	var req dto.CreditPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.credits.Purchase(r.Context(), callerID(r, req.UserID), creditssvc.PurchaseInput{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, creditssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase payload")
		case errors.Is(err, creditssvc.ErrPaymentDeclined):
			httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
				Code:    "PAYMENT_DECLINED",
				Message: "payment was declined",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to purchase credits")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CreditPurchaseResponse{
		Purchase: purchaseDTO(result.Purchase),
		Credits:  result.Account.Credits,
	})
}

func purchaseDTO(p model.Purchase) dto.PurchaseDTO {
	return dto.PurchaseDTO{
		ID:            p.ID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Cost:          p.Cost,
		Savings:       p.Savings,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

func pricingDTO(p creditssvc.Pricing) dto.CreditPricingDTO {
	return dto.CreditPricingDTO{
		Small:      dto.CreditTierDTO(p.Small),
		Medium:     dto.CreditTierDTO(p.Medium),
		Large:      dto.CreditTierDTO(p.Large),
		Enterprise: dto.CreditTierDTO(p.Enterprise),
	}
}
