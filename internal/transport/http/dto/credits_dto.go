package dto

import "time"

type CreditTierDTO struct {
	Amount  int     `json:"amount"`
	Price   float64 `json:"price"`
	Savings float64 `json:"savings"`
}

type CreditPricingDTO struct {
	Small      CreditTierDTO `json:"small"`
	Medium     CreditTierDTO `json:"medium"`
	Large      CreditTierDTO `json:"large"`
	Enterprise CreditTierDTO `json:"enterprise"`
}

type OperationCostsDTO struct {
	FaceSearch int `json:"face_search"`
	TextSearch int `json:"text_search"`
	BulkSearch int `json:"bulk_search"`
}

type PurchaseDTO struct {
	ID            string    `json:"id"`
	Amount        int       `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Cost          float64   `json:"cost"`
	Savings       float64   `json:"savings"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type UsageDTO struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	CreditsUsed int       `json:"credits_used"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreditsOverviewResponse struct {
	Credits        int               `json:"credits"`
	TotalPurchased int               `json:"total_purchased"`
	TotalUsed      int               `json:"total_used"`
	LastPurchase   *time.Time        `json:"last_purchase,omitempty"`
	Pricing        CreditPricingDTO  `json:"pricing"`
	Costs          OperationCostsDTO `json:"costs"`
	Purchases      []PurchaseDTO     `json:"purchases"`
	Usage          []UsageDTO        `json:"usage"`
}

type CreditPurchaseRequest struct {
	UserID        string `json:"user_id,omitempty"`
	Amount        int    `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type CreditPurchaseResponse struct {
	Purchase PurchaseDTO `json:"purchase"`
	Credits  int         `json:"credits"`
}
