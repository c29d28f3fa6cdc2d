package model

import "time"

type CreditAccount struct {
	UserID         string     `json:"user_id"`
	Credits        int        `json:"credits"`
	TotalPurchased int        `json:"total_purchased"`
	TotalUsed      int        `json:"total_used"`
	LastPurchase   *time.Time `json:"last_purchase"`
}

type Purchase struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Amount        int       `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Cost          float64   `json:"cost"`
	Savings       float64   `json:"savings"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type Usage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	CreditsUsed int       `json:"credits_used"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
