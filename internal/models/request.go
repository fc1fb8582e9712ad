package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OperationRequest struct {
	OperationType OperationType   `json:"operation_type" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

// Balances serialize as fixed two-decimal strings ("0.00").
type WalletResponse struct {
	ID            uuid.UUID      `json:"id"`
	Balance       string         `json:"balance"`
	LastOperation *OperationType `json:"last_operation"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type OperationResponse struct {
	ID            uuid.UUID      `json:"id"`
	Balance       string         `json:"balance"`
	LastOperation *OperationType `json:"last_operation"`
	Amount        string         `json:"amount"`
}

func NewWalletResponse(w Wallet) WalletResponse {
	return WalletResponse{
		ID:            w.ID,
		Balance:       w.Balance.StringFixed(2),
		LastOperation: w.LastOperation,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func NewOperationResponse(w Wallet, amount decimal.Decimal) OperationResponse {
	return OperationResponse{
		ID:            w.ID,
		Balance:       w.Balance.StringFixed(2),
		LastOperation: w.LastOperation,
		Amount:        amount.StringFixed(2),
	}
}
