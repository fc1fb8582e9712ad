package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OperationType string

const (
	OperationDeposit  OperationType = "DEPOSIT"
	OperationWithdraw OperationType = "WITHDRAW"
)

func (t OperationType) Valid() bool {
	return t == OperationDeposit || t == OperationWithdraw
}

type Wallet struct {
	ID            uuid.UUID       `db:"id"`
	Balance       decimal.Decimal `db:"balance"`
	LastOperation *OperationType  `db:"last_operation"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}
