package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы транзакции. Меняются только из pending и только один раз.
const (
	TransactionPending   = "pending"
	TransactionConfirmed = "confirmed"
	TransactionRejected  = "rejected"
)

// Transaction заявка на оплату с подтверждающим вложением.
type Transaction struct {
	ID        int64
	UserID    int64
	PackageID int
	Amount    decimal.Decimal
	Status    string
	ProofRef  string
	CreatedAt time.Time
}

// TransactionInfo транзакция вместе с тарифом, на который она оформлена.
type TransactionInfo struct {
	Transaction
	Username string
	Package  Package
}

// DummyTransaction тело запроса на отправку подтверждения оплаты.
type DummyTransaction struct {
	UserID    int64  `json:"user_id" validate:"required"`
	PackageID int    `json:"package_id" validate:"required,gt=0"`
	ProofRef  string `json:"proof_ref" validate:"required"`
}
