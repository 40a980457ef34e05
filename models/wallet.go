package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	LedgerIn  = "in"
	LedgerOut = "out"

	LedgerStatusCompleted = "completed"

	LedgerSourceCommission = "commission"
	LedgerSourceBonus      = "bonus"
)

// Wallet holds the running balance of an account.
type Wallet struct {
	AccountID string          `json:"accountId" bson:"_id"`
	Balance   decimal.Decimal `json:"balance" bson:"balance"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// WalletLedgerEntry is the append-only record behind every balance change.
type WalletLedgerEntry struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	WalletID    string             `json:"walletId" bson:"walletId"`
	AmountDelta decimal.Decimal    `json:"amountDelta" bson:"amountDelta"`
	Type        string             `json:"type" bson:"type"`
	Status      string             `json:"status" bson:"status"`
	Source      string             `json:"source" bson:"source"`
	Reference   string             `json:"reference" bson:"reference"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
