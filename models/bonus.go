package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bonus types, one payout per (account, period, type).
const (
	BonusGoldGroup      = "gold_group"
	BonusPlatinumGroup  = "platinum_group"
	BonusDiamondGroup   = "diamond_group"
	BonusDiamondCompany = "diamond_company"
)

// BonusPayout records a periodic bonus paid to a top-rank account.
type BonusPayout struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AccountID string             `json:"accountId" bson:"accountId"`
	Period    string             `json:"period" bson:"period"`
	BonusType string             `json:"bonusType" bson:"bonusType"`
	Base      decimal.Decimal    `json:"base" bson:"base"`
	Rate      decimal.Decimal    `json:"rate" bson:"rate"`
	Amount    decimal.Decimal    `json:"amount" bson:"amount"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// BatchResult summarises one run of a per-account batch.
type BatchResult struct {
	Job       string   `json:"job"`
	Period    string   `json:"period"`
	Processed int      `json:"processed"`
	Affected  int      `json:"affected"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// Fail records one isolated per-account failure.
func (r *BatchResult) Fail(accountID string) {
	r.Failed++
	r.FailedIDs = append(r.FailedIDs, accountID)
}
