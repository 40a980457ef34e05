package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VolumeEntry is an append-only sales volume record credited to one account.
type VolumeEntry struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AccountID     string             `json:"accountId" bson:"accountId"`
	Amount        decimal.Decimal    `json:"amount" bson:"amount"`
	SaleReference string             `json:"saleReference,omitempty" bson:"saleReference,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// LegVolume is the volume of one direct referral's subtree.
type LegVolume struct {
	ChildID string          `json:"childId"`
	Volume  decimal.Decimal `json:"volume"`
}

// TeamVolume summarises an account's own and downline volume over a window.
type TeamVolume struct {
	AccountID string          `json:"accountId"`
	Period    string          `json:"period,omitempty"`
	PV        decimal.Decimal `json:"pv"`
	GV        decimal.Decimal `json:"gv"`
	Legs      []LegVolume     `json:"legs"`
}
