package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission types.
const (
	CommissionTypePackage = "package"
	CommissionTypeProduct = "product"
)

// Commission statuses. Unreleased only exists before the first write.
const (
	CommissionUnreleased = "unreleased"
	CommissionOnHold     = "on_hold"
	CommissionReleased   = "released"
	CommissionVoid       = "void"
)

// MaxCommissionLevel is the deepest upline level paid on a sale.
const MaxCommissionLevel = 5

// CommissionRecord is one upline's share of one sale.
type CommissionRecord struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BeneficiaryID   string             `json:"beneficiaryId" bson:"beneficiaryId"`
	SourceAccountID string             `json:"sourceAccountId" bson:"sourceAccountId"`
	SaleReference   string             `json:"saleReference" bson:"saleReference"`
	Level           int                `json:"level" bson:"level"`
	SaleAmount      decimal.Decimal    `json:"saleAmount" bson:"saleAmount"`
	Rate            decimal.Decimal    `json:"rate" bson:"rate"`
	Amount          decimal.Decimal    `json:"amount" bson:"amount"`
	Type            string             `json:"type" bson:"type"`
	Status          string             `json:"status" bson:"status"`
	RankID          string             `json:"rankId" bson:"rankId"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	ReleasedAt      *time.Time         `json:"releasedAt,omitempty" bson:"releasedAt,omitempty"`
	VoidedAt        *time.Time         `json:"voidedAt,omitempty" bson:"voidedAt,omitempty"`
}

// Sale is a completed qualifying sale reported by the order service.
type Sale struct {
	Reference string          `json:"reference"`
	AccountID string          `json:"accountId" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Type      string          `json:"type" validate:"required,oneof=package product"`
	At        time.Time       `json:"at"`
}
