package models

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Well-known rank ids. The top three tiers take part in the periodic bonus.
const (
	RankUnranked = "unranked"
	RankGold     = "gold"
	RankPlatinum = "platinum"
	RankDiamond  = "diamond"
)

// Rank is one row of the admin-managed rank table. All rates are percents.
type Rank struct {
	ID               string          `json:"id" bson:"_id" validate:"required,ne=unranked"`
	Name             string          `json:"name" bson:"name" validate:"required"`
	PVRequirement    decimal.Decimal `json:"pvRequirement" bson:"pvRequirement" validate:"gte=0"`
	GVRequirement    decimal.Decimal `json:"gvRequirement" bson:"gvRequirement" validate:"gte=0"`
	LegCapPercent    decimal.Decimal `json:"legCapPercent" bson:"legCapPercent" validate:"gt=0,lte=100"`
	MinEligibleLevel int             `json:"minEligibleLevel" bson:"minEligibleLevel" validate:"gte=1,lte=5"`
	MaxEligibleLevel int             `json:"maxEligibleLevel" bson:"maxEligibleLevel" validate:"gtefield=MinEligibleLevel,lte=5"`
	BonusRate        decimal.Decimal `json:"bonusRate" bson:"bonusRate" validate:"gte=0,lte=100"`
	GroupBonusRate   decimal.Decimal `json:"groupBonusRate" bson:"groupBonusRate" validate:"gte=0,lte=100"`
	CompanyBonusRate decimal.Decimal `json:"companyBonusRate" bson:"companyBonusRate" validate:"gte=0,lte=100"`
}

// NewRank validates every required field instead of letting a missing value
// default to zero.
func NewRank(r Rank) (Rank, error) {
	if err := r.Validate(); err != nil {
		return Rank{}, err
	}
	return r, nil
}

func (r Rank) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("rank %q: %w", r.ID, err)
	}
	return nil
}

// LegCapLimit is the most a single leg may contribute towards this rank.
func (r Rank) LegCapLimit() decimal.Decimal {
	return r.GVRequirement.Mul(r.LegCapPercent).Div(decimal.NewFromInt(100))
}

// CoversLevel reports whether commissions at level are payable under this rank.
func (r Rank) CoversLevel(level int) bool {
	return level >= r.MinEligibleLevel && level <= r.MaxEligibleLevel
}

// SortRanks orders ranks for evaluation: highest requirement first. Ties on
// GV fall back to PV, then id, so the order never depends on storage order.
func SortRanks(ranks []Rank) []Rank {
	sorted := make([]Rank, len(ranks))
	copy(sorted, ranks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := a.GVRequirement.Cmp(b.GVRequirement); c != 0 {
			return c > 0
		}
		if c := a.PVRequirement.Cmp(b.PVRequirement); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	})
	return sorted
}

// LevelRate is the base commission percent paid to the upline at Level.
type LevelRate struct {
	Level int             `json:"level" bson:"level" validate:"gte=1,lte=5"`
	Rate  decimal.Decimal `json:"rate" bson:"rate" validate:"gte=0,lte=100"`
}

// Plan is the full compensation configuration.
type Plan struct {
	Ranks      []Rank      `json:"ranks" validate:"dive"`
	LevelRates []LevelRate `json:"levelRates" validate:"dive"`
}

// RankResolution is the outcome of evaluating an account against the rank table.
type RankResolution struct {
	AccountID        string          `json:"accountId"`
	RankID           string          `json:"rankId"`
	RankName         string          `json:"rankName"`
	Tier             int             `json:"tier"`
	PV               decimal.Decimal `json:"pv"`
	GV               decimal.Decimal `json:"gv"`
	CappedGV         decimal.Decimal `json:"cappedGv"`
	BonusRate        decimal.Decimal `json:"bonusRate"`
	MinEligibleLevel int             `json:"minEligibleLevel"`
	MaxEligibleLevel int             `json:"maxEligibleLevel"`
}

func (r RankResolution) Unranked() bool {
	return r.RankID == RankUnranked
}

// CoversLevel reports whether a commission at level is payable now.
func (r RankResolution) CoversLevel(level int) bool {
	if r.Unranked() {
		return false
	}
	return level >= r.MinEligibleLevel && level <= r.MaxEligibleLevel
}
