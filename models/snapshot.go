package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RankSnapshot is the latest rank computed for an account. MonthlySnapshot
// shares the shape and is keyed by (AccountID, Period).
type RankSnapshot struct {
	AccountID        string          `json:"accountId" bson:"accountId"`
	Period           string          `json:"period" bson:"period"`
	RankID           string          `json:"rankId" bson:"rankId"`
	PV               decimal.Decimal `json:"pv" bson:"pv"`
	GV               decimal.Decimal `json:"gv" bson:"gv"`
	CappedGV         decimal.Decimal `json:"cappedGv" bson:"cappedGv"`
	MinEligibleLevel int             `json:"minEligibleLevel" bson:"minEligibleLevel"`
	MaxEligibleLevel int             `json:"maxEligibleLevel" bson:"maxEligibleLevel"`
	UpdatedAt        time.Time       `json:"updatedAt" bson:"updatedAt"`
}

type MonthlySnapshot = RankSnapshot

// CoversLevel reports whether the snapshot rank makes a level payable.
func (s RankSnapshot) CoversLevel(level int) bool {
	if s.RankID == RankUnranked || s.RankID == "" {
		return false
	}
	return level >= s.MinEligibleLevel && level <= s.MaxEligibleLevel
}

// SnapshotFromResolution builds the snapshot row for a resolved rank.
func SnapshotFromResolution(p Period, r RankResolution, at time.Time) RankSnapshot {
	return RankSnapshot{
		AccountID:        r.AccountID,
		Period:           p.String(),
		RankID:           r.RankID,
		PV:               r.PV,
		GV:               r.GV,
		CappedGV:         r.CappedGV,
		MinEligibleLevel: r.MinEligibleLevel,
		MaxEligibleLevel: r.MaxEligibleLevel,
		UpdatedAt:        at,
	}
}
