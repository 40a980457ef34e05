package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
)

// RankQualifyingDepth is how far below each direct referral volume counts
// towards rank qualification.
const RankQualifyingDepth = 4

// AsOf selects the volume window used for rank resolution.
type AsOf int

const (
	AsOfWindowed AsOf = iota
	AsOfAllTime
)

// ResolveRank evaluates pv and the leg volumes against ranks. Ranks are put in
// evaluation order (highest requirement first) and the first rank whose PV
// and capped GV requirements are both met wins. Every rank's test is
// monotonic in pv and in each leg, so raising either never lowers the result.
func ResolveRank(accountID string, pv decimal.Decimal, legs []decimal.Decimal, ranks []models.Rank) (models.RankResolution, error) {
	if len(ranks) == 0 {
		return models.RankResolution{}, &ConfigurationError{Reason: "rank table is empty"}
	}
	ordered := models.SortRanks(ranks)

	strongest, total := decimal.Zero, decimal.Zero
	for _, leg := range legs {
		total = total.Add(leg)
		strongest = decimal.Max(strongest, leg)
	}
	weak := total.Sub(strongest)

	for i, rank := range ordered {
		capped := decimal.Min(strongest, rank.LegCapLimit()).Add(weak)
		if pv.GreaterThanOrEqual(rank.PVRequirement) && capped.GreaterThanOrEqual(rank.GVRequirement) {
			return models.RankResolution{
				AccountID:        accountID,
				RankID:           rank.ID,
				RankName:         rank.Name,
				Tier:             len(ordered) - i,
				PV:               pv,
				GV:               total,
				CappedGV:         capped,
				BonusRate:        rank.GroupBonusRate,
				MinEligibleLevel: rank.MinEligibleLevel,
				MaxEligibleLevel: rank.MaxEligibleLevel,
			}, nil
		}
	}

	lowest := ordered[len(ordered)-1]
	return models.RankResolution{
		AccountID:        accountID,
		RankID:           models.RankUnranked,
		RankName:         "Unranked",
		Tier:             0,
		PV:               pv,
		GV:               total,
		CappedGV:         decimal.Min(strongest, lowest.LegCapLimit()).Add(weak),
		BonusRate:        decimal.Zero,
		MinEligibleLevel: 1,
		MaxEligibleLevel: 1,
	}, nil
}

// RankService resolves ranks from live volume
type RankService struct {
	plan    *PlanService
	volumes *VolumeService
}

func NewRankService(plan *PlanService, volumes *VolumeService) *RankService {
	return &RankService{plan: plan, volumes: volumes}
}

// Resolve loads the rank table and resolves accountID.
func (s *RankService) Resolve(ctx context.Context, accountID string, window models.Window, asOf AsOf) (models.RankResolution, error) {
	ranks, err := s.plan.Ranks(ctx)
	if err != nil {
		return models.RankResolution{}, err
	}
	if asOf == AsOfAllTime {
		window = models.AllTime
	}
	return s.ResolveWithRanks(ctx, accountID, window, ranks)
}

// ResolveWithRanks resolves against an already loaded rank table, so batches
// read the table once.
func (s *RankService) ResolveWithRanks(ctx context.Context, accountID string, window models.Window, ranks []models.Rank) (models.RankResolution, error) {
	pv, err := s.volumes.PersonalVolume(ctx, accountID, window)
	if err != nil {
		return models.RankResolution{}, err
	}
	legs, err := s.volumes.LegVolumes(ctx, accountID, RankQualifyingDepth, window)
	if err != nil {
		return models.RankResolution{}, err
	}
	volumes := make([]decimal.Decimal, len(legs))
	for i, leg := range legs {
		volumes[i] = leg.Volume
	}
	return ResolveRank(accountID, pv, volumes, ranks)
}
