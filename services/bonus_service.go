package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
	"github.com/HSouheill/barrim_network/utils"
)

// errBonusPaid aborts a payout transaction that hit the unique index.
var errBonusPaid = errors.New("bonus already paid")

// bonusTiers lists the ranks taking part in the periodic bonus, in the order
// their batches run.
var bonusTiers = []string{models.RankGold, models.RankPlatinum, models.RankDiamond}

// BonusService pays the periodic group and company bonuses of the top ranks
type BonusService struct {
	repos    *repositories.Repositories
	volumes  *VolumeService
	plan     *PlanService
	notifier Notifier
	now      func() time.Time
}

func NewBonusService(repos *repositories.Repositories, volumes *VolumeService, plan *PlanService, notifier Notifier) *BonusService {
	return &BonusService{repos: repos, volumes: volumes, plan: plan, notifier: notifier, now: time.Now}
}

// RunBonusDistribution runs one batch per tier, gold first. Every payout is
// keyed by (account, period, bonus type) so re-running a period only pays
// what is still missing.
func (s *BonusService) RunBonusDistribution(ctx context.Context, period models.Period) ([]models.BatchResult, error) {
	plan, err := s.plan.Load(ctx)
	if err != nil {
		return nil, err
	}
	window := period.Window()

	results := make([]models.BatchResult, 0, len(bonusTiers))
	for _, tier := range bonusTiers {
		rank, ok := plan.Rank(tier)
		if !ok {
			log.Printf("Rank %s is not configured, skipping its bonus for %s", tier, period)
			results = append(results, models.BatchResult{Job: JobBonusDistribution + ":" + tier, Period: period.String()})
			continue
		}
		result, err := s.runTier(ctx, period, window, rank)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *BonusService) runTier(ctx context.Context, period models.Period, window models.Window, rank models.Rank) (models.BatchResult, error) {
	result := models.BatchResult{Job: JobBonusDistribution + ":" + rank.ID, Period: period.String()}

	snapshots, err := s.repos.Snapshots.MonthlyByRanks(ctx, period.String(), []string{rank.ID})
	if err != nil {
		return result, fmt.Errorf("failed to load %s snapshots: %w", rank.ID, err)
	}
	if len(snapshots) == 0 {
		return result, nil
	}

	var pool, totalGV decimal.Decimal
	if rank.ID == models.RankDiamond {
		companySales, err := s.volumes.CompanyVolume(ctx, window)
		if err != nil {
			return result, fmt.Errorf("failed to sum company sales: %w", err)
		}
		pool = companySales.Mul(rank.CompanyBonusRate).Div(decimal.NewFromInt(100))
		for _, snap := range snapshots {
			totalGV = totalGV.Add(snap.GV)
		}
	}

	for _, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		payouts, err := s.payoutsFor(ctx, snap, rank, window, pool, totalGV)
		if err == nil {
			var paid int
			paid, err = s.pay(ctx, payouts)
			result.Affected += paid
		}
		if err != nil {
			log.Printf("Error paying %s bonus to %s (%s): %v", rank.ID, snap.AccountID, period, err)
			batchFailures.WithLabelValues(JobBonusDistribution).Inc()
			result.Fail(snap.AccountID)
		}
	}

	log.Printf("Bonus distribution %s for %s: %d accounts, %d payouts, %d failed",
		rank.ID, period, result.Processed, result.Affected, result.Failed)
	s.notifier.QueueEmail(EmailBonusRunSummary, map[string]interface{}{
		"period":    period.String(),
		"rank":      rank.ID,
		"processed": result.Processed,
		"paid":      result.Affected,
		"failed":    result.Failed,
	})
	return result, nil
}

// payoutsFor computes the payouts owed to one snapshot holder.
func (s *BonusService) payoutsFor(ctx context.Context, snap models.MonthlySnapshot, rank models.Rank, window models.Window, pool, totalGV decimal.Decimal) ([]*models.BonusPayout, error) {
	maxDepth := models.MaxCommissionLevel
	groupType := models.BonusPlatinumGroup
	switch rank.ID {
	case models.RankGold:
		maxDepth = 1
		groupType = models.BonusGoldGroup
	case models.RankDiamond:
		groupType = models.BonusDiamondGroup
	}

	base, err := s.volumes.DownlineVolume(ctx, snap.AccountID, 1, maxDepth, window)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	payouts := []*models.BonusPayout{{
		AccountID: snap.AccountID,
		Period:    snap.Period,
		BonusType: groupType,
		Base:      base,
		Rate:      rank.GroupBonusRate,
		Amount:    utils.PercentOf(base, rank.GroupBonusRate),
		CreatedAt: now,
	}}

	if rank.ID == models.RankDiamond && totalGV.IsPositive() {
		payouts = append(payouts, &models.BonusPayout{
			AccountID: snap.AccountID,
			Period:    snap.Period,
			BonusType: models.BonusDiamondCompany,
			Base:      pool,
			Rate:      rank.CompanyBonusRate,
			Amount:    utils.RoundMoney(pool.Mul(snap.GV).Div(totalGV)),
			CreatedAt: now,
		})
	}
	return payouts, nil
}

// pay records and credits each payout in its own transaction. Already paid
// and zero payouts are skipped.
func (s *BonusService) pay(ctx context.Context, payouts []*models.BonusPayout) (int, error) {
	paid := 0
	for _, p := range payouts {
		if !p.Amount.IsPositive() {
			continue
		}
		err := s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.repos.Bonuses.Insert(ctx, p); err != nil {
				if errors.Is(err, repositories.ErrDuplicateKey) {
					return errBonusPaid
				}
				return err
			}
			_, err := s.repos.Wallets.Credit(ctx, p.AccountID, p.Amount, models.WalletLedgerEntry{
				Type:      models.LedgerIn,
				Source:    models.LedgerSourceBonus,
				Reference: p.ID.Hex(),
			})
			return err
		})
		if errors.Is(err, errBonusPaid) {
			continue
		}
		if err != nil {
			return paid, err
		}
		paid++
		walletCredits.WithLabelValues(models.LedgerSourceBonus).Add(p.Amount.InexactFloat64())
		s.notifier.Notify([]string{p.AccountID}, NotifyBonusPaid, map[string]interface{}{
			"period":    p.Period,
			"bonusType": p.BonusType,
			"amount":    p.Amount.StringFixed(2),
		})
	}
	return paid, nil
}
