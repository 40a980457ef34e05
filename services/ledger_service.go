package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

// Batch job names.
const (
	JobRankSnapshot      = "rank_snapshot"
	JobReleaseOnHold     = "release_on_hold"
	JobVoidExpired       = "void_expired"
	JobBonusDistribution = "bonus_distribution"
)

// LedgerService moves on-hold commissions to their terminal states
type LedgerService struct {
	repos    *repositories.Repositories
	notifier Notifier
	now      func() time.Time
}

func NewLedgerService(repos *repositories.Repositories, notifier Notifier) *LedgerService {
	return &LedgerService{repos: repos, notifier: notifier, now: time.Now}
}

// ReleaseOnHold releases every on-hold commission created before the end of
// period whose level is now covered by the beneficiary's current snapshot.
// Each beneficiary is handled in its own transaction; a failure is recorded
// and the sweep moves on.
func (s *LedgerService) ReleaseOnHold(ctx context.Context, period models.Period) (models.BatchResult, error) {
	result := models.BatchResult{Job: JobReleaseOnHold, Period: period.String()}
	cutoff := period.End()

	beneficiaries, err := s.repos.Commissions.OnHoldBeneficiaries(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to list on-hold beneficiaries: %w", err)
	}

	for _, id := range beneficiaries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++
		released, err := s.releaseFor(ctx, id, cutoff)
		if err != nil {
			log.Printf("Error releasing commissions for %s (%s): %v", id, period, err)
			batchFailures.WithLabelValues(JobReleaseOnHold).Inc()
			result.Fail(id)
			continue
		}
		if len(released) == 0 {
			continue
		}
		result.Affected += len(released)
		ledgerTransitions.WithLabelValues(models.CommissionReleased).Add(float64(len(released)))
		for _, rec := range released {
			walletCredits.WithLabelValues(models.LedgerSourceCommission).Add(rec.Amount.InexactFloat64())
		}
		s.notifier.Notify([]string{id}, NotifyCommissionPaid, map[string]interface{}{
			"period":   period.String(),
			"released": len(released),
		})
	}

	log.Printf("Release sweep for %s: %d beneficiaries, %d released, %d failed",
		period, result.Processed, result.Affected, result.Failed)
	return result, nil
}

func (s *LedgerService) releaseFor(ctx context.Context, beneficiaryID string, cutoff time.Time) ([]models.CommissionRecord, error) {
	var released []models.CommissionRecord
	err := s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		released = released[:0]
		snap, err := s.repos.Snapshots.Current(ctx, beneficiaryID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		records, err := s.repos.Commissions.ListOnHold(ctx, beneficiaryID, cutoff)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		for _, rec := range records {
			if !snap.CoversLevel(rec.Level) {
				continue
			}
			ok, err := s.repos.Commissions.MarkReleased(ctx, rec.ID, now)
			if err != nil {
				return err
			}
			if !ok {
				// released or voided by a concurrent sweep
				continue
			}
			if rec.Amount.IsPositive() {
				_, err = s.repos.Wallets.Credit(ctx, beneficiaryID, rec.Amount, models.WalletLedgerEntry{
					Type:      models.LedgerIn,
					Source:    models.LedgerSourceCommission,
					Reference: rec.ID.Hex(),
				})
				if err != nil {
					return fmt.Errorf("failed to credit wallet: %w", err)
				}
			}
			rec.Status = models.CommissionReleased
			rec.ReleasedAt = &now
			released = append(released, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// VoidExpiredOnHold forfeits on-hold commissions older than period, the
// period that just closed. Records from period itself keep their chance of
// release until the next cycle. Voided records never touch a wallet.
func (s *LedgerService) VoidExpiredOnHold(ctx context.Context, period models.Period) (models.BatchResult, error) {
	result := models.BatchResult{Job: JobVoidExpired, Period: period.String()}
	cutoff := period.Start()

	var voided int64
	err := s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		voided, err = s.repos.Commissions.VoidOnHoldBefore(ctx, cutoff, s.now().UTC())
		return err
	})
	if err != nil {
		return result, fmt.Errorf("failed to void on-hold commissions before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	result.Affected = int(voided)
	ledgerTransitions.WithLabelValues(models.CommissionVoid).Add(float64(voided))
	log.Printf("Void sweep for %s: %d commissions created before %s voided",
		period, voided, cutoff.Format("2006-01-02"))
	return result, nil
}
