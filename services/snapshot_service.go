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

// SnapshotService recomputes and stores the rank of every network member
type SnapshotService struct {
	repos *repositories.Repositories
	tree  *TreeService
	ranks *RankService
	plan  *PlanService
	now   func() time.Time
}

func NewSnapshotService(repos *repositories.Repositories, tree *TreeService, ranks *RankService, plan *PlanService) *SnapshotService {
	return &SnapshotService{repos: repos, tree: tree, ranks: ranks, plan: plan, now: time.Now}
}

// RunRankSnapshot resolves every member over the period window and writes
// the monthly snapshot. The current snapshot is only replaced when period is
// not older than the one it holds, so re-running a closed month never
// downgrades a newer rank.
func (s *SnapshotService) RunRankSnapshot(ctx context.Context, period models.Period) (models.BatchResult, error) {
	result := models.BatchResult{Job: JobRankSnapshot, Period: period.String()}

	ranks, err := s.plan.Ranks(ctx)
	if err != nil {
		return result, err
	}
	members, err := s.tree.Members(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list network members: %w", err)
	}

	window := period.Window()
	for _, id := range members {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++
		changed, err := s.snapshotAccount(ctx, id, period, window, ranks)
		if err != nil {
			log.Printf("Error snapshotting rank of %s (%s): %v", id, period, err)
			batchFailures.WithLabelValues(JobRankSnapshot).Inc()
			result.Fail(id)
			continue
		}
		if changed {
			result.Affected++
		}
	}

	log.Printf("Rank snapshot for %s: %d accounts, %d rank changes, %d failed",
		period, result.Processed, result.Affected, result.Failed)
	return result, nil
}

// snapshotAccount reports whether the account's current rank changed.
func (s *SnapshotService) snapshotAccount(ctx context.Context, accountID string, period models.Period, window models.Window, ranks []models.Rank) (bool, error) {
	res, err := s.ranks.ResolveWithRanks(ctx, accountID, window, ranks)
	if err != nil {
		return false, err
	}
	snap := models.SnapshotFromResolution(period, res, s.now().UTC())

	changed := false
	err = s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		changed = false
		if err := s.repos.Snapshots.UpsertMonthly(ctx, snap); err != nil {
			return err
		}
		current, err := s.repos.Snapshots.Current(ctx, accountID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			changed = true
		case err != nil:
			return err
		case current.Period > snap.Period:
			return nil
		default:
			changed = current.RankID != snap.RankID
		}
		return s.repos.Snapshots.UpsertCurrent(ctx, snap)
	})
	return changed, err
}
