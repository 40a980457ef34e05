package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

// VolumeService aggregates personal and group sales volume over explicit windows
type VolumeService struct {
	volumes repositories.VolumeRepository
	tree    *TreeService
}

func NewVolumeService(volumes repositories.VolumeRepository, tree *TreeService) *VolumeService {
	return &VolumeService{volumes: volumes, tree: tree}
}

// RecordVolume appends a volume entry for accountID.
func (s *VolumeService) RecordVolume(ctx context.Context, accountID string, amount decimal.Decimal, at time.Time, saleReference string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: volume must be positive", ErrInvalidSale)
	}
	entry := &models.VolumeEntry{
		AccountID:     accountID,
		Amount:        amount,
		SaleReference: saleReference,
		CreatedAt:     at.UTC(),
	}
	return s.volumes.Insert(ctx, entry)
}

func (s *VolumeService) PersonalVolume(ctx context.Context, accountID string, window models.Window) (decimal.Decimal, error) {
	return s.volumes.Sum(ctx, []string{accountID}, window)
}

// LegVolumes returns one total per direct referral, each covering the child's
// subtree down to maxDepth below the child. Empty legs are kept.
func (s *VolumeService) LegVolumes(ctx context.Context, accountID string, maxDepth int, window models.Window) ([]models.LegVolume, error) {
	children, err := s.tree.DirectChildren(ctx, accountID)
	if err != nil {
		return nil, err
	}

	legs := make([]models.LegVolume, 0, len(children))
	for _, child := range children {
		subtree, err := s.tree.GetDownlines(ctx, child, maxDepth)
		if err != nil {
			return nil, err
		}
		volume, err := s.volumes.Sum(ctx, descendantIDs(subtree, 0), window)
		if err != nil {
			return nil, err
		}
		legs = append(legs, models.LegVolume{ChildID: child, Volume: volume})
	}
	return legs, nil
}

// DownlineVolume sums the personal volume of descendants between minDepth and
// maxDepth levels below accountID.
func (s *VolumeService) DownlineVolume(ctx context.Context, accountID string, minDepth, maxDepth int, window models.Window) (decimal.Decimal, error) {
	edges, err := s.tree.GetDownlines(ctx, accountID, maxDepth)
	if err != nil {
		return decimal.Zero, err
	}
	return s.volumes.Sum(ctx, descendantIDs(edges, minDepth), window)
}

// CompanyVolume sums every entry in window.
func (s *VolumeService) CompanyVolume(ctx context.Context, window models.Window) (decimal.Decimal, error) {
	return s.volumes.SumAll(ctx, window)
}

func descendantIDs(edges []models.TreeEdge, minDepth int) []string {
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.Depth >= minDepth {
			ids = append(ids, e.DescendantID)
		}
	}
	return ids
}
