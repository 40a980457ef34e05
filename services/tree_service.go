package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

// AllLevels asks the tree for every ancestor or descendant.
const AllLevels = math.MaxInt32

// TreeService maintains the referral closure table
type TreeService struct {
	tx       repositories.Transactor
	tree     repositories.TreeRepository
	accounts repositories.AccountRepository
}

// NewTreeService creates a new tree service instance
func NewTreeService(tx repositories.Transactor, tree repositories.TreeRepository, accounts repositories.AccountRepository) *TreeService {
	return &TreeService{tx: tx, tree: tree, accounts: accounts}
}

// AddMember places newID under referrerID (empty for a root member). The
// self edge and every inherited ancestor edge are written in one transaction
// and are committed when AddMember returns.
func (s *TreeService) AddMember(ctx context.Context, newID, referrerID string) error {
	if newID == "" {
		return fmt.Errorf("%w: empty account id", ErrAccountNotFound)
	}
	if newID == referrerID {
		return ErrSelfReferral
	}

	account, err := s.accounts.GetAccount(ctx, newID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, newID)
	}
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", newID, err)
	}
	if !account.CanJoinNetwork() {
		return fmt.Errorf("%w: %s is %s/%s", ErrAccountNotEligible, newID, account.Role, account.Status)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.tree.HasMember(ctx, newID)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateMemberError{AccountID: newID}
		}

		edges := []models.TreeEdge{{AncestorID: newID, DescendantID: newID, Depth: 0}}
		if referrerID != "" {
			inherited, err := s.tree.EdgesTo(ctx, referrerID)
			if err != nil {
				return err
			}
			if len(inherited) == 0 {
				return fmt.Errorf("%w: %s", ErrReferrerNotFound, referrerID)
			}
			for _, e := range inherited {
				edges = append(edges, models.TreeEdge{
					AncestorID:   e.AncestorID,
					DescendantID: newID,
					Depth:        e.Depth + 1,
				})
			}
		}

		if err := s.tree.InsertEdges(ctx, edges); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return &DuplicateMemberError{AccountID: newID}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Network member %s added under %q", newID, referrerID)
	return nil
}

// GetUplines returns ancestors nearest first, excluding the account itself.
func (s *TreeService) GetUplines(ctx context.Context, accountID string, maxDepth int) ([]models.TreeEdge, error) {
	if err := s.requireMember(ctx, accountID); err != nil {
		return nil, err
	}
	return s.tree.Ancestors(ctx, accountID, maxDepth)
}

// GetDownlines returns descendants nearest first. The self edge at depth 0 is
// included; callers drop it when they only want the team.
func (s *TreeService) GetDownlines(ctx context.Context, accountID string, maxDepth int) ([]models.TreeEdge, error) {
	edges, err := s.tree.Descendants(ctx, accountID, maxDepth)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotInTree, accountID)
	}
	return edges, nil
}

// DirectChildren returns the depth-1 referrals of accountID.
func (s *TreeService) DirectChildren(ctx context.Context, accountID string) ([]string, error) {
	edges, err := s.GetDownlines(ctx, accountID, 1)
	if err != nil {
		return nil, err
	}
	children := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.Depth == 1 {
			children = append(children, e.DescendantID)
		}
	}
	return children, nil
}

// Members lists every account placed in the tree.
func (s *TreeService) Members(ctx context.Context) ([]string, error) {
	return s.tree.Members(ctx)
}

func (s *TreeService) requireMember(ctx context.Context, accountID string) error {
	ok, err := s.tree.HasMember(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotInTree, accountID)
	}
	return nil
}
