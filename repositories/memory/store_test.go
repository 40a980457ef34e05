package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

func TestStore_TransactionRollsBack(t *testing.T) {
	s := NewStore()
	repos := s.Repositories()
	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := repos.Wallets.Credit(ctx, "A", decimal.NewFromInt(10), models.WalletLedgerEntry{Source: models.LedgerSourceBonus})
		require.NoError(t, err)
		// nested calls join the outer transaction
		return repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	w, err := repos.Wallets.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.Empty(t, s.Ledger())
}

func TestStore_UniqueKeys(t *testing.T) {
	s := NewStore()
	repos := s.Repositories()
	ctx := context.Background()
	now := time.Now()

	rec := func() []*models.CommissionRecord {
		return []*models.CommissionRecord{{SaleReference: "s", BeneficiaryID: "A", Level: 1, CreatedAt: now}}
	}
	require.NoError(t, repos.Commissions.InsertMany(ctx, rec()))
	assert.ErrorIs(t, repos.Commissions.InsertMany(ctx, rec()), repositories.ErrDuplicateKey)

	payout := func() *models.BonusPayout {
		return &models.BonusPayout{AccountID: "A", Period: "2025-02", BonusType: models.BonusGoldGroup}
	}
	require.NoError(t, repos.Bonuses.Insert(ctx, payout()))
	assert.ErrorIs(t, repos.Bonuses.Insert(ctx, payout()), repositories.ErrDuplicateKey)

	edges := []models.TreeEdge{{AncestorID: "A", DescendantID: "A"}}
	require.NoError(t, repos.Tree.InsertEdges(ctx, edges))
	assert.ErrorIs(t, repos.Tree.InsertEdges(ctx, edges), repositories.ErrDuplicateKey)
}

func TestStore_CommissionTransitionsAreConditional(t *testing.T) {
	s := NewStore()
	repos := s.Repositories()
	ctx := context.Background()
	created := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

	records := []*models.CommissionRecord{
		{SaleReference: "s", BeneficiaryID: "A", Level: 1, Status: models.CommissionOnHold, CreatedAt: created},
		{SaleReference: "s", BeneficiaryID: "A", Level: 2, Status: models.CommissionOnHold, CreatedAt: created},
	}
	require.NoError(t, repos.Commissions.InsertMany(ctx, records))

	ok, err := repos.Commissions.MarkReleased(ctx, records[0].ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repos.Commissions.MarkReleased(ctx, records[0].ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repos.Commissions.VoidOnHoldBefore(ctx, created.Add(time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repos.Commissions.MarkReleased(ctx, records[1].ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "void is terminal")
}
