package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/models"
)

func TestTreeService_AddMember(t *testing.T) {
	t.Run("inherits every ancestor of the referrer", func(t *testing.T) {
		f := newFixture(t)
		f.join("R2", "")
		f.join("R1", "R2")
		f.join("R", "R1")
		f.join("M", "R")

		uplines, err := f.engine.GetUplineChain(f.ctx, "M")
		require.NoError(t, err)
		assert.Equal(t, []models.TreeEdge{
			{AncestorID: "R", DescendantID: "M", Depth: 1},
			{AncestorID: "R1", DescendantID: "M", Depth: 2},
			{AncestorID: "R2", DescendantID: "M", Depth: 3},
		}, uplines)
	})

	t.Run("closure holds for every member", func(t *testing.T) {
		f := newFixture(t)
		f.join("A", "")
		f.join("B", "A")
		f.join("C", "A")
		f.join("D", "B")
		f.join("E", "D")
		f.join("F", "C")

		parent := map[string]string{"B": "A", "C": "A", "D": "B", "E": "D", "F": "C"}
		edges := f.store.Edges()
		index := make(map[[2]string]int, len(edges))
		for _, e := range edges {
			index[[2]string{e.AncestorID, e.DescendantID}] = e.Depth
		}

		for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
			depth, ok := index[[2]string{id, id}]
			require.True(t, ok, "self edge of %s", id)
			assert.Equal(t, 0, depth)

			// walking the parent chain must match the stored ancestor edges
			steps := 0
			for cur := parent[id]; cur != ""; cur = parent[cur] {
				steps++
				depth, ok := index[[2]string{cur, id}]
				require.True(t, ok, "edge %s -> %s", cur, id)
				assert.Equal(t, steps, depth)
			}
			uplines, err := f.engine.GetUplineChain(f.ctx, id)
			require.NoError(t, err)
			assert.Len(t, uplines, steps)
		}
	})

	t.Run("rejects a second join", func(t *testing.T) {
		f := newFixture(t)
		f.join("R", "")
		f.join("M", "R")
		before := len(f.store.Edges())

		err := f.engine.AddMember(f.ctx, "M", "R")
		require.Error(t, err)
		assert.True(t, IsDuplicateMember(err))
		assert.Len(t, f.store.Edges(), before)
	})

	t.Run("rejects unknown referrer", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutAccount(models.Account{ID: "M", Role: models.AccountRoleMember, Status: models.AccountStatusActive})

		err := f.engine.AddMember(f.ctx, "M", "ghost")
		assert.ErrorIs(t, err, ErrReferrerNotFound)
		assert.Empty(t, f.store.Edges())
	})

	t.Run("rejects self referral", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutAccount(models.Account{ID: "M", Role: models.AccountRoleMember, Status: models.AccountStatusActive})
		assert.ErrorIs(t, f.engine.AddMember(f.ctx, "M", "M"), ErrSelfReferral)
	})

	t.Run("rejects ineligible accounts", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutAccount(models.Account{ID: "S", Role: models.AccountRoleStaff, Status: models.AccountStatusActive})
		f.store.PutAccount(models.Account{ID: "X", Role: models.AccountRoleMember, Status: models.AccountStatusSuspended})

		assert.ErrorIs(t, f.engine.AddMember(f.ctx, "S", ""), ErrAccountNotEligible)
		assert.ErrorIs(t, f.engine.AddMember(f.ctx, "X", ""), ErrAccountNotEligible)
		assert.ErrorIs(t, f.engine.AddMember(f.ctx, "nobody", ""), ErrAccountNotFound)
	})
}

func TestTreeService_Downlines(t *testing.T) {
	f := newFixture(t)
	f.join("A", "")
	f.join("B", "A")
	f.join("C", "B")
	f.join("D", "C")

	downlines, err := f.engine.GetDownlines(f.ctx, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.TreeEdge{
		{AncestorID: "A", DescendantID: "B", Depth: 1},
		{AncestorID: "A", DescendantID: "C", Depth: 2},
	}, downlines)

	children, err := f.engine.Tree.DirectChildren(f.ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, children)

	_, err = f.engine.GetDownlines(f.ctx, "ghost", 1)
	assert.ErrorIs(t, err, ErrAccountNotInTree)
	_, err = f.engine.GetUplineChain(f.ctx, "ghost")
	assert.ErrorIs(t, err, ErrAccountNotInTree)
}
