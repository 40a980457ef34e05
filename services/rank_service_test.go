package services

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/models"
)

func goldSilverRanks() []models.Rank {
	return []models.Rank{
		{
			ID: "silver", Name: "Silver",
			PVRequirement: d("100"), GVRequirement: d("3000"), LegCapPercent: d("60"),
			MinEligibleLevel: 1, MaxEligibleLevel: 2, GroupBonusRate: d("1"),
		},
		{
			ID: "gold", Name: "Gold",
			PVRequirement: d("200"), GVRequirement: d("7500"), LegCapPercent: d("50"),
			MinEligibleLevel: 1, MaxEligibleLevel: 3, GroupBonusRate: d("2"),
		},
	}
}

func TestResolveRank(t *testing.T) {
	t.Run("caps the strongest leg", func(t *testing.T) {
		// gold needs 7500 but the 20000 leg only counts 3750
		res, err := ResolveRank("A", d("250"), []decimal.Decimal{d("20000"), d("3000")}, goldSilverRanks())
		require.NoError(t, err)
		assert.Equal(t, "silver", res.RankID)
		decimalEqual(t, "4800", res.CappedGV)
		decimalEqual(t, "23000", res.GV)
		assert.Equal(t, 1, res.Tier)
		decimalEqual(t, "1", res.BonusRate)
	})

	t.Run("qualifies once the weak legs carry enough", func(t *testing.T) {
		res, err := ResolveRank("A", d("250"), []decimal.Decimal{d("20000"), d("3000"), d("1000")}, goldSilverRanks())
		require.NoError(t, err)
		assert.Equal(t, "gold", res.RankID)
		decimalEqual(t, "7750", res.CappedGV)
		assert.Equal(t, 2, res.Tier)
		assert.True(t, res.CoversLevel(3))
		assert.False(t, res.CoversLevel(4))
	})

	t.Run("falls back to unranked", func(t *testing.T) {
		res, err := ResolveRank("A", d("50"), []decimal.Decimal{d("20000")}, goldSilverRanks())
		require.NoError(t, err)
		assert.True(t, res.Unranked())
		assert.Equal(t, 0, res.Tier)
		assert.True(t, res.BonusRate.IsZero())
		assert.False(t, res.CoversLevel(1))
	})

	t.Run("no legs", func(t *testing.T) {
		res, err := ResolveRank("A", d("1000"), nil, goldSilverRanks())
		require.NoError(t, err)
		assert.True(t, res.Unranked())
		assert.True(t, res.CappedGV.IsZero())
	})

	t.Run("empty rank table is a configuration error", func(t *testing.T) {
		_, err := ResolveRank("A", d("1000"), nil, nil)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("input order does not matter", func(t *testing.T) {
		ranks := goldSilverRanks()
		reversed := []models.Rank{ranks[1], ranks[0]}
		legs := []decimal.Decimal{d("20000"), d("3000")}

		a, err := ResolveRank("A", d("250"), legs, ranks)
		require.NoError(t, err)
		b, err := ResolveRank("A", d("250"), legs, reversed)
		require.NoError(t, err)
		assert.Equal(t, a.RankID, b.RankID)
	})
}

func TestResolveRank_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ranks := append(goldSilverRanks(), testRanks()[1:]...)
	tier := func(pv decimal.Decimal, legs []decimal.Decimal) int {
		res, err := ResolveRank("A", pv, legs, ranks)
		require.NoError(t, err)
		return res.Tier
	}

	for i := 0; i < 500; i++ {
		pv := decimal.NewFromInt(rng.Int63n(500))
		legs := make([]decimal.Decimal, rng.Intn(4))
		for j := range legs {
			legs[j] = decimal.NewFromInt(rng.Int63n(15000))
		}
		base := tier(pv, legs)

		bump := decimal.NewFromInt(rng.Int63n(5000) + 1)
		assert.GreaterOrEqual(t, tier(pv.Add(bump), legs), base)

		if len(legs) > 0 {
			raised := append([]decimal.Decimal(nil), legs...)
			k := rng.Intn(len(raised))
			raised[k] = raised[k].Add(bump)
			assert.GreaterOrEqual(t, tier(pv, raised), base)
		}
		assert.GreaterOrEqual(t, tier(pv, append(append([]decimal.Decimal(nil), legs...), bump)), base)
	}
}

func TestRankService_Resolve(t *testing.T) {
	f := newFixture(t)
	f.seedPlan()
	f.join("A", "")
	f.join("B", "A")
	f.join("C", "A")
	f.join("B1", "B")

	f.volume("A", "150", march)
	f.volume("B1", "700", march)
	f.volume("C", "600", march)
	// outside the March window
	f.volume("C", "5000", march.AddDate(0, -1, 0))

	res, err := f.engine.GetRank(f.ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, models.RankGold, res.RankID)
	decimalEqual(t, "1300", res.GV)
	decimalEqual(t, "1100", res.CappedGV)

	allTime, err := f.engine.Ranks.Resolve(f.ctx, "A", models.AllTime, AsOfAllTime)
	require.NoError(t, err)
	decimalEqual(t, "6300", allTime.GV)

	_, err = f.engine.GetRank(f.ctx, "ghost")
	assert.ErrorIs(t, err, ErrAccountNotInTree)
}
