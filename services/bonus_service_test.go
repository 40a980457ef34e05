package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/models"
)

func bonusNetwork(t *testing.T) *fixture {
	f := newFixture(t)
	f.seedPlan()

	f.join("G", "")
	f.join("G1", "G")
	f.join("G2", "G")
	f.volume("G", "150", february)
	f.volume("G1", "700", february)
	f.volume("G2", "600", february)

	f.join("D", "")
	f.join("D1", "D")
	f.join("D2", "D")
	f.volume("D", "400", february)
	f.volume("D1", "6000", february)
	f.volume("D2", "5000", february)

	f.join("E", "")
	f.join("E1", "E")
	f.join("E2", "E")
	f.volume("E", "300", february)
	f.volume("E1", "10000", february)
	f.volume("E2", "5000", february)

	_, err := f.engine.RunRankSnapshot(f.ctx, models.PeriodOf(february))
	require.NoError(t, err)
	return f
}

func TestBonusDistribution(t *testing.T) {
	f := bonusNetwork(t)
	period := models.PeriodOf(february)

	results, err := f.engine.RunBonusDistribution(f.ctx, period)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "bonus_distribution:gold", results[0].Job)
	assert.Equal(t, 1, results[0].Affected)
	assert.Equal(t, "bonus_distribution:platinum", results[1].Job)
	assert.Zero(t, results[1].Processed)
	assert.Equal(t, "bonus_distribution:diamond", results[2].Job)
	assert.Equal(t, 2, results[2].Processed)
	assert.Equal(t, 4, results[2].Affected)

	payouts, err := f.engine.BonusPayouts(f.ctx, period)
	require.NoError(t, err)
	amounts := make(map[string]string)
	for _, p := range payouts {
		amounts[p.AccountID+"/"+p.BonusType] = p.Amount.StringFixed(2)
	}
	assert.Equal(t, map[string]string{
		"G/" + models.BonusGoldGroup:      "26.00",
		"D/" + models.BonusDiamondGroup:   "440.00",
		"E/" + models.BonusDiamondGroup:   "600.00",
		"D/" + models.BonusDiamondCompany: "119.10",
		"E/" + models.BonusDiamondCompany: "162.40",
	}, amounts)

	decimalEqual(t, "26", f.balance("G"))
	decimalEqual(t, "559.10", f.balance("D"))
	decimalEqual(t, "762.40", f.balance("E"))
	assert.Contains(t, f.notes.codes(), NotifyBonusPaid)
	assert.Contains(t, f.notes.emails, EmailBonusRunSummary)

	t.Run("re-running pays nothing twice", func(t *testing.T) {
		results, err := f.engine.RunBonusDistribution(f.ctx, period)
		require.NoError(t, err)
		for _, r := range results {
			assert.Zero(t, r.Affected, r.Job)
			assert.Zero(t, r.Failed, r.Job)
		}
		decimalEqual(t, "559.10", f.balance("D"))
		payouts, err := f.engine.BonusPayouts(f.ctx, period)
		require.NoError(t, err)
		assert.Len(t, payouts, 5)
	})
}

func TestBonusDistribution_NoSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seedPlan()
	f.join("A", "")

	results, err := f.engine.RunBonusDistribution(f.ctx, models.PeriodOf(february))
	require.NoError(t, err)
	for _, r := range results {
		assert.Zero(t, r.Processed)
	}
	assert.Empty(t, f.store.Ledger())
}

func TestBonusDistribution_NeedsPlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RunBonusDistribution(f.ctx, models.PeriodOf(february))
	assert.True(t, IsConfigurationError(err))
}
