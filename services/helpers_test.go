package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories/memory"
)

var march = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	engine *Engine
	notes  *spyNotifier
	clock  time.Time
}

type note struct {
	accountIDs []string
	code       string
}

type spyNotifier struct {
	mu     sync.Mutex
	notes  []note
	emails []string
}

func (s *spyNotifier) Notify(accountIDs []string, code string, _ map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note{accountIDs: accountIDs, code: code})
}

func (s *spyNotifier) QueueEmail(emailType string, _ map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, emailType)
}

func (s *spyNotifier) codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.code
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		notes: &spyNotifier{},
		clock: march,
	}
	f.engine = NewEngine(store.Repositories(), f.notes)
	f.engine.SetClock(func() time.Time { return f.clock })
	return f
}

func testRanks() []models.Rank {
	return []models.Rank{
		{
			ID: models.RankGold, Name: "Gold",
			PVRequirement: d("100"), GVRequirement: d("1000"), LegCapPercent: d("50"),
			MinEligibleLevel: 1, MaxEligibleLevel: 2,
			BonusRate: d("1"), GroupBonusRate: d("2"), CompanyBonusRate: d("0"),
		},
		{
			ID: models.RankPlatinum, Name: "Platinum",
			PVRequirement: d("200"), GVRequirement: d("5000"), LegCapPercent: d("50"),
			MinEligibleLevel: 1, MaxEligibleLevel: 4,
			BonusRate: d("1"), GroupBonusRate: d("3"), CompanyBonusRate: d("0"),
		},
		{
			ID: models.RankDiamond, Name: "Diamond",
			PVRequirement: d("300"), GVRequirement: d("10000"), LegCapPercent: d("50"),
			MinEligibleLevel: 1, MaxEligibleLevel: 5,
			BonusRate: d("1"), GroupBonusRate: d("4"), CompanyBonusRate: d("1"),
		},
	}
}

func testLevelRates() []models.LevelRate {
	return []models.LevelRate{
		{Level: 1, Rate: d("10")},
		{Level: 2, Rate: d("5")},
		{Level: 3, Rate: d("3")},
		{Level: 4, Rate: d("2")},
		{Level: 5, Rate: d("1")},
	}
}

func (f *fixture) seedPlan() {
	f.t.Helper()
	_, err := f.engine.Plan.Replace(f.ctx, models.Plan{Ranks: testRanks(), LevelRates: testLevelRates()})
	require.NoError(f.t, err)
}

// join creates an active member account and places it under referrer.
func (f *fixture) join(id, referrer string) {
	f.t.Helper()
	f.store.PutAccount(models.Account{ID: id, Role: models.AccountRoleMember, Status: models.AccountStatusActive})
	require.NoError(f.t, f.engine.AddMember(f.ctx, id, referrer))
}

func (f *fixture) volume(id, amount string, at time.Time) {
	f.t.Helper()
	require.NoError(f.t, f.engine.Volumes.RecordVolume(f.ctx, id, d(amount), at, ""))
}

func (f *fixture) sell(ref, id, amount string, at time.Time) []models.CommissionRecord {
	f.t.Helper()
	records, err := f.engine.OnSaleCompleted(f.ctx, models.Sale{
		Reference: ref,
		AccountID: id,
		Amount:    d(amount),
		Type:      models.CommissionTypePackage,
		At:        at,
	})
	require.NoError(f.t, err)
	return records
}

func (f *fixture) balance(id string) decimal.Decimal {
	f.t.Helper()
	w, _, err := f.engine.Wallet(f.ctx, id, 0)
	require.NoError(f.t, err)
	return w.Balance
}

func decimalEqual(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
