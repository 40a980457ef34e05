package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

type volumeRepo struct{ s *Store }

func (r volumeRepo) Insert(_ context.Context, entry *models.VolumeEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("volumes.Insert"); err != nil {
		return err
	}
	if entry.SaleReference != "" {
		for _, v := range r.s.state.volumes {
			if v.SaleReference == entry.SaleReference {
				return repositories.ErrDuplicateKey
			}
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	r.s.state.volumes = append(r.s.state.volumes, *entry)
	return nil
}

func (r volumeRepo) Sum(_ context.Context, accountIDs []string, window models.Window) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		ids[id] = true
	}
	total := decimal.Zero
	for _, v := range r.s.state.volumes {
		if ids[v.AccountID] && window.Contains(v.CreatedAt) {
			total = total.Add(v.Amount)
		}
	}
	return total, nil
}

func (r volumeRepo) SumAll(_ context.Context, window models.Window) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, v := range r.s.state.volumes {
		if window.Contains(v.CreatedAt) {
			total = total.Add(v.Amount)
		}
	}
	return total, nil
}

type planRepo struct{ s *Store }

func (r planRepo) Ranks(_ context.Context) ([]models.Rank, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.Rank(nil), r.s.state.ranks...), nil
}

func (r planRepo) LevelRates(_ context.Context) ([]models.LevelRate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rates := append([]models.LevelRate(nil), r.s.state.levelRates...)
	sort.Slice(rates, func(i, j int) bool { return rates[i].Level < rates[j].Level })
	return rates, nil
}

func (r planRepo) ReplacePlan(_ context.Context, plan models.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.ranks = append([]models.Rank(nil), plan.Ranks...)
	r.s.state.levelRates = append([]models.LevelRate(nil), plan.LevelRates...)
	return nil
}

type commissionRepo struct{ s *Store }

func (r commissionRepo) InsertMany(_ context.Context, records []*models.CommissionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("commissions.InsertMany"); err != nil {
		return err
	}
	type key struct {
		ref, beneficiary string
		level            int
	}
	seen := make(map[key]bool)
	for _, c := range r.s.state.commissions {
		seen[key{c.SaleReference, c.BeneficiaryID, c.Level}] = true
	}
	for _, rec := range records {
		k := key{rec.SaleReference, rec.BeneficiaryID, rec.Level}
		if seen[k] {
			return repositories.ErrDuplicateKey
		}
		seen[k] = true
	}
	for _, rec := range records {
		if rec.ID.IsZero() {
			rec.ID = primitive.NewObjectID()
		}
		r.s.state.commissions = append(r.s.state.commissions, *rec)
	}
	return nil
}

func (r commissionRepo) FindBySale(_ context.Context, saleReference string) ([]models.CommissionRecord, error) {
	return r.filter(func(c models.CommissionRecord) bool {
		return c.SaleReference == saleReference
	}, func(a, b models.CommissionRecord) bool { return a.Level < b.Level }), nil
}

func (r commissionRepo) ListByBeneficiary(_ context.Context, beneficiaryID, status string, limit int64) ([]models.CommissionRecord, error) {
	out := r.filter(func(c models.CommissionRecord) bool {
		return c.BeneficiaryID == beneficiaryID && (status == "" || c.Status == status)
	}, func(a, b models.CommissionRecord) bool { return a.CreatedAt.After(b.CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r commissionRepo) OnHoldBeneficiaries(_ context.Context, before time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, c := range r.s.state.commissions {
		if c.Status == models.CommissionOnHold && c.CreatedAt.Before(before) && !seen[c.BeneficiaryID] {
			seen[c.BeneficiaryID] = true
			ids = append(ids, c.BeneficiaryID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r commissionRepo) ListOnHold(_ context.Context, beneficiaryID string, before time.Time) ([]models.CommissionRecord, error) {
	return r.filter(func(c models.CommissionRecord) bool {
		return c.BeneficiaryID == beneficiaryID && c.Status == models.CommissionOnHold && c.CreatedAt.Before(before)
	}, func(a, b models.CommissionRecord) bool { return a.CreatedAt.Before(b.CreatedAt) }), nil
}

func (r commissionRepo) MarkReleased(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("commissions.MarkReleased"); err != nil {
		return false, err
	}
	for i := range r.s.state.commissions {
		c := &r.s.state.commissions[i]
		if c.ID == id && c.Status == models.CommissionOnHold {
			released := at
			c.Status = models.CommissionReleased
			c.ReleasedAt = &released
			return true, nil
		}
	}
	return false, nil
}

func (r commissionRepo) VoidOnHoldBefore(_ context.Context, cutoff, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.state.commissions {
		c := &r.s.state.commissions[i]
		if c.Status == models.CommissionOnHold && c.CreatedAt.Before(cutoff) {
			voided := at
			c.Status = models.CommissionVoid
			c.VoidedAt = &voided
			n++
		}
	}
	return n, nil
}

func (r commissionRepo) filter(keep func(models.CommissionRecord) bool, less func(a, b models.CommissionRecord) bool) []models.CommissionRecord {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.CommissionRecord
	for _, c := range r.s.state.commissions {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Commissions returns a copy of every commission record.
func (s *Store) Commissions() []models.CommissionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CommissionRecord(nil), s.state.commissions...)
}

type snapshotRepo struct{ s *Store }

func (r snapshotRepo) UpsertCurrent(_ context.Context, snap models.RankSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("snapshots.UpsertCurrent"); err != nil {
		return err
	}
	r.s.state.current[snap.AccountID] = snap
	return nil
}

func (r snapshotRepo) UpsertMonthly(_ context.Context, snap models.MonthlySnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.monthly[snap.AccountID+"|"+snap.Period] = snap
	return nil
}

func (r snapshotRepo) Current(_ context.Context, accountID string) (models.RankSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.state.current[accountID]
	if !ok {
		return models.RankSnapshot{}, repositories.ErrNotFound
	}
	return snap, nil
}

func (r snapshotRepo) MonthlyByRanks(_ context.Context, period string, rankIDs []string) ([]models.MonthlySnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(rankIDs))
	for _, id := range rankIDs {
		wanted[id] = true
	}
	var out []models.MonthlySnapshot
	for _, snap := range r.s.state.monthly {
		if snap.Period == period && wanted[snap.RankID] {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

type walletRepo struct{ s *Store }

func (r walletRepo) Credit(_ context.Context, accountID string, amount decimal.Decimal, entry models.WalletLedgerEntry) (models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("wallets.Credit"); err != nil {
		return models.Wallet{}, err
	}
	now := time.Now().UTC()
	w, ok := r.s.state.wallets[accountID]
	if !ok {
		w = models.Wallet{AccountID: accountID, Balance: decimal.Zero}
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = now
	r.s.state.wallets[accountID] = w

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.WalletID = accountID
	entry.AmountDelta = amount
	if entry.Type == "" {
		entry.Type = models.LedgerIn
	}
	if entry.Status == "" {
		entry.Status = models.LedgerStatusCompleted
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	r.s.state.ledger = append(r.s.state.ledger, entry)
	return w, nil
}

func (r walletRepo) Get(_ context.Context, accountID string) (models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.state.wallets[accountID]
	if !ok {
		return models.Wallet{AccountID: accountID, Balance: decimal.Zero}, nil
	}
	return w, nil
}

func (r walletRepo) Entries(_ context.Context, accountID string, limit int64) ([]models.WalletLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.WalletLedgerEntry
	for i := len(r.s.state.ledger) - 1; i >= 0; i-- {
		e := r.s.state.ledger[i]
		if e.WalletID == accountID {
			out = append(out, e)
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

type bonusRepo struct{ s *Store }

func (r bonusRepo) Insert(_ context.Context, payout *models.BonusPayout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.state.bonuses {
		if b.AccountID == payout.AccountID && b.Period == payout.Period && b.BonusType == payout.BonusType {
			return repositories.ErrDuplicateKey
		}
	}
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	r.s.state.bonuses = append(r.s.state.bonuses, *payout)
	return nil
}

func (r bonusRepo) ListByPeriod(_ context.Context, period string) ([]models.BonusPayout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.BonusPayout
	for _, b := range r.s.state.bonuses {
		if b.Period == period {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BonusType != out[j].BonusType {
			return out[i].BonusType < out[j].BonusType
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}

// Ledger returns a copy of every wallet ledger entry.
func (s *Store) Ledger() []models.WalletLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WalletLedgerEntry(nil), s.state.ledger...)
}
