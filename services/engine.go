package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

// Engine is the entry point of the network tree and commission engine. HTTP
// handlers, queue workers and the CLI all go through it.
type Engine struct {
	repos       *repositories.Repositories
	Tree        *TreeService
	Volumes     *VolumeService
	Plan        *PlanService
	Ranks       *RankService
	Commissions *CommissionService
	Ledger      *LedgerService
	Snapshots   *SnapshotService
	Bonuses     *BonusService
	notifier    Notifier
	now         func() time.Time
}

// NewEngine wires every service on top of repos. A nil notifier drops
// notifications.
func NewEngine(repos *repositories.Repositories, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	tree := NewTreeService(repos.Tx, repos.Tree, repos.Accounts)
	volumes := NewVolumeService(repos.Volumes, tree)
	plan := NewPlanService(repos.Tx, repos.Plan)
	ranks := NewRankService(plan, volumes)

	return &Engine{
		repos:       repos,
		Tree:        tree,
		Volumes:     volumes,
		Plan:        plan,
		Ranks:       ranks,
		Commissions: NewCommissionService(repos, tree, volumes, ranks, plan, notifier),
		Ledger:      NewLedgerService(repos, notifier),
		Snapshots:   NewSnapshotService(repos, tree, ranks, plan),
		Bonuses:     NewBonusService(repos, volumes, plan, notifier),
		notifier:    notifier,
		now:         time.Now,
	}
}

// SetClock replaces the time source of the engine and its services.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	e.Commissions.now = now
	e.Ledger.now = now
	e.Snapshots.now = now
	e.Bonuses.now = now
}

// AddMember places accountID under referrerID. It returns once the edges are
// committed.
func (e *Engine) AddMember(ctx context.Context, accountID, referrerID string) error {
	if err := e.Tree.AddMember(ctx, accountID, referrerID); err != nil {
		return err
	}
	if referrerID != "" {
		e.notifier.Notify([]string{referrerID}, NotifyMemberJoined, map[string]interface{}{
			"accountId": accountID,
		})
	}
	return nil
}

func (e *Engine) ComputeCommission(ctx context.Context, sale models.Sale) ([]models.CommissionRecord, error) {
	return e.Commissions.ComputeCommission(ctx, sale)
}

func (e *Engine) OnSaleCompleted(ctx context.Context, sale models.Sale) ([]models.CommissionRecord, error) {
	return e.Commissions.OnSaleCompleted(ctx, sale)
}

func (e *Engine) RunRankSnapshot(ctx context.Context, period models.Period) (models.BatchResult, error) {
	return e.Snapshots.RunRankSnapshot(ctx, period)
}

func (e *Engine) ReleaseOnHoldCommissions(ctx context.Context, period models.Period) (models.BatchResult, error) {
	return e.Ledger.ReleaseOnHold(ctx, period)
}

func (e *Engine) VoidExpiredOnHold(ctx context.Context, period models.Period) (models.BatchResult, error) {
	return e.Ledger.VoidExpiredOnHold(ctx, period)
}

func (e *Engine) RunBonusDistribution(ctx context.Context, period models.Period) ([]models.BatchResult, error) {
	return e.Bonuses.RunBonusDistribution(ctx, period)
}

// GetRank resolves the live rank of accountID over the current period.
func (e *Engine) GetRank(ctx context.Context, accountID string) (models.RankResolution, error) {
	if err := e.Tree.requireMember(ctx, accountID); err != nil {
		return models.RankResolution{}, err
	}
	return e.Ranks.Resolve(ctx, accountID, models.PeriodOf(e.now()).Window(), AsOfWindowed)
}

// GetUplineChain returns every ancestor of accountID, nearest first.
func (e *Engine) GetUplineChain(ctx context.Context, accountID string) ([]models.TreeEdge, error) {
	return e.Tree.GetUplines(ctx, accountID, AllLevels)
}

// GetDownlines returns descendants down to maxDepth, without the account itself.
func (e *Engine) GetDownlines(ctx context.Context, accountID string, maxDepth int) ([]models.TreeEdge, error) {
	edges, err := e.Tree.GetDownlines(ctx, accountID, maxDepth)
	if err != nil {
		return nil, err
	}
	out := make([]models.TreeEdge, 0, len(edges))
	for _, edge := range edges {
		if edge.Depth > 0 {
			out = append(out, edge)
		}
	}
	return out, nil
}

// GetTeamVolume returns PV, per-leg volume and GV of accountID for period.
// A zero period means all time.
func (e *Engine) GetTeamVolume(ctx context.Context, accountID string, period models.Period) (models.TeamVolume, error) {
	window := models.AllTime
	if !period.IsZero() {
		window = period.Window()
	}
	pv, err := e.Volumes.PersonalVolume(ctx, accountID, window)
	if err != nil {
		return models.TeamVolume{}, err
	}
	legs, err := e.Volumes.LegVolumes(ctx, accountID, RankQualifyingDepth, window)
	if err != nil {
		return models.TeamVolume{}, err
	}
	gv := decimal.Zero
	for _, leg := range legs {
		gv = gv.Add(leg.Volume)
	}
	tv := models.TeamVolume{AccountID: accountID, PV: pv, GV: gv, Legs: legs}
	if !period.IsZero() {
		tv.Period = period.String()
	}
	return tv, nil
}

func (e *Engine) ListCommissions(ctx context.Context, accountID, status string, limit int64) ([]models.CommissionRecord, error) {
	return e.repos.Commissions.ListByBeneficiary(ctx, accountID, status, limit)
}

// Wallet returns the balance and the most recent ledger entries of accountID.
func (e *Engine) Wallet(ctx context.Context, accountID string, limit int64) (models.Wallet, []models.WalletLedgerEntry, error) {
	wallet, err := e.repos.Wallets.Get(ctx, accountID)
	if err != nil {
		return models.Wallet{}, nil, err
	}
	entries, err := e.repos.Wallets.Entries(ctx, accountID, limit)
	if err != nil {
		return models.Wallet{}, nil, err
	}
	return wallet, entries, nil
}

func (e *Engine) BonusPayouts(ctx context.Context, period models.Period) ([]models.BonusPayout, error) {
	return e.repos.Bonuses.ListByPeriod(ctx, period.String())
}
