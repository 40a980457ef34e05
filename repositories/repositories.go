package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/barrim_network/models"
)

var (
	// ErrNotFound is returned when a lookup by key matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Collection names.
const (
	AccountsCollection         = "accounts"
	TreeEdgesCollection        = "tree_edges"
	VolumeEntriesCollection    = "volume_entries"
	RanksCollection            = "ranks"
	LevelRatesCollection       = "level_rates"
	CommissionsCollection      = "commissions"
	RankSnapshotsCollection    = "rank_snapshots"
	MonthlySnapshotsCollection = "monthly_snapshots"
	WalletsCollection          = "wallets"
	WalletLedgerCollection     = "wallet_ledger"
	BonusPayoutsCollection     = "bonus_payouts"
)

// Transactor runs fn atomically. Repository calls made with the ctx handed
// to fn join the transaction; nested calls reuse the outer one.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (models.Account, error)
}

type TreeRepository interface {
	// EdgesTo returns every edge ending at descendantID, self edge included.
	EdgesTo(ctx context.Context, descendantID string) ([]models.TreeEdge, error)
	InsertEdges(ctx context.Context, edges []models.TreeEdge) error
	HasMember(ctx context.Context, id string) (bool, error)
	// Ancestors returns edges with 0 < depth <= maxDepth, nearest first.
	Ancestors(ctx context.Context, id string, maxDepth int) ([]models.TreeEdge, error)
	// Descendants returns edges with depth <= maxDepth, nearest first.
	Descendants(ctx context.Context, id string, maxDepth int) ([]models.TreeEdge, error)
	Members(ctx context.Context) ([]string, error)
}

type VolumeRepository interface {
	Insert(ctx context.Context, entry *models.VolumeEntry) error
	Sum(ctx context.Context, accountIDs []string, window models.Window) (decimal.Decimal, error)
	SumAll(ctx context.Context, window models.Window) (decimal.Decimal, error)
}

type PlanRepository interface {
	Ranks(ctx context.Context) ([]models.Rank, error)
	LevelRates(ctx context.Context) ([]models.LevelRate, error)
	ReplacePlan(ctx context.Context, plan models.Plan) error
}

type CommissionRepository interface {
	InsertMany(ctx context.Context, records []*models.CommissionRecord) error
	FindBySale(ctx context.Context, saleReference string) ([]models.CommissionRecord, error)
	ListByBeneficiary(ctx context.Context, beneficiaryID, status string, limit int64) ([]models.CommissionRecord, error)
	// OnHoldBeneficiaries lists accounts owning on_hold records created before.
	OnHoldBeneficiaries(ctx context.Context, before time.Time) ([]string, error)
	ListOnHold(ctx context.Context, beneficiaryID string, before time.Time) ([]models.CommissionRecord, error)
	// MarkReleased moves one record on_hold -> released. False means the
	// record was no longer on hold.
	MarkReleased(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	// VoidOnHoldBefore moves every on_hold record created before cutoff to void.
	VoidOnHoldBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
}

type SnapshotRepository interface {
	UpsertCurrent(ctx context.Context, s models.RankSnapshot) error
	UpsertMonthly(ctx context.Context, s models.MonthlySnapshot) error
	Current(ctx context.Context, accountID string) (models.RankSnapshot, error)
	MonthlyByRanks(ctx context.Context, period string, rankIDs []string) ([]models.MonthlySnapshot, error)
}

type WalletRepository interface {
	// Credit adds amount to the wallet and appends entry, creating the wallet
	// on first use.
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, entry models.WalletLedgerEntry) (models.Wallet, error)
	Get(ctx context.Context, accountID string) (models.Wallet, error)
	Entries(ctx context.Context, accountID string, limit int64) ([]models.WalletLedgerEntry, error)
}

type BonusRepository interface {
	Insert(ctx context.Context, payout *models.BonusPayout) error
	ListByPeriod(ctx context.Context, period string) ([]models.BonusPayout, error)
}

// Repositories bundles every store the engine depends on.
type Repositories struct {
	Tx          Transactor
	Accounts    AccountRepository
	Tree        TreeRepository
	Volumes     VolumeRepository
	Plan        PlanRepository
	Commissions CommissionRepository
	Snapshots   SnapshotRepository
	Wallets     WalletRepository
	Bonuses     BonusRepository
}
