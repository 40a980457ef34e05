package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
	"github.com/HSouheill/barrim_network/utils"
)

// errSaleReplayed aborts the transaction of a sale whose reference was
// already processed; the caller then returns the stored records.
var errSaleReplayed = errors.New("sale already processed")

// CommissionService computes and records multi-level commissions for sales
type CommissionService struct {
	repos    *repositories.Repositories
	tree     *TreeService
	volumes  *VolumeService
	ranks    *RankService
	plan     *PlanService
	notifier Notifier
	now      func() time.Time
}

func NewCommissionService(repos *repositories.Repositories, tree *TreeService, volumes *VolumeService, ranks *RankService, plan *PlanService, notifier Notifier) *CommissionService {
	return &CommissionService{
		repos:    repos,
		tree:     tree,
		volumes:  volumes,
		ranks:    ranks,
		plan:     plan,
		notifier: notifier,
		now:      time.Now,
	}
}

// OnSaleCompleted records the seller's volume and pays the upline, all in
// one transaction. Replaying a sale reference returns the first result.
func (s *CommissionService) OnSaleCompleted(ctx context.Context, sale models.Sale) ([]models.CommissionRecord, error) {
	sale, err := s.normalize(sale)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan.Load(ctx)
	if err != nil {
		return nil, err
	}

	var records []*models.CommissionRecord
	err = s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.volumes.RecordVolume(ctx, sale.AccountID, sale.Amount, sale.At, sale.Reference); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return errSaleReplayed
			}
			return err
		}
		records, err = s.computeInTx(ctx, sale, plan)
		return err
	})
	return s.finish(ctx, sale, records, err)
}

// ComputeCommission pays every upline up to MaxCommissionLevel for sale.
// Either all records of the sale (and the wallet credits of the released
// ones) commit, or none do.
func (s *CommissionService) ComputeCommission(ctx context.Context, sale models.Sale) ([]models.CommissionRecord, error) {
	sale, err := s.normalize(sale)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan.Load(ctx)
	if err != nil {
		return nil, err
	}

	var records []*models.CommissionRecord
	err = s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repos.Commissions.FindBySale(ctx, sale.Reference)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errSaleReplayed
		}
		records, err = s.computeInTx(ctx, sale, plan)
		return err
	})
	return s.finish(ctx, sale, records, err)
}

func (s *CommissionService) computeInTx(ctx context.Context, sale models.Sale, plan CompensationPlan) ([]*models.CommissionRecord, error) {
	uplines, err := s.tree.GetUplines(ctx, sale.AccountID, models.MaxCommissionLevel)
	if err != nil {
		return nil, err
	}

	window := models.PeriodOf(sale.At).Window()
	records := make([]*models.CommissionRecord, 0, len(uplines))
	for _, upline := range uplines {
		level := upline.Depth
		levelRate, ok := plan.LevelRate(level)
		if !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("missing rate for level %d", level)}
		}
		rank, err := s.ranks.ResolveWithRanks(ctx, upline.AncestorID, window, plan.Ranks)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve rank of %s: %w", upline.AncestorID, err)
		}

		rate := levelRate.Add(rank.BonusRate)
		rec := &models.CommissionRecord{
			BeneficiaryID:   upline.AncestorID,
			SourceAccountID: sale.AccountID,
			SaleReference:   sale.Reference,
			Level:           level,
			SaleAmount:      sale.Amount,
			Rate:            rate,
			Amount:          utils.PercentOf(sale.Amount, rate),
			Type:            sale.Type,
			Status:          models.CommissionReleased,
			RankID:          rank.RankID,
			CreatedAt:       sale.At,
			ReleasedAt:      &sale.At,
		}
		if !rank.CoversLevel(level) {
			rec.Status = models.CommissionOnHold
			rec.ReleasedAt = nil
		}
		records = append(records, rec)
	}

	if err := s.repos.Commissions.InsertMany(ctx, records); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, errSaleReplayed
		}
		return nil, err
	}

	for _, rec := range records {
		if rec.Status != models.CommissionReleased {
			continue
		}
		if err := s.credit(ctx, rec); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *CommissionService) credit(ctx context.Context, rec *models.CommissionRecord) error {
	if !rec.Amount.IsPositive() {
		return nil
	}
	_, err := s.repos.Wallets.Credit(ctx, rec.BeneficiaryID, rec.Amount, models.WalletLedgerEntry{
		Type:      models.LedgerIn,
		Source:    models.LedgerSourceCommission,
		Reference: rec.ID.Hex(),
	})
	if err != nil {
		return fmt.Errorf("failed to credit wallet of %s: %w", rec.BeneficiaryID, err)
	}
	return nil
}

// finish handles replays and emits notifications once the transaction has
// committed.
func (s *CommissionService) finish(ctx context.Context, sale models.Sale, records []*models.CommissionRecord, err error) ([]models.CommissionRecord, error) {
	if errors.Is(err, errSaleReplayed) {
		log.Printf("Sale %s already processed, returning stored commissions", sale.Reference)
		return s.repos.Commissions.FindBySale(ctx, sale.Reference)
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.CommissionRecord, len(records))
	var paid, held []string
	for i, rec := range records {
		out[i] = *rec
		commissionRecords.WithLabelValues(rec.Status).Inc()
		if rec.Status == models.CommissionReleased {
			paid = append(paid, rec.BeneficiaryID)
			walletCredits.WithLabelValues(models.LedgerSourceCommission).Add(rec.Amount.InexactFloat64())
		} else {
			held = append(held, rec.BeneficiaryID)
		}
	}
	payload := map[string]interface{}{
		"saleReference": sale.Reference,
		"sourceAccount": sale.AccountID,
		"type":          sale.Type,
	}
	if len(paid) > 0 {
		s.notifier.Notify(paid, NotifyCommissionPaid, payload)
	}
	if len(held) > 0 {
		s.notifier.Notify(held, NotifyCommissionOnHold, payload)
	}
	return out, nil
}

func (s *CommissionService) normalize(sale models.Sale) (models.Sale, error) {
	if err := models.Validator().Struct(sale); err != nil {
		return sale, fmt.Errorf("%w: %v", ErrInvalidSale, err)
	}
	if sale.Reference == "" {
		sale.Reference = uuid.NewString()
		log.Printf("Warning: sale for %s has no reference, generated %s; replays cannot be detected", sale.AccountID, sale.Reference)
	}
	if sale.At.IsZero() {
		sale.At = s.now()
	}
	sale.At = sale.At.UTC()
	sale.Amount = utils.RoundMoney(sale.Amount)
	return sale, nil
}

// TotalAmount sums the amounts of records.
func TotalAmount(records []models.CommissionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
