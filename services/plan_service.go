package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

// CompensationPlan is a validated plan ready for evaluation. Ranks are kept
// in evaluation order.
type CompensationPlan struct {
	Ranks      []models.Rank
	LevelRates map[int]decimal.Decimal
}

// LevelRate returns the base percent for level.
func (p CompensationPlan) LevelRate(level int) (decimal.Decimal, bool) {
	rate, ok := p.LevelRates[level]
	return rate, ok
}

// Rank looks up a rank by id.
func (p CompensationPlan) Rank(id string) (models.Rank, bool) {
	for _, r := range p.Ranks {
		if r.ID == id {
			return r, true
		}
	}
	return models.Rank{}, false
}

// PlanService loads and validates the admin-managed compensation plan
type PlanService struct {
	tx   repositories.Transactor
	repo repositories.PlanRepository
}

func NewPlanService(tx repositories.Transactor, repo repositories.PlanRepository) *PlanService {
	return &PlanService{tx: tx, repo: repo}
}

// Ranks loads the rank table in evaluation order.
func (s *PlanService) Ranks(ctx context.Context) ([]models.Rank, error) {
	ranks, err := s.repo.Ranks(ctx)
	if err != nil {
		return nil, err
	}
	return validateRanks(ranks)
}

// Load returns the full plan or a ConfigurationError.
func (s *PlanService) Load(ctx context.Context) (CompensationPlan, error) {
	ranks, err := s.Ranks(ctx)
	if err != nil {
		return CompensationPlan{}, err
	}
	rates, err := s.repo.LevelRates(ctx)
	if err != nil {
		return CompensationPlan{}, err
	}
	return buildPlan(ranks, rates)
}

// Replace validates plan and swaps it in atomically.
func (s *PlanService) Replace(ctx context.Context, plan models.Plan) (CompensationPlan, error) {
	ranks, err := validateRanks(plan.Ranks)
	if err != nil {
		return CompensationPlan{}, err
	}
	compiled, err := buildPlan(ranks, plan.LevelRates)
	if err != nil {
		return CompensationPlan{}, err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.repo.ReplacePlan(ctx, plan)
	})
	if err != nil {
		return CompensationPlan{}, err
	}
	return compiled, nil
}

// Export returns the stored plan as-is.
func (s *PlanService) Export(ctx context.Context) (models.Plan, error) {
	ranks, err := s.repo.Ranks(ctx)
	if err != nil {
		return models.Plan{}, err
	}
	rates, err := s.repo.LevelRates(ctx)
	if err != nil {
		return models.Plan{}, err
	}
	return models.Plan{Ranks: models.SortRanks(ranks), LevelRates: rates}, nil
}

func validateRanks(ranks []models.Rank) ([]models.Rank, error) {
	if len(ranks) == 0 {
		return nil, &ConfigurationError{Reason: "rank table is empty"}
	}
	seen := make(map[string]bool, len(ranks))
	for _, r := range ranks {
		if _, err := models.NewRank(r); err != nil {
			return nil, &ConfigurationError{Reason: "invalid rank", Err: err}
		}
		if seen[r.ID] {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate rank %q", r.ID)}
		}
		seen[r.ID] = true
	}
	return models.SortRanks(ranks), nil
}

// buildPlan requires a rate for every commission level and rejects plans
// whose worst-case payout on one sale would exceed the sale amount.
func buildPlan(ranks []models.Rank, rates []models.LevelRate) (CompensationPlan, error) {
	plan := CompensationPlan{Ranks: ranks, LevelRates: make(map[int]decimal.Decimal, len(rates))}
	for _, lr := range rates {
		if err := models.Validator().Struct(lr); err != nil {
			return CompensationPlan{}, &ConfigurationError{Reason: fmt.Sprintf("invalid rate for level %d", lr.Level), Err: err}
		}
		if _, dup := plan.LevelRates[lr.Level]; dup {
			return CompensationPlan{}, &ConfigurationError{Reason: fmt.Sprintf("duplicate rate for level %d", lr.Level)}
		}
		plan.LevelRates[lr.Level] = lr.Rate
	}

	maxBonus := decimal.Zero
	for _, r := range ranks {
		maxBonus = decimal.Max(maxBonus, r.GroupBonusRate)
	}
	total := decimal.Zero
	for level := 1; level <= models.MaxCommissionLevel; level++ {
		rate, ok := plan.LevelRates[level]
		if !ok {
			return CompensationPlan{}, &ConfigurationError{Reason: fmt.Sprintf("missing rate for level %d", level)}
		}
		total = total.Add(rate).Add(maxBonus)
	}
	if total.GreaterThan(decimal.NewFromInt(100)) {
		return CompensationPlan{}, &ConfigurationError{Reason: fmt.Sprintf("commission rates may pay %s%% of a sale", total.String())}
	}
	return plan, nil
}
