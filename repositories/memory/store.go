// Package memory is an in-process implementation of the repository
// interfaces. It backs tests and STORAGE=memory local runs.
package memory

import (
	"context"
	"sync"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

type txKey struct{}

// Store keeps every collection in memory. Transactions are serialised and
// rolled back by restoring a copy of the state taken when they began.
type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	state  state
	faults map[string]error
}

type state struct {
	accounts    map[string]models.Account
	edges       []models.TreeEdge
	volumes     []models.VolumeEntry
	ranks       []models.Rank
	levelRates  []models.LevelRate
	commissions []models.CommissionRecord
	current     map[string]models.RankSnapshot
	monthly     map[string]models.RankSnapshot
	wallets     map[string]models.Wallet
	ledger      []models.WalletLedgerEntry
	bonuses     []models.BonusPayout
}

func NewStore() *Store {
	return &Store{
		state: state{
			accounts: make(map[string]models.Account),
			current:  make(map[string]models.RankSnapshot),
			monthly:  make(map[string]models.RankSnapshot),
			wallets:  make(map[string]models.Wallet),
		},
		faults: make(map[string]error),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Tx:          s,
		Accounts:    accountRepo{s},
		Tree:        treeRepo{s},
		Volumes:     volumeRepo{s},
		Plan:        planRepo{s},
		Commissions: commissionRepo{s},
		Snapshots:   snapshotRepo{s},
		Wallets:     walletRepo{s},
		Bonuses:     bonusRepo{s},
	}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.state.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.state = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// PutAccount seeds the account directory.
func (s *Store) PutAccount(a models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.accounts[a.ID] = a
}

// FailNext makes the next call of op (for example "wallets.Credit") return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault must be called with mu held.
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

func (st state) clone() state {
	c := state{
		accounts:    make(map[string]models.Account, len(st.accounts)),
		edges:       append([]models.TreeEdge(nil), st.edges...),
		volumes:     append([]models.VolumeEntry(nil), st.volumes...),
		ranks:       append([]models.Rank(nil), st.ranks...),
		levelRates:  append([]models.LevelRate(nil), st.levelRates...),
		commissions: append([]models.CommissionRecord(nil), st.commissions...),
		current:     make(map[string]models.RankSnapshot, len(st.current)),
		monthly:     make(map[string]models.RankSnapshot, len(st.monthly)),
		wallets:     make(map[string]models.Wallet, len(st.wallets)),
		ledger:      append([]models.WalletLedgerEntry(nil), st.ledger...),
		bonuses:     append([]models.BonusPayout(nil), st.bonuses...),
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.current {
		c.current[k] = v
	}
	for k, v := range st.monthly {
		c.monthly[k] = v
	}
	for k, v := range st.wallets {
		c.wallets[k] = v
	}
	return c
}
