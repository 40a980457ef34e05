package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
	"github.com/HSouheill/barrim_network/repositories/memory"
	"github.com/HSouheill/barrim_network/services"
)

var closedPeriod = models.Period{Year: 2025, Month: time.February}

type mailbox struct {
	mu     sync.Mutex
	emails []string
}

func (m *mailbox) Notify([]string, string, map[string]interface{}) {}

func (m *mailbox) QueueEmail(emailType string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, emailType)
}

func newTestEngine(t *testing.T, withPlan bool) (*services.Engine, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	engine := services.NewEngine(store.Repositories(), nil)

	for _, id := range []string{"A", "B"} {
		store.PutAccount(models.Account{ID: id, Role: models.AccountRoleMember, Status: models.AccountStatusActive})
	}
	require.NoError(t, engine.AddMember(ctx, "A", ""))
	require.NoError(t, engine.AddMember(ctx, "B", "A"))

	if withPlan {
		_, err := engine.Plan.Replace(ctx, models.Plan{
			Ranks: []models.Rank{{
				ID: models.RankGold, Name: "Gold",
				PVRequirement: decimal.NewFromInt(100), GVRequirement: decimal.NewFromInt(1000),
				LegCapPercent: decimal.NewFromInt(50), MinEligibleLevel: 1, MaxEligibleLevel: 2,
				GroupBonusRate: decimal.NewFromInt(2),
			}},
			LevelRates: []models.LevelRate{
				{Level: 1, Rate: decimal.NewFromInt(10)},
				{Level: 2, Rate: decimal.NewFromInt(5)},
				{Level: 3, Rate: decimal.NewFromInt(3)},
				{Level: 4, Rate: decimal.NewFromInt(2)},
				{Level: 5, Rate: decimal.NewFromInt(1)},
			},
		})
		require.NoError(t, err)
	}
	return engine, store
}

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialBackoff: time.Second, MaxBackoff: time.Minute, BackoffFactor: 2}
}

func drain(t *testing.T, q *MemoryQueue, w *Worker) []string {
	t.Helper()
	ctx := context.Background()
	var ran []string
	for {
		job, err := q.Dequeue(ctx, 10*time.Millisecond)
		if errors.Is(err, ErrNoJob) {
			return ran
		}
		require.NoError(t, err)
		ran = append(ran, job.Type)
		require.NoError(t, w.Process(ctx, job))
	}
}

func TestWorker_RunsMonthlyChainInOrder(t *testing.T) {
	engine, _ := newTestEngine(t, true)
	q := NewMemoryQueue()
	w := NewWorker(q, engine, testPolicy(3), 1, nil)
	s := NewScheduler(q, time.Hour, 3)

	require.NoError(t, s.EnqueueCycle(context.Background(), closedPeriod))
	assert.Equal(t, MonthlyCycle, drain(t, q, w))

	dead, err := q.Dead(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestWorker_ConfigurationErrorIsDeadLettered(t *testing.T) {
	engine, _ := newTestEngine(t, false)
	q := NewMemoryQueue()
	mail := &mailbox{}
	w := NewWorker(q, engine, testPolicy(5), 1, mail)

	job, err := NewJob(services.JobRankSnapshot, closedPeriod, services.JobVoidExpired)
	require.NoError(t, err)
	require.NoError(t, w.Process(context.Background(), job))

	dead, err := q.Dead(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, 1, dead[0].Attempt)
	assert.Contains(t, dead[0].LastError, "plan configuration")
	assert.Equal(t, []string{services.EmailDeadLetteredJob}, mail.emails)

	// the chain stops
	ready, delayed := q.Pending()
	assert.Zero(t, ready)
	assert.Zero(t, delayed)
}

func TestWorker_RetriesPartialFailure(t *testing.T) {
	engine, store := newTestEngine(t, true)
	q := NewMemoryQueue()
	w := NewWorker(q, engine, testPolicy(3), 1, nil)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	store.FailNext("snapshots.UpsertCurrent", errors.New("socket closed"))
	job, err := NewJob(services.JobRankSnapshot, closedPeriod)
	require.NoError(t, err)
	require.NoError(t, w.Process(context.Background(), job))

	ready, delayed := q.Pending()
	assert.Zero(t, ready)
	assert.Equal(t, 1, delayed)

	n, err := q.PromoteDue(context.Background(), now.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Zero(t, n, "backoff has not elapsed")

	n, err = q.PromoteDue(context.Background(), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	retried, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retried.ID)
	assert.Equal(t, 1, retried.Attempt)
	assert.Contains(t, retried.LastError, ErrPartialFailure.Error())

	require.NoError(t, w.Process(context.Background(), retried))
	dead, err := q.Dead(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestWorker_DeadLettersWhenAttemptsRunOut(t *testing.T) {
	engine, store := newTestEngine(t, true)
	q := NewMemoryQueue()
	w := NewWorker(q, engine, testPolicy(3), 1, nil)

	store.FailNext("snapshots.UpsertCurrent", errors.New("socket closed"))
	job, err := NewJob(services.JobRankSnapshot, closedPeriod)
	require.NoError(t, err)
	job.MaxAttempts = 1
	require.NoError(t, w.Process(context.Background(), job))

	dead, err := q.Dead(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, job.ID, dead[0].ID)
	assert.Len(t, dead[0].FailedIDs, 1)
}

// brokenSnapshots fails every monthly snapshot write for one account.
type brokenSnapshots struct {
	repositories.SnapshotRepository
	accountID string
}

func (b brokenSnapshots) UpsertMonthly(ctx context.Context, s models.MonthlySnapshot) error {
	if s.AccountID == b.accountID {
		return errors.New("document too large")
	}
	return b.SnapshotRepository.UpsertMonthly(ctx, s)
}

func TestWorker_PartialFailureKeepsChainGoing(t *testing.T) {
	_, store := newTestEngine(t, true)
	repos := store.Repositories()
	repos.Snapshots = brokenSnapshots{SnapshotRepository: repos.Snapshots, accountID: "B"}
	engine := services.NewEngine(repos, nil)

	q := NewMemoryQueue()
	mail := &mailbox{}
	w := NewWorker(q, engine, testPolicy(1), 1, mail)
	s := NewScheduler(q, time.Hour, 1)

	require.NoError(t, s.EnqueueCycle(context.Background(), closedPeriod))
	assert.Equal(t, MonthlyCycle, drain(t, q, w))

	dead, err := q.Dead(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, services.JobRankSnapshot, dead[0].Type)
	assert.Equal(t, []string{"B"}, dead[0].FailedIDs)
	assert.Equal(t, []string{services.EmailDeadLetteredJob}, mail.emails)

	current, err := store.Repositories().Snapshots.Current(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "2025-02", current.Period)
}

func TestWorker_Execute(t *testing.T) {
	engine, _ := newTestEngine(t, true)
	w := NewWorker(NewMemoryQueue(), engine, DefaultRetryPolicy(), 1, nil)
	ctx := context.Background()

	results, err := w.Execute(ctx, services.JobRankSnapshot, "2025-02")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Processed)

	results, err = w.Execute(ctx, services.JobBonusDistribution, "2025-02")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = w.Execute(ctx, "rebuild_tree", "2025-02")
	assert.ErrorIs(t, err, errInvalidJob)
	assert.False(t, retryable(err))

	_, err = w.Execute(ctx, services.JobRankSnapshot, "02/2025")
	assert.ErrorIs(t, err, errInvalidJob)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	engine, _ := newTestEngine(t, true)
	q := NewMemoryQueue()
	w := NewWorker(q, engine, testPolicy(3), 2, nil)
	w.pollTimeout = 20 * time.Millisecond

	job, err := NewJob(services.JobReleaseOnHold, closedPeriod)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), job))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		ready, _ := q.Pending()
		return ready == 0
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
