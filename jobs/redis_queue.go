package jobs

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultKeyPrefix = "network:jobs:"

// promoteScript moves due members of the delayed set to the ready list in
// one step, so concurrent promoters never push a job twice.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, job in ipairs(due) do
	redis.call('ZREM', KEYS[1], job)
	redis.call('LPUSH', KEYS[2], job)
end
return #due
`)

// RedisQueue keeps jobs in Redis: a ready list consumed with BRPOPLPUSH into
// a processing list, a sorted set of delayed retries and a dead-letter list.
type RedisQueue struct {
	client     *redis.Client
	prefix     string
	ready      string
	processing string
	delayed    string
	dead       string
}

func NewRedisQueue(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisQueue{
		client:     client,
		prefix:     prefix,
		ready:      prefix + "ready",
		processing: prefix + "processing",
		delayed:    prefix + "delayed",
		dead:       prefix + "dead",
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := job.encode()
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.ready, raw).Err()
}

func (q *RedisQueue) EnqueueAt(ctx context.Context, job Job, at time.Time) error {
	raw, err := job.encode()
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, q.delayed, &redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: raw,
	}).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (Job, error) {
	raw, err := q.client.BRPopLPush(ctx, q.ready, q.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNoJob
	}
	if err != nil {
		return Job{}, err
	}
	job, err := decodeJob(raw)
	if err != nil {
		// unreadable payloads can never succeed
		q.client.LRem(ctx, q.processing, 1, raw)
		q.client.LPush(ctx, q.dead, raw)
		return Job{}, err
	}
	return job, nil
}

func (q *RedisQueue) Ack(ctx context.Context, job Job) error {
	return q.client.LRem(ctx, q.processing, 1, job.raw).Err()
}

func (q *RedisQueue) DeadLetter(ctx context.Context, job Job) error {
	raw, err := job.encode()
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, job.raw)
		pipe.LPush(ctx, q.dead, raw)
		return nil
	})
	return err
}

func (q *RedisQueue) Dead(ctx context.Context, limit int64) ([]Job, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	raws, err := q.client.LRange(ctx, q.dead, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		job, err := decodeJob(raw)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *RedisQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	n, err := promoteScript.Run(ctx, q.client,
		[]string{q.delayed, q.ready},
		strconv.FormatInt(now.UnixMilli(), 10), 100,
	).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Recover must only run while no other worker is consuming the queue.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.RPopLPush(ctx, q.processing, q.ready).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func (q *RedisQueue) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return q.client.SetNX(ctx, q.prefix+"once:"+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
