package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/genautech/rewards_backend/models"
	"github.com/sirupsen/logrus"
)

// BudgetLocker serializes replication runs of the same budget.
// The returned unlock func must be called exactly once.
type BudgetLocker interface {
	Lock(ctx context.Context, budgetId int) (unlock func(), err error)
}

// LocalBudgetLocker holds one slot per budget inside this process. A slot
// lives only while some caller holds or waits on it.
type LocalBudgetLocker struct {
	mu    sync.Mutex
	slots map[int]*budgetSlot
}

type budgetSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalBudgetLocker() *LocalBudgetLocker {
	return &LocalBudgetLocker{slots: map[int]*budgetSlot{}}
}

func (l *LocalBudgetLocker) acquire(budgetId int) *budgetSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[budgetId]
	if !ok {
		slot = &budgetSlot{ch: make(chan struct{}, 1)}
		l.slots[budgetId] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalBudgetLocker) release(budgetId int, slot *budgetSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, budgetId)
	}
}

// Lock waits for the budget's slot until ctx is done.
func (l *LocalBudgetLocker) Lock(ctx context.Context, budgetId int) (func(), error) {
	slot := l.acquire(budgetId)
	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(budgetId, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(budgetId, slot)
		return nil, models.ErrReplicationInProgress
	}
}

// RedisBudgetLocker serializes across instances with a redislock key per budget.
type RedisBudgetLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	logger *logrus.Logger
}

func NewRedisBudgetLocker(client *redislock.Client, ttl time.Duration, logger *logrus.Logger) *RedisBudgetLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisBudgetLocker{
		client: client,
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		logger: logger,
	}
}

func budgetLockKey(budgetId int) string {
	return fmt.Sprintf("lock:budget_replication:%d", budgetId)
}

func (l *RedisBudgetLocker) Lock(ctx context.Context, budgetId int) (func(), error) {
	key := budgetLockKey(budgetId)
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, models.ErrReplicationInProgress
		}
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.WithField("key", key).WithError(err).Warn("failed to release budget lock")
			}
		})
	}, nil
}
