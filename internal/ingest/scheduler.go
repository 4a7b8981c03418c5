package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/storage"
)

// refreshJobKey is the registry entry for the single pending refresh run.
const refreshJobKey = "jobs:refresh-all-wallets"

// registryGrace keeps the registry key alive past the scheduled run time
// so a crashed holder eventually frees the slot.
const registryGrace = 5 * time.Minute

// AddressLister enumerates every known wallet
type AddressLister interface {
	ListAddresses(ctx context.Context) ([]string, error)
}

// Enqueuer records ingestion jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, address string) (*models.IngestJob, error)
}

// Scheduler maintains at most one pending "refresh all wallets" run.
// The Redis registry key is the only synchronization point: whichever
// caller wins the SET NX owns the run; everyone else is a no-op. When
// the run fires it enqueues one job per known wallet, then clears the
// key so the next completed job can schedule again.
type Scheduler struct {
	mu sync.Mutex

	redis *storage.RedisCache
	users AddressLister
	queue Enqueuer

	timer *time.Timer

	logger *logging.Logger
}

// NewScheduler creates a refresh scheduler
func NewScheduler(redisCache *storage.RedisCache, users AddressLister, queue Enqueuer, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		redis:  redisCache,
		users:  users,
		queue:  queue,
		logger: logger,
	}
}

// EnsureRefreshScheduled schedules a refresh run at runAt unless one is
// already pending. Returns true when this call claimed the slot. runAt
// values in the past fire almost immediately.
func (s *Scheduler) EnsureRefreshScheduled(ctx context.Context, runAt time.Time) (bool, error) {
	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}

	won, err := s.redis.SetNX(ctx, refreshJobKey, runAt.UTC().Format(time.RFC3339), delay+registryGrace)
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	s.armTimer(delay)

	s.logger.WithFields(map[string]interface{}{
		"runAt": runAt.UTC().Format(time.RFC3339),
		"delay": delay,
	}).Info("Refresh run scheduled")

	return true, nil
}

// Recover re-arms the in-process timer from an existing registry entry.
// Called on startup so a restart does not orphan a claimed run. Several
// processes can recover the same entry and each arm a timer; fire's
// atomic claim keeps the run single.
func (s *Scheduler) Recover(ctx context.Context) error {
	val, err := s.redis.Get(ctx, refreshJobKey)
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	runAt, err := time.Parse(time.RFC3339, val)
	if err != nil {
		// Unparseable entry: clear it so scheduling can resume.
		s.logger.WithField("value", val).Warn("Clearing malformed refresh registry entry")
		return s.redis.Del(ctx, refreshJobKey)
	}

	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}
	s.armTimer(delay)

	s.logger.WithField("runAt", val).Info("Recovered scheduled refresh run")
	return nil
}

// Stop cancels the pending in-process timer. The registry key is left
// in place for Recover.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) armTimer(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, func() {
		s.fire(context.Background())
	})
}

// fire enqueues one ingestion job per known wallet. The registry entry
// is consumed atomically before enqueueing: when several processes hold
// timers for the same entry (the claimer plus any that recovered it on
// startup), only the one that wins the GETDEL runs the fanout. Completed
// jobs re-schedule through EnsureRefreshScheduled.
func (s *Scheduler) fire(ctx context.Context) {
	addresses, err := s.users.ListAddresses(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list wallets for refresh")
		// Leave the key to expire via its TTL rather than dropping the
		// slot with nothing enqueued.
		return
	}

	if _, err := s.redis.GetDel(ctx, refreshJobKey); err != nil {
		if err == redis.Nil {
			s.logger.Debug("Refresh run already fired by another process")
			return
		}
		s.logger.WithError(err).Error("Failed to claim refresh registry entry")
		return
	}

	enqueued := 0
	for _, address := range addresses {
		if _, err := s.queue.Enqueue(ctx, address); err != nil {
			s.logger.WithError(err).WithField("address", address).Error("Failed to enqueue refresh job")
			continue
		}
		enqueued++
	}

	s.logger.WithFields(map[string]interface{}{
		"wallets":  len(addresses),
		"enqueued": enqueued,
	}).Info("Refresh run fired")
}
