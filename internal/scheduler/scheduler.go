package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/reference"
)

// DirectoryLoader loads the reference table.
type DirectoryLoader interface {
	Load(ctx context.Context) (*reference.Directory, error)
}

// QuoteLoader loads and caches the quotes of a reference symbol.
type QuoteLoader interface {
	Load(ctx context.Context, symbol string) (*model.RawSeries, error)
}

// Scheduler manages the cache warm-up task.
type Scheduler struct {
	Cron      *cron.Cron
	Directory DirectoryLoader
	Quotes    QuoteLoader
	Watchlist []string
	// Parallel bounds concurrent quote fetches during a warm-up.
	Parallel int
	Timeout  time.Duration
	Ctx      context.Context

	mu     sync.Mutex
	logger log.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, dir DirectoryLoader, quotes QuoteLoader, watchlist []string, logger log.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Directory: dir,
		Quotes:    quotes,
		Watchlist: watchlist,
		Parallel:  4,
		Timeout:   2 * time.Minute,
		Ctx:       ctx,
		logger:    logger,
	}
}

// RegisterAll registers the warm-up task.
func (s *Scheduler) RegisterAll(warmCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	_ = level.Info(s.logger).Log("msg", "scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	_ = level.Info(s.logger).Log("msg", "scheduler stopped")
}

// RunNow executes the warm-up task immediately.
func (s *Scheduler) RunNow() error {
	return s.Warm(s.Ctx)
}

func (s *Scheduler) warmTask() {
	if err := s.Warm(s.Ctx); err != nil {
		_ = level.Error(s.logger).Log("msg", "warm task", "err", err)
	}
}

// Warm loads the reference table and prefetches the watchlist. Loaders only
// fetch keys they do not hold, so repeated runs fill gaps. A failed ticker is
// logged and does not stop the others. Overlapping runs are serialized.
func (s *Scheduler) Warm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	dir, err := s.Directory.Load(ctx)
	if err != nil {
		return fmt.Errorf("warm reference: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.Parallel > 0 {
		g.SetLimit(s.Parallel)
	}
	var (
		failedMu sync.Mutex
		failed   int
	)
	for _, sym := range s.Watchlist {
		sym := sym
		if _, ok := dir.Lookup(sym); !ok {
			_ = level.Warn(s.logger).Log("msg", "watchlist symbol not in reference table", "symbol", sym)
			continue
		}
		g.Go(func() error {
			series, err := s.Quotes.Load(gctx, sym)
			if err != nil {
				failedMu.Lock()
				failed++
				failedMu.Unlock()
				_ = level.Error(s.logger).Log("msg", "warm quotes", "symbol", sym, "err", err)
				return nil
			}
			_ = level.Debug(s.logger).Log("msg", "warmed quotes", "symbol", sym, "rows", series.Len())
			return nil
		})
	}
	_ = g.Wait()

	_ = level.Info(s.logger).Log("msg", "warm finished", "companies", dir.Len(),
		"watchlist", len(s.Watchlist), "failed", failed, "elapsed", time.Since(start))
	return nil
}
