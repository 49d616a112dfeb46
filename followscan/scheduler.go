package followscan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bluesky-social/followguard/internal/ticker"
)

const DefaultScanInterval = 15 * time.Minute

// Runs recent-follower scans on a fixed interval. At most one scan (scheduled, or triggered manually) runs at a time; a tick which arrives while a scan is in progress is skipped.
type Scheduler struct {
	Scanner     *Scanner
	Interval    time.Duration
	RecentLimit int
	Logger      *slog.Logger

	// held for the duration of any scan
	scanLk sync.Mutex

	lk     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func NewScheduler(scanner *Scanner, interval time.Duration, recentLimit int, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Scanner:     scanner,
		Interval:    interval,
		RecentLimit: recentLimit,
		Logger:      logger.With("component", "scheduler"),
	}
}

// Starts the periodic scan loop in the background. The first scan runs one interval after start. Returns an error if already started.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.done != nil {
		return errors.New("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.Logger.Info("scheduled scans starting", "interval", s.Interval)
		err := ticker.Periodically(ctx, s.Interval, s.tick)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		s.lk.Lock()
		s.err = err
		s.lk.Unlock()
		s.Logger.Info("scheduled scans stopped")
	}()
	return nil
}

// Cancels the scan loop, including any scan in progress. Does not wait; see [Scheduler.Wait].
func (s *Scheduler) Stop() {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Blocks until the scan loop has exited. Returns immediately if never started.
func (s *Scheduler) Wait() error {
	s.lk.Lock()
	done := s.done
	s.lk.Unlock()
	if done == nil {
		return nil
	}
	<-done

	s.lk.Lock()
	defer s.lk.Unlock()
	return s.err
}

func (s *Scheduler) tick(ctx context.Context) error {
	_, err := s.TriggerNow(ctx)
	if errors.Is(err, ErrScanInProgress) {
		scansSkipped.Inc()
		s.Logger.Warn("previous scan still running, skipping scheduled scan")
		return nil
	}
	if err != nil && ctx.Err() == nil {
		// scan failures don't stop the schedule
		s.Logger.Error("scheduled scan failed", "err", err)
	}
	return nil
}

// Runs a recent-follower scan immediately, unless another scan is in progress, in which case it returns [ErrScanInProgress].
func (s *Scheduler) TriggerNow(ctx context.Context) (*ScanStats, error) {
	if !s.scanLk.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.scanLk.Unlock()
	return s.Scanner.ScanRecent(ctx, s.RecentLimit)
}

// Runs a full follower scan, sharing the same one-at-a-time guard as scheduled scans.
func (s *Scheduler) RunFull(ctx context.Context, pageSize int) (*ScanStats, error) {
	if !s.scanLk.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.scanLk.Unlock()
	return s.Scanner.ScanAll(ctx, pageSize)
}
