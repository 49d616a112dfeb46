package followscan

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultRecentLimit = 50
	DefaultPageSize    = 100
)

type ScanStats struct {
	BatchStats
	Pages    int
	Duration time.Duration
}

func (ss ScanStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pages", ss.Pages),
		slog.Int("seen", ss.Seen),
		slog.Int("skipped", ss.Skipped),
		slog.Int("evaluated", ss.Evaluated),
		slog.Int("blocked", ss.Blocked),
		slog.Int("errors", ss.Errors),
		slog.Duration("duration", ss.Duration),
	)
}

// Sources followers of Actor and feeds them to the Evaluator.
type Scanner struct {
	Followers FollowerLister
	Evaluator *Evaluator
	// handle or DID of the account whose followers are scanned
	Actor  string
	Logger *slog.Logger
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Evaluates the most recent followers: a single page, newest first.
func (s *Scanner) ScanRecent(ctx context.Context, limit int) (*ScanStats, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	ctx, span := tracer.Start(ctx, "ScanRecent")
	defer span.End()

	start := time.Now()
	stats := ScanStats{}
	logger := s.logger().With("scan", "recent")
	logger.Info("starting recent follower scan", "limit", limit)

	page, err := s.Followers.ListFollowers(ctx, s.Actor, "", limit)
	if err != nil {
		scansCompleted.WithLabelValues("recent", "error").Inc()
		return &stats, fmt.Errorf("recent follower scan: %w", err)
	}
	stats.Pages = 1
	stats.Add(s.Evaluator.ProcessBatch(ctx, page.Followers))

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		scansCompleted.WithLabelValues("recent", "cancelled").Inc()
		logger.Warn("recent follower scan cancelled", "stats", stats)
		return &stats, err
	}
	scanDuration.WithLabelValues("recent").Observe(stats.Duration.Seconds())
	scansCompleted.WithLabelValues("recent", "ok").Inc()
	logger.Info("finished recent follower scan", "stats", stats)
	return &stats, nil
}

// Evaluates every follower, one page at a time. Each page is fully processed before the next is requested. A listing error ends the scan and is returned, along with stats for the pages completed so far.
func (s *Scanner) ScanAll(ctx context.Context, pageSize int) (*ScanStats, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	ctx, span := tracer.Start(ctx, "ScanAll")
	defer span.End()

	start := time.Now()
	stats := ScanStats{}
	logger := s.logger().With("scan", "all")
	logger.Info("starting full follower scan", "pageSize", pageSize)

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			scansCompleted.WithLabelValues("all", "cancelled").Inc()
			return &stats, err
		}
		page, err := s.Followers.ListFollowers(ctx, s.Actor, cursor, pageSize)
		if err != nil {
			scansCompleted.WithLabelValues("all", "error").Inc()
			return &stats, fmt.Errorf("full follower scan (page %d): %w", stats.Pages+1, err)
		}
		stats.Pages++
		stats.Add(s.Evaluator.ProcessBatch(ctx, page.Followers))
		logger.Debug("processed follower page", "page", stats.Pages, "followers", len(page.Followers))

		if page.Cursor == "" {
			break
		}
		if page.Cursor == cursor {
			logger.Warn("follower listing returned a repeated cursor, stopping", "cursor", cursor)
			break
		}
		cursor = page.Cursor
	}

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		scansCompleted.WithLabelValues("all", "cancelled").Inc()
		logger.Warn("full follower scan cancelled", "stats", stats)
		return &stats, err
	}
	scanDuration.WithLabelValues("all").Observe(stats.Duration.Seconds())
	scansCompleted.WithLabelValues("all", "ok").Inc()
	logger.Info("finished full follower scan", "stats", stats)
	return &stats, nil
}
