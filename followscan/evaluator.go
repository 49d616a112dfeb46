package followscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluesky-social/followguard/ledger"
	"github.com/bluesky-social/followguard/profilematch"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result of handling one follower.
type Outcome struct {
	// already in the ledger; nothing fetched or written
	Skipped bool
	// profile was fetched and run through the matcher
	Evaluated bool
	// matched a rule. Recorded as "blocked" in the ledger even if the list action failed.
	Blocked bool
	Reason  string
	Rule    string
	// subject is on the list (created, or already present)
	Listed bool
	// ledger record written
	Recorded bool
}

type BatchStats struct {
	Seen      int
	Skipped   int
	Evaluated int
	Blocked   int
	Errors    int
}

func (bs *BatchStats) Add(other BatchStats) {
	bs.Seen += other.Seen
	bs.Skipped += other.Skipped
	bs.Evaluated += other.Evaluated
	bs.Blocked += other.Blocked
	bs.Errors += other.Errors
}

// Checks followers against the rule set, lists matching accounts, and records outcomes in the ledger.
//
// Not safe for concurrent scans against the same ledger; see [Scheduler].
type Evaluator struct {
	Ledger   ledger.Ledger
	Profiles ProfileFetcher
	Lists    ListAdder
	Matcher  *profilematch.Matcher
	// list to add matching accounts to
	ListID string
	// log matches, but don't create list items or write to the ledger
	DryRun bool
	Logger *slog.Logger

	// for tests
	now func() time.Time
}

func (ev *Evaluator) logger() *slog.Logger {
	if ev.Logger == nil {
		return slog.Default()
	}
	return ev.Logger
}

func (ev *Evaluator) clock() time.Time {
	if ev.now != nil {
		return ev.now()
	}
	return time.Now().UTC()
}

// Checks the configuration, for use at startup. Missing collaborators or list ID wrap [ErrConfig].
func (ev *Evaluator) Validate() error {
	if ev.Ledger == nil || ev.Profiles == nil || ev.Matcher == nil {
		return fmt.Errorf("%w: evaluator is missing ledger, profile fetcher, or matcher", ErrConfig)
	}
	if !ev.DryRun && (ev.Lists == nil || ev.ListID == "") {
		return fmt.Errorf("%w: a block list ID is required", ErrConfig)
	}
	return nil
}

// Evaluates a single follower, unless the ledger already has a record for it.
//
// Errors are per-follower and never leave the ledger inconsistent: a fetch failure means nothing was written, and a list action failure still records the verdict.
func (ev *Evaluator) Evaluate(ctx context.Context, f Follower) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Evaluate", trace.WithAttributes(
		attribute.String("did", f.DID.String()),
	))
	defer span.End()

	logger := ev.logger().With("did", f.DID, "handle", f.Handle)

	seen, err := ev.Ledger.HasBeenChecked(ctx, f.DID)
	if err != nil {
		// don't risk a second list action on a read failure; try again next scan
		ledgerErrors.WithLabelValues("lookup").Inc()
		logger.Error("ledger lookup failed, skipping follower", "err", err)
		followersEvaluated.WithLabelValues("lookup_error").Inc()
		span.SetStatus(codes.Error, "ledger lookup failed")
		return Outcome{}, err
	}
	if seen {
		followersEvaluated.WithLabelValues("skipped").Inc()
		logger.Debug("follower already checked")
		return Outcome{Skipped: true}, nil
	}

	out, err := ev.check(ctx, logger, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("blocked", out.Blocked))
	return out, err
}

// Forces re-evaluation of a follower regardless of ledger state. The existing record, if any, is replaced.
func (ev *Evaluator) Recheck(ctx context.Context, f Follower) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Recheck", trace.WithAttributes(
		attribute.String("did", f.DID.String()),
	))
	defer span.End()

	logger := ev.logger().With("did", f.DID, "handle", f.Handle)
	out, err := ev.check(ctx, logger, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// fetch, match, list, record
func (ev *Evaluator) check(ctx context.Context, logger *slog.Logger, f Follower) (Outcome, error) {
	var out Outcome

	profile, err := ev.Profiles.GetProfile(ctx, f.DID)
	if err != nil {
		followersEvaluated.WithLabelValues("fetch_error").Inc()
		if errors.Is(err, ErrProfileNotFound) {
			logger.Info("follower profile not found", "err", err)
		} else {
			logger.Warn("failed to fetch follower profile", "err", err)
		}
		if !errors.Is(err, ErrFetch) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return out, err
	}

	res := ev.Matcher.Evaluate(profile)
	out.Evaluated = true
	var errs []error
	if res.Matches {
		out.Blocked = true
		out.Reason = res.Reason
		out.Rule = res.Rule
		followersEvaluated.WithLabelValues("matched").Inc()
		logger.Info("follower matched rule", "rule", res.Rule, "reason", res.Reason, "dryRun", ev.DryRun)

		if !ev.DryRun {
			if err := ev.Lists.AddToList(ctx, ev.ListID, f.DID); err != nil {
				if errors.Is(err, ErrDuplicate) {
					listActions.WithLabelValues("duplicate").Inc()
					logger.Info("follower already on list")
					out.Listed = true
				} else {
					listActions.WithLabelValues("error").Inc()
					logger.Error("failed to add follower to list", "err", err)
					if !errors.Is(err, ErrBlockAction) {
						err = fmt.Errorf("%w: %w", ErrBlockAction, err)
					}
					errs = append(errs, err)
				}
			} else {
				listActions.WithLabelValues("created").Inc()
				logger.Info("added follower to list", "list", ev.ListID)
				out.Listed = true
			}
		}
	} else {
		followersEvaluated.WithLabelValues("clean").Inc()
		logger.Debug("follower is clean")
	}

	if ev.DryRun {
		return out, errors.Join(errs...)
	}

	rec := ledger.CheckRecord{
		DID:       f.DID,
		Handle:    f.Handle,
		CheckedAt: ev.clock(),
		Blocked:   out.Blocked,
	}
	if out.Reason != "" {
		reason := out.Reason
		rec.Reason = &reason
	}
	if err := ev.Ledger.RecordCheck(ctx, &rec); err != nil {
		ledgerErrors.WithLabelValues("write").Inc()
		logger.Error("failed to record check", "err", err)
		errs = append(errs, err)
	} else {
		out.Recorded = true
	}
	return out, errors.Join(errs...)
}

// Evaluates followers one at a time, in order. Per-follower errors are logged and counted; processing stops early only if the context is cancelled.
func (ev *Evaluator) ProcessBatch(ctx context.Context, followers []Follower) BatchStats {
	var stats BatchStats
	for _, f := range followers {
		if ctx.Err() != nil {
			break
		}
		stats.Seen++
		out, err := ev.Evaluate(ctx, f)
		if out.Skipped {
			stats.Skipped++
		}
		if out.Evaluated {
			stats.Evaluated++
		}
		if out.Blocked {
			stats.Blocked++
		}
		if err != nil {
			stats.Errors++
		}
	}
	return stats
}
