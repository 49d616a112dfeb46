package ticker

import (
	"context"
	"fmt"
	"time"
)

// Periodically runs the provided task function at the specified interval until the context is done or the task returns an error.
//
// The interval is measured from the end of one run to the start of the next, so a slow task never causes runs to queue up behind it.
func Periodically(ctx context.Context, interval time.Duration, task func(context.Context) error) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := task(ctx); err != nil {
				return fmt.Errorf("periodic task failed: %w", err)
			}
			timer.Reset(interval)
		}
	}
}
