package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/bluesky-social/followguard/atproto/syntax"
)

var (
	// Wraps any failure of the underlying storage
	ErrPersistence = errors.New("ledger storage failure")
	ErrNotFound    = errors.New("no check record for account")
)

// Outcome of evaluating one follower account. At most one record exists per DID; writes replace.
type CheckRecord struct {
	DID       syntax.DID    `gorm:"primaryKey;column:did" json:"did"`
	Handle    syntax.Handle `gorm:"column:handle" json:"handle"`
	CheckedAt time.Time     `gorm:"index;column:checked_at" json:"checked_at"`
	Blocked   bool          `gorm:"column:blocked" json:"blocked"`
	Reason    *string       `gorm:"column:reason" json:"reason,omitempty"`
}

func (CheckRecord) TableName() string {
	return "follower_checks"
}

type Ledger interface {
	// Returns false, with no error, for accounts never recorded.
	HasBeenChecked(ctx context.Context, did syntax.DID) (bool, error)
	// Inserts or replaces the record for rec.DID. The write is durable before this returns.
	RecordCheck(ctx context.Context, rec *CheckRecord) error
	// Returns [ErrNotFound] for accounts never recorded.
	GetCheck(ctx context.Context, did syntax.DID) (*CheckRecord, error)
	// Most recently checked first.
	RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error)
}

const DefaultRecentLimit = 20

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
