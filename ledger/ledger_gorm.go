package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluesky-social/followguard/atproto/syntax"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL-backed ledger, using the "follower_checks" table.
type GormLedger struct {
	db *gorm.DB
}

var _ Ledger = (*GormLedger)(nil)

// Wraps an open database. Call [GormLedger.Migrate] before first use.
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Migrate() error {
	if err := l.db.AutoMigrate(&CheckRecord{}); err != nil {
		return fmt.Errorf("%w: migrating follower_checks: %w", ErrPersistence, err)
	}
	return nil
}

func (l *GormLedger) HasBeenChecked(ctx context.Context, did syntax.DID) (bool, error) {
	var count int64
	res := l.db.WithContext(ctx).Model(&CheckRecord{}).Where("did = ?", did.String()).Count(&count)
	if res.Error != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, res.Error)
	}
	return count > 0, nil
}

func (l *GormLedger) RecordCheck(ctx context.Context, rec *CheckRecord) error {
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "did"}},
		UpdateAll: true,
	}).Create(rec)
	if res.Error != nil {
		return fmt.Errorf("%w: recording check for %s: %w", ErrPersistence, rec.DID, res.Error)
	}
	return nil
}

func (l *GormLedger) GetCheck(ctx context.Context, did syntax.DID) (*CheckRecord, error) {
	var rec CheckRecord
	res := l.db.WithContext(ctx).Where("did = ?", did.String()).Take(&rec)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if res.Error != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, res.Error)
	}
	return &rec, nil
}

func (l *GormLedger) RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error) {
	var recs []CheckRecord
	res := l.db.WithContext(ctx).Order("checked_at DESC").Limit(normalizeLimit(limit)).Find(&recs)
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, res.Error)
	}
	return recs, nil
}
