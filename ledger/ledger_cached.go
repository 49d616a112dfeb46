package ledger

import (
	"context"

	"github.com/bluesky-social/followguard/atproto/syntax"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Wraps another [Ledger] with an LRU of DIDs known to have been checked. Only positive lookups are cached, since records are never removed.
type CachedLedger struct {
	Inner Ledger
	known *lru.Cache[syntax.DID, struct{}]
}

var _ Ledger = (*CachedLedger)(nil)

func NewCachedLedger(inner Ledger, size int) (*CachedLedger, error) {
	c, err := lru.New[syntax.DID, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &CachedLedger{Inner: inner, known: c}, nil
}

func (l *CachedLedger) HasBeenChecked(ctx context.Context, did syntax.DID) (bool, error) {
	if l.known.Contains(did) {
		return true, nil
	}
	ok, err := l.Inner.HasBeenChecked(ctx, did)
	if err != nil {
		return false, err
	}
	if ok {
		l.known.Add(did, struct{}{})
	}
	return ok, nil
}

func (l *CachedLedger) RecordCheck(ctx context.Context, rec *CheckRecord) error {
	if err := l.Inner.RecordCheck(ctx, rec); err != nil {
		return err
	}
	l.known.Add(rec.DID, struct{}{})
	return nil
}

func (l *CachedLedger) GetCheck(ctx context.Context, did syntax.DID) (*CheckRecord, error) {
	return l.Inner.GetCheck(ctx, did)
}

func (l *CachedLedger) RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error) {
	return l.Inner.RecentChecks(ctx, limit)
}
