package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/bluesky-social/followguard/atproto/syntax"
)

// In-process ledger. Contents are lost on exit.
type MemLedger struct {
	lk   sync.RWMutex
	Data map[syntax.DID]CheckRecord
}

var _ Ledger = (*MemLedger)(nil)

func NewMemLedger() *MemLedger {
	return &MemLedger{
		Data: make(map[syntax.DID]CheckRecord),
	}
}

func (l *MemLedger) HasBeenChecked(ctx context.Context, did syntax.DID) (bool, error) {
	l.lk.RLock()
	defer l.lk.RUnlock()
	_, ok := l.Data[did]
	return ok, nil
}

func (l *MemLedger) RecordCheck(ctx context.Context, rec *CheckRecord) error {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.Data[rec.DID] = *rec
	return nil
}

func (l *MemLedger) GetCheck(ctx context.Context, did syntax.DID) (*CheckRecord, error) {
	l.lk.RLock()
	defer l.lk.RUnlock()
	rec, ok := l.Data[did]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (l *MemLedger) RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error) {
	l.lk.RLock()
	out := make([]CheckRecord, 0, len(l.Data))
	for _, rec := range l.Data {
		out = append(out, rec)
	}
	l.lk.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckedAt.After(out[j].CheckedAt)
	})
	limit = normalizeLimit(limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
