package followscan

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bluesky-social/followguard/atproto/syntax"
	"github.com/bluesky-social/followguard/ledger"
	"github.com/bluesky-social/followguard/profilematch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

var spamProfile = &profilematch.Profile{
	DisplayName: strPtr("Free OnlyFans"),
	Description: strPtr("link below"),
}

func testEvaluator(mn *MockNetwork, l ledger.Ledger) *Evaluator {
	return &Evaluator{
		Ledger:   l,
		Profiles: mn,
		Lists:    mn,
		Matcher:  profilematch.DefaultMatcher(),
		ListID:   "3kblocklist",
		Logger:   slog.Default(),
	}
}

func TestEvaluateIdempotence(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	followers := mn.AddPage("seen", 1)
	f := followers[0]
	mn.Profiles[f.DID] = spamProfile

	l := ledger.NewMemLedger()
	checkedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(l.RecordCheck(ctx, &ledger.CheckRecord{DID: f.DID, Handle: f.Handle, CheckedAt: checkedAt}))
	ev := testEvaluator(mn, l)

	out, err := ev.Evaluate(ctx, f)
	require.NoError(err)
	assert.True(out.Skipped)
	assert.False(out.Evaluated)
	assert.Empty(mn.ProfileCalls)
	assert.Empty(mn.Added)

	rec, err := l.GetCheck(ctx, f.DID)
	require.NoError(err)
	assert.Equal(checkedAt, rec.CheckedAt)
	assert.False(rec.Blocked)
}

func TestEvaluateBlocksAtMostOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	followers := mn.AddPage("f", 2)
	spammer, clean := followers[0], followers[1]
	mn.Profiles[spammer.DID] = spamProfile

	l := ledger.NewMemLedger()
	ev := testEvaluator(mn, l)

	out, err := ev.Evaluate(ctx, spammer)
	require.NoError(err)
	assert.True(out.Blocked)
	assert.True(out.Listed)
	assert.True(out.Recorded)
	assert.Equal("free-of-display-name", out.Rule)
	assert.Equal([]syntax.DID{spammer.DID}, mn.Added)

	rec, err := l.GetCheck(ctx, spammer.DID)
	require.NoError(err)
	assert.True(rec.Blocked)
	require.NotNil(rec.Reason)
	assert.Contains(*rec.Reason, "display name matches pattern")

	out, err = ev.Evaluate(ctx, clean)
	require.NoError(err)
	assert.False(out.Blocked)
	assert.True(out.Recorded)
	rec, err = l.GetCheck(ctx, clean.DID)
	require.NoError(err)
	assert.False(rec.Blocked)
	assert.Nil(rec.Reason)

	// second pass: nothing fetched, nothing added
	stats := ev.ProcessBatch(ctx, followers)
	assert.Equal(2, stats.Skipped)
	assert.Equal(0, stats.Evaluated)
	assert.Len(mn.ProfileCalls, 2)
	assert.Len(mn.Added, 1)
}

func TestEvaluateFetchFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	f := mn.AddPage("gone", 1)[0]
	mn.ProfileErrs[f.DID] = errors.New("connection reset")

	l := ledger.NewMemLedger()
	ev := testEvaluator(mn, l)

	out, err := ev.Evaluate(ctx, f)
	assert.ErrorIs(err, ErrFetch)
	assert.False(out.Blocked)
	assert.False(out.Recorded)
	assert.Empty(mn.Added)

	ok, err := l.HasBeenChecked(ctx, f.DID)
	require.NoError(err)
	assert.False(ok)

	// retried on the next scan
	delete(mn.ProfileErrs, f.DID)
	out, err = ev.Evaluate(ctx, f)
	require.NoError(err)
	assert.True(out.Recorded)
	assert.Len(mn.ProfileCalls, 2)
}

func TestEvaluateBlockFailureStillRecords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	f := mn.AddPage("spam", 1)[0]
	mn.Profiles[f.DID] = spamProfile
	mn.AddErrs[f.DID] = errors.New("upstream unavailable")

	l := ledger.NewMemLedger()
	ev := testEvaluator(mn, l)

	out, err := ev.Evaluate(ctx, f)
	assert.ErrorIs(err, ErrBlockAction)
	assert.True(out.Blocked)
	assert.False(out.Listed)
	assert.True(out.Recorded)

	rec, err := l.GetCheck(ctx, f.DID)
	require.NoError(err)
	assert.True(rec.Blocked)
}

func TestEvaluateDuplicateIsSuccess(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	f := mn.AddPage("dupe", 1)[0]
	mn.Profiles[f.DID] = spamProfile
	mn.AddErrs[f.DID] = ErrDuplicate

	ev := testEvaluator(mn, ledger.NewMemLedger())
	out, err := ev.Evaluate(ctx, f)
	assert.NoError(err)
	assert.True(out.Blocked)
	assert.True(out.Listed)
	assert.True(out.Recorded)
}

type brokenLedger struct {
	ledger.Ledger
	failLookups bool
	failWrites  bool
}

func (b *brokenLedger) HasBeenChecked(ctx context.Context, did syntax.DID) (bool, error) {
	if b.failLookups {
		return false, ledger.ErrPersistence
	}
	return b.Ledger.HasBeenChecked(ctx, did)
}

func (b *brokenLedger) RecordCheck(ctx context.Context, rec *ledger.CheckRecord) error {
	if b.failWrites {
		return ledger.ErrPersistence
	}
	return b.Ledger.RecordCheck(ctx, rec)
}

func TestLedgerWriteFailureContinues(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	followers := mn.AddPage("w", 3)
	mn.Profiles[followers[1].DID] = spamProfile

	ev := testEvaluator(mn, &brokenLedger{Ledger: ledger.NewMemLedger(), failWrites: true})
	stats := ev.ProcessBatch(ctx, followers)
	assert.Equal(3, stats.Seen)
	assert.Equal(3, stats.Evaluated)
	assert.Equal(3, stats.Errors)
	assert.Equal(1, stats.Blocked)
	assert.Len(mn.ProfileCalls, 3)
	assert.Equal([]syntax.DID{followers[1].DID}, mn.Added)

	out, err := ev.Evaluate(ctx, followers[0])
	assert.ErrorIs(err, ledger.ErrPersistence)
	assert.False(out.Recorded)
}

func TestLedgerLookupFailureSkips(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	followers := mn.AddPage("r", 2)
	mn.Profiles[followers[0].DID] = spamProfile

	ev := testEvaluator(mn, &brokenLedger{Ledger: ledger.NewMemLedger(), failLookups: true})
	stats := ev.ProcessBatch(ctx, followers)
	assert.Equal(2, stats.Errors)
	assert.Equal(0, stats.Evaluated)
	assert.Empty(mn.ProfileCalls)
	assert.Empty(mn.Added)
}

func TestDryRun(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	f := mn.AddPage("dry", 1)[0]
	mn.Profiles[f.DID] = spamProfile

	l := ledger.NewMemLedger()
	ev := testEvaluator(mn, l)
	ev.DryRun = true
	ev.ListID = ""
	require.NoError(ev.Validate())

	out, err := ev.Evaluate(ctx, f)
	require.NoError(err)
	assert.True(out.Blocked)
	assert.False(out.Recorded)
	assert.Empty(mn.Added)
	ok, err := l.HasBeenChecked(ctx, f.DID)
	require.NoError(err)
	assert.False(ok)
}

func TestRecheck(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	mn := NewMockNetwork()
	f := mn.AddPage("re", 1)[0]
	l := ledger.NewMemLedger()
	ev := testEvaluator(mn, l)

	out, err := ev.Evaluate(ctx, f)
	require.NoError(err)
	assert.False(out.Blocked)

	// profile changed since the last check
	mn.Profiles[f.DID] = spamProfile
	out, err = ev.Evaluate(ctx, f)
	require.NoError(err)
	assert.True(out.Skipped)

	out, err = ev.Recheck(ctx, f)
	require.NoError(err)
	assert.True(out.Blocked)
	assert.Equal([]syntax.DID{f.DID}, mn.Added)

	rec, err := l.GetCheck(ctx, f.DID)
	require.NoError(err)
	assert.True(rec.Blocked)
}

func TestEvaluatorValidate(t *testing.T) {
	assert := assert.New(t)

	mn := NewMockNetwork()
	ev := testEvaluator(mn, ledger.NewMemLedger())
	assert.NoError(ev.Validate())

	ev.ListID = ""
	assert.ErrorIs(ev.Validate(), ErrConfig)

	ev = testEvaluator(mn, nil)
	assert.ErrorIs(ev.Validate(), ErrConfig)
}
