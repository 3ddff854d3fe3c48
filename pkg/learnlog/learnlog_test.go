package learnlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/reslot/pkg/model"
)

func entry(owner string, p model.ConflictPattern, top string) model.LogEntry {
	return model.LogEntry{
		Timestamp:     time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		OwnerID:       owner,
		Pattern:       p,
		TopSuggestion: top,
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, NoHistory, Summarize(nil))

	entries := []model.LogEntry{
		entry("u", model.PatternOverlapEnd, "reschedule"),
		entry("u", model.PatternMultiple, "reschedule"),
	}
	assert.Equal(t, "Recent patterns: overlap-end, multiple-conflicts", Summarize(entries))
}

func TestSummarize_LastFiveOnly(t *testing.T) {
	patterns := []model.ConflictPattern{
		model.PatternNone, // dropped
		model.PatternFullyContained,
		model.PatternFullyContains,
		model.PatternOverlapStart,
		model.PatternOverlapEnd,
		model.PatternMultiple,
	}
	var entries []model.LogEntry
	for _, p := range patterns {
		entries = append(entries, entry("u", p, "none"))
	}
	assert.Equal(t,
		"Recent patterns: fully-contained, fully-contains, overlap-start, overlap-end, multiple-conflicts",
		Summarize(entries))
}

func TestTallyAndForOwner(t *testing.T) {
	entries := []model.LogEntry{
		entry("alice", model.PatternOverlapEnd, "reschedule"),
		entry("bob", model.PatternOverlapEnd, "swap"),
		entry("alice", model.PatternOverlapEnd, "shorten"),
		entry("alice", model.PatternMultiple, "reschedule"),
	}
	st := Tally(ForOwner(entries, "alice"))
	assert.Equal(t, 3, st.TotalConflicts)
	assert.Equal(t, 2, st.Patterns[model.PatternOverlapEnd])
	assert.Equal(t, 1, st.Patterns[model.PatternMultiple])
	assert.Equal(t, 2, st.Solutions["reschedule"])
	assert.Equal(t, 1, st.Solutions["shorten"])
	assert.Zero(t, st.Solutions["swap"])
}

// --- FileLog ---

func TestFileLog_MissingFileFallsBack(t *testing.T) {
	l := NewFileLog(t.TempDir())
	s, err := l.LoadContext(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, NoHistory, s)
}

func TestFileLog_RecordAndLoad(t *testing.T) {
	ctx := context.Background()
	l := NewFileLog(filepath.Join(t.TempDir(), "nested", "beads"))

	require.NoError(t, l.Record(ctx, entry("alice", model.PatternOverlapEnd, "reschedule")))
	require.NoError(t, l.Record(ctx, entry("bob", model.PatternMultiple, "none")))
	require.NoError(t, l.Record(ctx, entry("alice", model.PatternFullyContains, "split")))

	s, err := l.LoadContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Recent patterns: overlap-end, fully-contains", s)

	s, err = l.LoadContext(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, NoHistory, s)

	st, err := l.Statistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalConflicts)
}

func TestFileLog_Retention(t *testing.T) {
	ctx := context.Background()
	l := NewFileLog(t.TempDir())
	for i := 0; i < Retention+20; i++ {
		e := entry(fmt.Sprintf("owner-%d", i), model.PatternOverlapEnd, "reschedule")
		require.NoError(t, l.Record(ctx, e))
	}
	entries, err := l.read()
	require.NoError(t, err)
	require.Len(t, entries, Retention)
	assert.Equal(t, "owner-20", entries[0].OwnerID)
	assert.Equal(t, fmt.Sprintf("owner-%d", Retention+19), entries[Retention-1].OwnerID)
}

func TestFileLog_MalformedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l := NewFileLog(dir)
	require.NoError(t, os.WriteFile(l.Path(), []byte("{not json"), 0o644))

	s, err := l.LoadContext(ctx, "alice")
	assert.Error(t, err)
	assert.Equal(t, NoHistory, s)

	_, err = l.Statistics(ctx, "alice")
	assert.Error(t, err)

	// Recording replaces the malformed file.
	require.NoError(t, l.Record(ctx, entry("alice", model.PatternOverlapStart, "reschedule")))
	s, err = l.LoadContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Recent patterns: overlap-start", s)
}

// --- RedisLog ---

func newRedisLog(t *testing.T) (*RedisLog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLog(client, ""), mr
}

func TestRedisLog_RecordAndLoad(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLog(t)

	s, err := l.LoadContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, NoHistory, s)

	require.NoError(t, l.Record(ctx, entry("alice", model.PatternOverlapEnd, "reschedule")))
	require.NoError(t, l.Record(ctx, entry("alice", model.PatternOverlapStart, "move_earlier")))

	s, err = l.LoadContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Recent patterns: overlap-end, overlap-start", s)

	list, err := mr.List(DefaultRedisKey)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRedisLog_Retention(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLog(t)
	for i := 0; i < Retention+5; i++ {
		require.NoError(t, l.Record(ctx, entry("alice", model.PatternMultiple, "none")))
	}
	list, err := mr.List(DefaultRedisKey)
	require.NoError(t, err)
	assert.Len(t, list, Retention)

	st, err := l.Statistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, Retention, st.TotalConflicts)
}

func TestRedisLog_MalformedEntry(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLog(t)
	_, err := mr.RPush(DefaultRedisKey, "garbage")
	require.NoError(t, err)

	s, err := l.LoadContext(ctx, "alice")
	assert.Error(t, err)
	assert.Equal(t, NoHistory, s)
}

func TestRedisLog_ServerDown(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLog(t)
	mr.Close()

	assert.Error(t, l.Record(ctx, entry("alice", model.PatternMultiple, "none")))
	_, err := l.LoadContext(ctx, "alice")
	assert.Error(t, err)
}

// --- Cached ---

type countingLog struct {
	loads   int
	records int
	summary string
	err     error
}

func (c *countingLog) LoadContext(ctx context.Context, ownerID string) (string, error) {
	c.loads++
	if c.err != nil {
		return NoHistory, c.err
	}
	return c.summary, nil
}

func (c *countingLog) Record(ctx context.Context, e model.LogEntry) error {
	c.records++
	return c.err
}

func (c *countingLog) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	return model.NewStatistics(), c.err
}

func TestCached_HitsAndInvalidation(t *testing.T) {
	ctx := context.Background()
	inner := &countingLog{summary: "Recent patterns: overlap-end"}
	c, err := NewCached(inner, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		s, err := c.LoadContext(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, inner.summary, s)
	}
	assert.Equal(t, 1, inner.loads)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Record(ctx, entry("alice", model.PatternMultiple, "none")))
	assert.Equal(t, 0, c.Len())

	_, err = c.LoadContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loads)
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingLog{err: errors.New("disk gone")}
	c, err := NewCached(inner, 4)
	require.NoError(t, err)

	_, err = c.LoadContext(ctx, "alice")
	assert.Error(t, err)
	_, err = c.LoadContext(ctx, "alice")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.loads)
	assert.Equal(t, 0, c.Len())
}

// --- Guarded ---

func TestGuarded_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingLog{err: errors.New("sink down")}
	var transitions []gobreaker.State
	g := NewGuarded("test-log", inner, BreakerSettings{
		Failures: 2,
		Cooldown: time.Hour,
		OnStateChange: func(_ string, _, to gobreaker.State) {
			transitions = append(transitions, to)
		},
	})

	assert.Error(t, g.Record(ctx, entry("alice", model.PatternMultiple, "none")))
	assert.Error(t, g.Record(ctx, entry("alice", model.PatternMultiple, "none")))
	assert.Equal(t, gobreaker.StateOpen, g.State())

	err := g.Record(ctx, entry("alice", model.PatternMultiple, "none"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.records, "open breaker must not reach the sink")

	s, err := g.LoadContext(ctx, "alice")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, NoHistory, s)
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestGuarded_PassesThroughOnSuccess(t *testing.T) {
	ctx := context.Background()
	inner := &countingLog{summary: "Recent patterns: overlap-start"}
	g := NewGuarded("test-log", inner, BreakerSettings{})

	s, err := g.LoadContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, inner.summary, s)
	require.NoError(t, g.Record(ctx, entry("alice", model.PatternOverlapStart, "reschedule")))
	st, err := g.Statistics(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, st.Patterns)
	assert.Equal(t, gobreaker.StateClosed, g.State())
}
