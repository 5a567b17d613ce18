package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maps-review-scraper/models"
	"maps-review-scraper/utils"
)

// pass scripts one LoadMore call of a scriptedPanel.
type pass struct {
	items   []models.RawReview
	hasMore bool
	err     error
	before  func()
}

// scriptedPanel replays a fixed pass sequence; once exhausted it keeps
// repeating the final pass, mimicking a feed that stopped growing.
type scriptedPanel struct {
	passes []pass
	calls  int
}

func (p *scriptedPanel) LoadMore(ctx context.Context) ([]models.RawReview, bool, error) {
	i := p.calls
	if i >= len(p.passes) {
		i = len(p.passes) - 1
	}
	p.calls++

	step := p.passes[i]
	if step.before != nil {
		step.before()
	}
	return step.items, step.hasMore, step.err
}

func fastBackoff() utils.Backoff {
	return utils.Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1}
}

func testLoader(maxStagnant, maxRetries int) *ScrollLoader {
	return NewScrollLoader(LoaderConfig{
		MaxStagnantPasses: maxStagnant,
		MaxBackoffRetries: maxRetries,
		Backoff:           fastBackoff(),
	}, NewExtractor())
}

func TestLoaderExhaustsOnStagnation(t *testing.T) {
	t.Parallel()

	batch := []models.RawReview{
		reviewHTML("r1", "Alice", 5, "2 weeks ago", "Great food"),
		reviewHTML("r2", "Bob", 3, "a month ago", "Okay"),
	}
	panel := &scriptedPanel{passes: []pass{
		{items: batch, hasMore: true},
		// The feed keeps re-rendering the same containers.
		{items: batch, hasMore: true},
	}}

	loader := testLoader(3, 5)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalExhausted, terminal)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].Reviewer)
	// 1 productive pass + 3 stagnant passes.
	assert.Equal(t, 4, panel.calls)
}

func TestLoaderStagnationCounterResetsOnFreshRecords(t *testing.T) {
	t.Parallel()

	first := []models.RawReview{reviewHTML("r1", "Alice", 5, "2 weeks ago", "Great food")}
	second := []models.RawReview{reviewHTML("r2", "Bob", 3, "a month ago", "Okay")}

	panel := &scriptedPanel{passes: []pass{
		{items: first, hasMore: true},
		{items: first, hasMore: true},  // stagnant 1
		{items: first, hasMore: true},  // stagnant 2
		{items: second, hasMore: true}, // fresh again, counter resets
		{items: second, hasMore: true},
	}}

	loader := testLoader(3, 5)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalExhausted, terminal)
	assert.Len(t, records, 2)
}

func TestLoaderShrinkingPassesStillExhaust(t *testing.T) {
	t.Parallel()

	x1 := reviewHTML("x1", "Alice", 5, "2 weeks ago", "Great food")
	x2 := reviewHTML("x2", "Bob", 3, "a month ago", "Okay")

	panel := &scriptedPanel{passes: []pass{
		{items: []models.RawReview{x1, x2}, hasMore: true},
		{items: []models.RawReview{x2}, hasMore: true},
		{items: nil},
		{items: nil},
	}}

	loader := testLoader(2, 5)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalExhausted, terminal)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].Reviewer)
	assert.Equal(t, "Bob", records[1].Reviewer)
	assert.Equal(t, 3, panel.calls)
}

func TestLoaderRecoversFromThrottling(t *testing.T) {
	t.Parallel()

	first := []models.RawReview{reviewHTML("r1", "Alice", 5, "2 weeks ago", "Great food")}
	second := []models.RawReview{reviewHTML("r2", "Bob", 3, "a month ago", "Okay")}

	panel := &scriptedPanel{passes: []pass{
		{items: first, hasMore: true},
		{err: ErrThrottled},
		{err: ErrThrottled},
		{items: second, hasMore: true},
		{items: second, hasMore: true},
	}}

	loader := testLoader(3, 2)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalExhausted, terminal)
	assert.Len(t, records, 2)
}

func TestLoaderRetryBudgetResetsAfterSuccess(t *testing.T) {
	t.Parallel()

	item := func(id, name string) []models.RawReview {
		return []models.RawReview{reviewHTML(id, name, 4, "a day ago", "Fine")}
	}

	// Two throttled passes, a success, then two more throttled passes.
	// With a budget of 2 consecutive retries this must still finish clean.
	panel := &scriptedPanel{passes: []pass{
		{items: item("r1", "Alice"), hasMore: true},
		{err: ErrThrottled},
		{err: ErrThrottled},
		{items: item("r2", "Bob"), hasMore: true},
		{err: ErrThrottled},
		{err: ErrThrottled},
		{items: item("r3", "Carol"), hasMore: true},
		{items: item("r3", "Carol"), hasMore: true},
	}}

	loader := testLoader(3, 2)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalExhausted, terminal)
	assert.Len(t, records, 3)
}

func TestLoaderGivesUpAfterRetryBudget(t *testing.T) {
	t.Parallel()

	panel := &scriptedPanel{passes: []pass{
		{items: []models.RawReview{reviewHTML("r1", "Alice", 5, "2 weeks ago", "Great food")}, hasMore: true},
		{err: ErrThrottled},
	}}

	loader := testLoader(3, 2)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalMaxRetries, terminal)
	// Partial data collected before the throttle wall is kept.
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Reviewer)
	// 1 productive pass + budget of 2 retries + the pass that broke it.
	assert.Equal(t, 4, panel.calls)
}

func TestLoaderStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	panel := &scriptedPanel{passes: []pass{
		{items: []models.RawReview{reviewHTML("r1", "Alice", 5, "2 weeks ago", "Great food")}, hasMore: true},
		{before: cancel, items: nil, hasMore: true},
	}}

	loader := testLoader(3, 5)
	records, terminal := loader.Run(ctx, panel)

	assert.Equal(t, TerminalTimedOut, terminal)
	assert.Len(t, records, 1)
}

func TestLoaderEmptyPanelExhaustsWithNoRecords(t *testing.T) {
	t.Parallel()

	panel := &scriptedPanel{passes: []pass{{items: nil, hasMore: false}}}

	loader := testLoader(2, 5)
	records, terminal := loader.Run(context.Background(), panel)

	assert.Equal(t, TerminalExhausted, terminal)
	assert.Empty(t, records)
	assert.Equal(t, 2, panel.calls)
}
