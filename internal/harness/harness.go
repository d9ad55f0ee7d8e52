package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/timeline/internal/cursor"
	"github.com/roach88/timeline/internal/paging"
	"github.com/roach88/timeline/internal/record"
	"github.com/roach88/timeline/internal/store"
	"github.com/roach88/timeline/internal/testutil"
)

// Harness holds the state of one scenario run.
type Harness struct {
	scenario  *Scenario
	store     *store.Store
	paginator *paging.Paginator
	logger    *slog.Logger

	// last is the most recent page fetched without error. Older and newer
	// steps follow its cursors.
	last *paging.Page
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and fixed record IDs, so two runs produce identical traces.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Create the seed records, oldest first
// 3. Execute steps, checking expect clauses on fetches
// 4. Return result with pass/fail, trace, and errors
//
// An error is returned only when the scenario could not be executed at all;
// expectation mismatches are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, slog.New(slog.DiscardHandler))
}

// RunContext is Run with a caller-supplied context and logger.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	start, _ := scenario.start()
	tick, _ := scenario.tick()

	st, err := store.Open(":memory:",
		store.WithClock(testutil.NewDeterministicClock(start, tick)),
		store.WithIDGenerator(record.NewFixedGenerator(scenario.ids()...)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario:  scenario,
		store:     st,
		paginator: paging.New(st, paging.WithLogger(logger)),
		logger:    logger,
	}

	result := NewResult()
	if err := h.seed(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to seed records: %w", err)
	}

	for i := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, &scenario.Steps[i], result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	return result, nil
}

// seed creates the scenario's records and generated records in order.
func (h *Harness) seed(ctx context.Context, result *Result) error {
	count := 0
	for _, r := range h.scenario.Records {
		if _, err := h.create(ctx, r); err != nil {
			return err
		}
		count++
	}
	if g := h.scenario.Generate; g != nil {
		for i := 1; i <= g.Count; i++ {
			seed := RecordSeed{
				ID:    fmt.Sprintf("%s%02d", g.Prefix, i),
				Attrs: map[string]any{"n": i},
			}
			if _, err := h.create(ctx, seed); err != nil {
				return err
			}
			count++
		}
	}

	result.AddTrace(TraceEvent{Type: EventSeed, Count: count})
	h.logger.Debug("seeded scenario", "scenario", h.scenario.Name, "count", count)
	return nil
}

// create stores one record. The ID generator hands out IDs in the same
// order Scenario.ids lists them; a mismatch means the scenario and the
// generator disagree and is reported as an error.
func (h *Harness) create(ctx context.Context, seed RecordSeed) (record.Record, error) {
	attrs, err := toAttrs(seed.Attrs)
	if err != nil {
		return record.Record{}, fmt.Errorf("record %q: %w", seed.ID, err)
	}
	rec, err := h.store.CreateRecord(ctx, h.scenario.Collection, attrs)
	if err != nil {
		return record.Record{}, fmt.Errorf("record %q: %w", seed.ID, err)
	}
	if rec.ID != seed.ID {
		return record.Record{}, fmt.Errorf("record %q was stored as %q", seed.ID, rec.ID)
	}
	return rec, nil
}

func (h *Harness) executeStep(ctx context.Context, n int, step *Step, result *Result) error {
	switch {
	case step.Create != nil:
		rec, err := h.create(ctx, *step.Create)
		if err != nil {
			return err
		}
		result.AddTrace(TraceEvent{
			Type:      EventCreate,
			Step:      n,
			ID:        rec.ID,
			UpdatedAt: cursor.Encode(rec.UpdatedAt),
		})
		return nil

	case step.Touch != "":
		attrs, err := toAttrs(step.Attrs)
		if err != nil {
			return fmt.Errorf("touch %q: %w", step.Touch, err)
		}
		rec, err := h.store.TouchRecord(ctx, step.Touch, attrs)
		if err != nil {
			return fmt.Errorf("touch %q: %w", step.Touch, err)
		}
		result.AddTrace(TraceEvent{
			Type:      EventTouch,
			Step:      n,
			ID:        rec.ID,
			UpdatedAt: cursor.Encode(rec.UpdatedAt),
		})
		return nil

	default:
		return h.fetch(ctx, n, step, result)
	}
}

// fetch requests a page and checks it against the step's expectation.
func (h *Harness) fetch(ctx context.Context, n int, step *Step, result *Result) error {
	q := paging.Query{
		Collection: h.scenario.Collection,
		OrderField: h.scenario.orderField(),
		PageSize:   h.scenario.PageSize,
	}
	if step.OrderField != "" {
		q.OrderField = record.Field(step.OrderField)
	}
	if step.PageSize != nil {
		q.PageSize = *step.PageSize
	}

	var c string
	if step.Cursor != nil {
		c = *step.Cursor
	} else if step.Fetch != FetchFirst {
		c = h.follow(step.Fetch)
		if c == "" {
			result.AddError(fmt.Sprintf("step %d: previous page has no %s cursor to follow", n, step.Fetch))
			return nil
		}
	}
	switch step.Fetch {
	case FetchOlder:
		q.Before = c
	case FetchNewer:
		q.After = c
	}

	event := TraceEvent{Type: EventFetch, Step: n, Direction: step.Fetch, Cursor: c}

	page, err := h.paginator.FetchPage(ctx, q)
	if err != nil {
		var perr *paging.Error
		if !errors.As(err, &perr) {
			return fmt.Errorf("fetch %s: %w", step.Fetch, err)
		}
		event.Error = string(perr.Code)
	} else {
		h.last = page
		event.IDs = recordIDs(page.Records)
		event.Older = page.Older
		event.Newer = page.Newer
	}
	result.AddTrace(event)

	if step.Expect != nil {
		for _, msg := range checkExpect(step.Expect, event) {
			result.AddError(fmt.Sprintf("step %d: %s", n, msg))
		}
	}

	h.logger.Debug("fetch step completed",
		"step", n,
		"direction", step.Fetch,
		"ids", event.IDs,
		"error", event.Error,
	)
	return nil
}

// follow returns the cursor of the last page in the given direction.
func (h *Harness) follow(direction string) string {
	if h.last == nil {
		return ""
	}
	if direction == FetchOlder {
		return h.last.Older
	}
	return h.last.Newer
}

// checkExpect compares a fetch event with its expectation and returns one
// message per mismatch.
func checkExpect(want *Expect, got TraceEvent) []string {
	var msgs []string

	if want.Error != "" || got.Error != "" {
		if want.Error != got.Error {
			msgs = append(msgs, fmt.Sprintf("expected error %q, got %q", want.Error, got.Error))
		}
		return msgs
	}

	if want.IDs != nil && !slices.Equal(want.IDs, got.IDs) {
		msgs = append(msgs, fmt.Sprintf("expected ids %v, got %v", want.IDs, got.IDs))
	}
	if want.Older != nil && *want.Older != (got.Older != "") {
		msgs = append(msgs, fmt.Sprintf("expected older cursor present=%t, got %q", *want.Older, got.Older))
	}
	if want.Newer != nil && *want.Newer != (got.Newer != "") {
		msgs = append(msgs, fmt.Sprintf("expected newer cursor present=%t, got %q", *want.Newer, got.Newer))
	}

	return msgs
}

func recordIDs(records []record.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// toAttrs converts YAML-decoded attributes. Nil stays nil.
func toAttrs(m map[string]any) (record.Attrs, error) {
	if m == nil {
		return nil, nil
	}
	v, err := record.FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(record.Map), nil
}
