package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/store"
	"github.com/roach88/drillstore/internal/testutil"
)

// Harness executes scenario steps against one document.
type Harness struct {
	store   *store.Store
	service *drill.Service
	seq     int64
}

// Run executes a scenario on a fresh in-memory document.
//
// Setup failures abort the run with an error. Flow outcomes that differ
// from their expectation, and failed assertions, are reported in the
// result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(st,
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithTokenGenerator(testutil.NewSequentialTokens(scenario.Name)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	h := &Harness{store: st, service: drill.New(eng)}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Setup {
		got, err := h.execute(ctx, PhaseSetup, step, result)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Action, err)
		}
		if got != OutcomeSuccess {
			return nil, fmt.Errorf("setup[%d] %s: failed with %s", i, step.Action, got)
		}
	}

	for i, step := range scenario.Flow {
		got, err := h.execute(ctx, PhaseFlow, step, result)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Action, err)
		}
		if step.Expect != "" && got != step.Expect {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected %s, got %s", i, step.Action, step.Expect, got))
		}
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, Service: h.service}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, phase string, step Step, result *Result) (string, error) {
	run, ok := actions[step.Action]
	if !ok {
		return "", fmt.Errorf("unknown action %q", step.Action)
	}
	got, err := run(ctx, h.service, step.Args)
	if err != nil {
		return "", err
	}

	stats, err := h.store.HistoryStats(ctx)
	if err != nil {
		return "", err
	}
	h.seq++
	result.AddTrace(TraceEvent{
		Seq:     h.seq,
		Phase:   phase,
		Action:  step.Action,
		Outcome: got,
		Undo:    stats.UndoGroups,
		Redo:    stats.RedoGroups,
	})
	return got, nil
}
