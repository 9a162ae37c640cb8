package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/roach88/drillstore/internal/store"
)

// Engine runs actions against one document store.
//
// An action is one logical user operation: it opens a fresh undo group,
// runs inside a single SQL transaction and either commits completely or
// leaves the document and both history logs exactly as they were.
//
// Thread-safety model:
//   - Do, Undo, Redo: safe from any goroutine; actions are serialized by mu
//   - Store reads outside an action may run at any time and only ever
//     observe committed groups
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	clock   Clock
	tokens  TokenGenerator
	logger  *slog.Logger
	metrics *metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp created_at and updated_at.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithTokenGenerator sets the source of per-action tokens.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over s.
//
// Defaults: SystemClock, UUIDv7Generator, slog.Default().
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		clock:   SystemClock{},
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store, for reads.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Tx is the handle an action body writes through. It embeds the store
// transaction for reads and history bookkeeping and adds the Mutation
// Layer (see mutation.go).
type Tx struct {
	*store.Tx
	engine *Engine
	logger *slog.Logger
}

// Engine returns the engine running the action.
func (t *Tx) Engine() *Engine {
	return t.engine
}

// Logger returns a logger carrying the action name and token.
func (t *Tx) Logger() *slog.Logger {
	return t.logger
}

// Now returns the action's timestamp in the store's text format.
func (t *Tx) Now() string {
	return Timestamp(t.engine.clock.Now())
}

// Do runs fn as one action named name.
//
// Do opens a new undo group, so everything fn writes through the Mutation
// Layer with UseCurrentGroup undoes as one step. When fn fails the SQL
// transaction is rolled back: the document, the group counter and the redo
// log are left as they were before the action.
//
// Once started an action cannot be cancelled; ctx only carries values.
// Errors returned are always *Error.
func (e *Engine) Do(ctx context.Context, name string, fn func(ctx context.Context, tx *Tx) error) error {
	return e.run(ctx, name, true, fn)
}

func (e *Engine) run(ctx context.Context, name string, advance bool, fn func(ctx context.Context, tx *Tx) error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	token := e.tokens.Generate()
	logger := e.logger.With("action", name, "token", token)
	start := time.Now()

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.actions.WithLabelValues(name, outcome).Inc()
		e.metrics.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	stx, err := e.store.Begin(ctx)
	if err != nil {
		return e.fail(logger, err)
	}
	stx.SetAction(name + ":" + token)
	tx := &Tx{Tx: stx, engine: e, logger: logger}

	if err := e.runBody(ctx, tx, advance, fn); err != nil {
		if rbErr := stx.Rollback(); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		return e.fail(logger, err)
	}

	// Deferred foreign keys are checked here. On failure the driver has
	// already rolled the transaction back.
	if err := stx.Commit(); err != nil {
		return e.fail(logger, err)
	}

	e.refreshUndoDepth(ctx, logger)
	logger.Debug("action committed", "duration", time.Since(start))
	return nil
}

// runBody advances the group and calls fn, converting a panic into an
// internal error so the caller always gets a structured failure.
func (e *Engine) runBody(ctx context.Context, tx *Tx, advance bool, fn func(ctx context.Context, tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{
				Code:    ErrCodeInternal,
				Message: fmt.Sprintf("panic: %v", r),
				stack:   string(debug.Stack()),
			}
		}
	}()

	if advance {
		group, err := tx.AdvanceGroup(ctx)
		if err != nil {
			return err
		}
		tx.logger = tx.logger.With("group", group)
	}
	return fn(ctx, tx)
}

func (e *Engine) fail(logger *slog.Logger, err error) *Error {
	ee := classify(err)
	switch ee.Code {
	case ErrCodeBrokenInvariant:
		logger.Error("document may be corrupted", "error", err, "table", ee.Table, "ids", ee.IDs)
	case ErrCodeInternal:
		if ee.stack == "" {
			ee.stack = string(debug.Stack())
		}
		logger.Error("action failed", "error", err)
	default:
		logger.Info("action rejected", "code", ee.Code, "error", err)
	}
	return ee
}

func (e *Engine) refreshUndoDepth(ctx context.Context, logger *slog.Logger) {
	stats, err := e.store.HistoryStats(ctx)
	if err != nil {
		logger.Warn("read history stats", "error", err)
		return
	}
	e.metrics.undoDepth.Set(float64(stats.UndoGroups))
}
