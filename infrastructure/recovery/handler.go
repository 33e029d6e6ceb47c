package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/tripwing/tripwing/domain/fault"
	"github.com/tripwing/tripwing/infrastructure/logging"
)

// FallbackFunc is a registered fallback for a (component, operation) pair.
// It receives the record of the fault that triggered it.
type FallbackFunc func(ctx context.Context, rec fault.Record) (any, error)

// Handler dispatches recovery strategies for classified faults. It owns the
// append-only fault history; entries leave the history only through
// PurgeOlderThan. Safe for concurrent use.
type Handler struct {
	mu         sync.Mutex
	history    []fault.Record
	strategies map[fault.Kind]fault.Strategy
	fallbacks  map[string]FallbackFunc
	maxRetries int
	delays     []time.Duration
}

// Option configures a handler at construction.
type Option func(*Handler)

// WithMaxRetries sets the retry budget per (component, operation) pair.
func WithMaxRetries(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxRetries = n
		}
	}
}

// WithDelays sets the retry delay schedule. Attempts beyond the schedule
// reuse its last entry.
func WithDelays(delays []time.Duration) Option {
	return func(h *Handler) {
		if len(delays) > 0 {
			h.delays = delays
		}
	}
}

// NewHandler creates a handler with the default strategy table, a retry
// budget of 3, and a 1s/2s/5s delay schedule.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		strategies: fault.DefaultStrategies(),
		fallbacks:  make(map[string]FallbackFunc),
		maxRetries: 3,
		delays:     []time.Duration{time.Second, 2 * time.Second, 5 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetStrategy overrides the recovery strategy for a fault kind. This is the
// only way the kind-to-strategy mapping changes after construction.
func (h *Handler) SetStrategy(kind fault.Kind, strategy fault.Strategy) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.strategies[kind] = strategy
}

// Strategy returns the current strategy for a kind.
func (h *Handler) Strategy(kind fault.Kind) fault.Strategy {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.strategies[kind]; ok {
		return s
	}
	return fault.StrategyFail
}

// RegisterFallback registers a fallback handler for a component/operation
// pair, replacing any previous registration.
func (h *Handler) RegisterFallback(component, operation string, fn FallbackFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallbacks[fallbackKey(component, operation)] = fn
}

// Handle classifies the fault, records it, and applies the configured
// recovery strategy. It never returns a bare error; every path produces a
// structured outcome.
func (h *Handler) Handle(ctx context.Context, err error, component, operation string, metadata map[string]any) fault.Outcome {
	kind := Classify(err, component)
	rec := fault.NewRecord(err, kind, component, operation, metadata)

	h.mu.Lock()
	prior := 0
	for _, r := range h.history {
		if r.Matches(component, operation) {
			prior++
		}
	}
	h.history = append(h.history, rec)
	strategy, ok := h.strategies[kind]
	if !ok {
		strategy = fault.StrategyFail
	}
	fn := h.fallbacks[fallbackKey(component, operation)]
	h.mu.Unlock()

	logging.Apply(logging.Get().Error(),
		logging.Component(component),
		logging.Operation(operation),
		logging.Kind(kind),
		logging.Strategy(strategy),
		logging.ErrorField(err),
	).Msg("fault handled")

	switch strategy {
	case fault.StrategyRetry:
		return h.scheduleRetry(ctx, rec, prior)
	case fault.StrategyFallback:
		return h.runFallback(ctx, rec, fn)
	case fault.StrategySkip:
		return fault.Skip(kind, err)
	case fault.StrategySwitchProvider:
		return fault.SuggestSwitchProvider(kind, err)
	case fault.StrategyUseCache:
		// No cache collaborator is wired in.
		return fault.CacheUnavailable(kind, err)
	default:
		return fault.Fail(kind, err)
	}
}

// scheduleRetry suspends the calling task for the scheduled delay and asks
// the caller to re-invoke. prior is the number of records for the same
// (component, operation) pair before this fault.
func (h *Handler) scheduleRetry(ctx context.Context, rec fault.Record, prior int) fault.Outcome {
	if prior >= h.maxRetries {
		return fault.RetriesExhausted(rec.Kind, rec.Err)
	}

	idx := prior
	if idx >= len(h.delays) {
		idx = len(h.delays) - 1
	}
	delay := h.delays[idx]

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		// The caller abandoned the wait; the outcome still reports the
		// schedule so an observer sees what was decided.
	}

	return fault.RetryScheduled(rec.Kind, rec.Err, prior+1, delay)
}

func (h *Handler) runFallback(ctx context.Context, rec fault.Record, fn FallbackFunc) fault.Outcome {
	if fn == nil {
		return fault.NoFallback(rec.Kind, rec.Err)
	}

	result, err := fn(ctx, rec)
	if err != nil {
		return fault.FallbackFailed(rec.Kind, rec.Err, err)
	}
	return fault.FallbackSucceeded(rec.Kind, result)
}

// History returns a snapshot of the fault history in record order.
func (h *Handler) History() []fault.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]fault.Record, len(h.history))
	copy(out, h.history)
	return out
}

// PurgeOlderThan removes records older than the given age and returns how
// many were removed. This is the only mutation the history permits.
func (h *Handler) PurgeOlderThan(age time.Duration) int {
	cutoff := time.Now().Add(-age)

	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.history[:0]
	removed := 0
	for _, r := range h.history {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		} else {
			removed++
		}
	}
	h.history = kept
	return removed
}

func fallbackKey(component, operation string) string {
	return component + "." + operation
}
