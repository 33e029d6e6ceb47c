package fault

import "time"

// Recovery labels the path an outcome took. Callers branch on the label or
// the dedicated flags, never on a propagated fault.
type Recovery string

const (
	RecoveryRetryScheduled  Recovery = "retry_scheduled"
	RecoveryRetryExhausted  Recovery = "retry_exhausted"
	RecoveryFallbackSuccess Recovery = "fallback_success"
	RecoveryFallbackFailed  Recovery = "fallback_failed"
	RecoveryNoFallback      Recovery = "no_fallback_available"
	RecoverySkipped         Recovery = "skipped"
	RecoverySwitchProvider  Recovery = "switch_provider_suggested"
	RecoveryCacheMiss       Recovery = "cache_not_available"
	RecoveryFailed          Recovery = "failed"
)

// Outcome is the structured result of handling a fault. Every path through
// the recovery handler produces exactly one Outcome; none of them panic or
// return a bare error.
type Outcome struct {
	// Success is true only when a fallback handler recovered the operation.
	Success  bool
	Recovery Recovery
	Kind     Kind

	// Err holds the text of the originating fault.
	Err string

	// Retry fields, set when Recovery is retry_scheduled.
	Retry      bool
	RetryCount int
	RetryDelay time.Duration

	// Exhausted is set when max retries were already recorded.
	Exhausted bool

	// Fallback fields.
	FallbackUsed bool
	FallbackErr  string
	Result       any

	// Skipped marks a non-fatal skip.
	Skipped bool

	// SwitchProvider signals the caller should re-dispatch to another
	// text-generation backend. The handler performs no switching itself.
	SwitchProvider bool

	// Fatal marks a terminal failure.
	Fatal bool
}

// Terminal reports whether the outcome leaves no recovery path open.
func (o Outcome) Terminal() bool {
	return o.Fatal || o.Exhausted || o.Recovery == RecoveryFallbackFailed ||
		o.Recovery == RecoveryNoFallback || o.Recovery == RecoveryCacheMiss
}

// RetryScheduled creates an outcome asking the caller to re-invoke the
// failed operation after the given delay.
func RetryScheduled(kind Kind, err error, attempt int, delay time.Duration) Outcome {
	return Outcome{
		Recovery:   RecoveryRetryScheduled,
		Kind:       kind,
		Err:        errText(err),
		Retry:      true,
		RetryCount: attempt,
		RetryDelay: delay,
	}
}

// RetriesExhausted creates a terminal outcome after the retry budget is spent.
func RetriesExhausted(kind Kind, err error) Outcome {
	return Outcome{
		Recovery:  RecoveryRetryExhausted,
		Kind:      kind,
		Err:       errText(err),
		Exhausted: true,
		Fatal:     true,
	}
}

// FallbackSucceeded wraps a fallback handler's result as a recovered outcome.
func FallbackSucceeded(kind Kind, result any) Outcome {
	return Outcome{
		Success:      true,
		Recovery:     RecoveryFallbackSuccess,
		Kind:         kind,
		FallbackUsed: true,
		Result:       result,
	}
}

// FallbackFailed creates an outcome carrying both the original fault and the
// fallback handler's fault.
func FallbackFailed(kind Kind, original, fallback error) Outcome {
	return Outcome{
		Recovery:    RecoveryFallbackFailed,
		Kind:        kind,
		Err:         errText(original),
		FallbackErr: errText(fallback),
	}
}

// NoFallback creates an outcome for a fallback strategy with no registered
// handler for the component and operation.
func NoFallback(kind Kind, err error) Outcome {
	return Outcome{
		Recovery: RecoveryNoFallback,
		Kind:     kind,
		Err:      errText(err),
	}
}

// Skip creates a non-fatal skipped outcome.
func Skip(kind Kind, err error) Outcome {
	return Outcome{
		Recovery: RecoverySkipped,
		Kind:     kind,
		Err:      errText(err),
		Skipped:  true,
	}
}

// SuggestSwitchProvider creates an outcome signaling a provider switch.
func SuggestSwitchProvider(kind Kind, err error) Outcome {
	return Outcome{
		Recovery:       RecoverySwitchProvider,
		Kind:           kind,
		Err:            errText(err),
		SwitchProvider: true,
	}
}

// CacheUnavailable creates the outcome for the use-cache strategy when no
// cache collaborator is wired in.
func CacheUnavailable(kind Kind, err error) Outcome {
	return Outcome{
		Recovery: RecoveryCacheMiss,
		Kind:     kind,
		Err:      errText(err),
	}
}

// Fail creates a terminal failure outcome.
func Fail(kind Kind, err error) Outcome {
	return Outcome{
		Recovery: RecoveryFailed,
		Kind:     kind,
		Err:      errText(err),
		Fatal:    true,
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
