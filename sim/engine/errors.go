package engine

import "fmt"

// ConfigurationError reports a missing required parameter or an
// unrecognized option, discovered before simulation starts.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return fmt.Sprintf("configuration error: %s", e.Msg) }

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// InputFormatError reports a malformed point or model file, aborting
// loading.
type InputFormatError struct {
	Msg string
}

func (e *InputFormatError) Error() string { return fmt.Sprintf("input format error: %s", e.Msg) }

// NewInputFormatError builds an InputFormatError with a formatted message.
func NewInputFormatError(format string, args ...any) error {
	return &InputFormatError{Msg: fmt.Sprintf(format, args...)}
}

// InvariantViolation signals state corruption: a find_and_destroy miss, a
// get_nth overflow, a propensity-sum mismatch during selection, or any
// other bug class. Carries diagnostic
// state (bucket sizes, counts, last operation) for the crash log.
type InvariantViolation struct {
	Msg   string
	State string // free-form diagnostic snapshot, e.g. counts/bucket sizes
}

func (e *InvariantViolation) Error() string {
	if e.State == "" {
		return fmt.Sprintf("invariant violation: %s", e.Msg)
	}
	return fmt.Sprintf("invariant violation: %s (state: %s)", e.Msg, e.State)
}

// NewInvariantViolation builds an InvariantViolation with an optional
// diagnostic state string.
func NewInvariantViolation(state, format string, args ...any) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...), State: state}
}

// HaltCondition is not an error: it reports the normal termination reason
// of a completed run.
type HaltCondition struct {
	Reason string
}

func (h *HaltCondition) Error() string { return h.Reason }

// NewHaltCondition builds a HaltCondition with the given human-readable
// reason.
func NewHaltCondition(reason string) *HaltCondition {
	return &HaltCondition{Reason: reason}
}
