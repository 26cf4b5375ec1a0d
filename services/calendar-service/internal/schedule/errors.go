package schedule

import "errors"

// Reason is the machine-readable cause attached to every engine validation
// failure. Handlers map these to HTTP statuses; clients branch on the string.
type Reason string

const (
	ReasonMissingTimes     Reason = "MISSING_TIMES"
	ReasonInvalidTimeRange Reason = "INVALID_TIME_RANGE"
	ReasonPastTime         Reason = "PAST_TIME"
	ReasonInvalidFormat    Reason = "INVALID_FORMAT"
	ReasonNoSlotsGenerated Reason = "NO_SLOTS_GENERATED"
	ReasonNoMatches        Reason = "NO_MATCHES"
)

// ValidationError is always recoverable: the caller fixes the input and
// retries. Nothing in this package retries on its own.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Detail
}

func validationErr(reason Reason, detail string) error {
	return &ValidationError{Reason: reason, Detail: detail}
}

// ReasonOf extracts the validation reason from an error chain.
func ReasonOf(err error) (Reason, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return "", false
}
