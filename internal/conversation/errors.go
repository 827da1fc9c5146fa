package conversation

// ValidationError reports input the history refuses to record.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + e.Reason
}

var (
	ErrNotInitialized = &ValidationError{Reason: "conversation has not been reset"}
	ErrEmptyContent   = &ValidationError{Reason: "content is empty"}
)
