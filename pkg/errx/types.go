package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal failures of the scheduler itself
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents malformed input
	TypeValidation Type = "VALIDATION"

	// TypeNotFound represents unknown resources
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents state conflicts (duplicate ids, already running)
	TypeConflict Type = "CONFLICT"

	// TypeUnavailable represents temporary refusal to accept work
	TypeUnavailable Type = "UNAVAILABLE"

	// TypeTimeout represents deadline overruns
	TypeTimeout Type = "TIMEOUT"

	// TypeExternal represents errors from external collaborators
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
