package services

// ErrorKind classifies a domain error so the HTTP layer can map it to a
// status code without string matching.
type ErrorKind int

const (
	// KindValidation marks a missing or malformed required field.
	KindValidation ErrorKind = iota
	// KindFormat marks a value that fails a shape check (e.g. email).
	KindFormat
	// KindPolicy marks a value that fails a policy check (e.g. weak password).
	KindPolicy
	// KindConflict marks a duplicate unique field.
	KindConflict
	// KindAuth marks bad credentials or an invalid token.
	KindAuth
	// KindForbidden marks an authenticated caller with insufficient
	// role or ownership.
	KindForbidden
	// KindNotFound marks a well-formed identifier with no matching record.
	KindNotFound
)

// Error is a domain error with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func formatError(message string) error {
	return &Error{Kind: KindFormat, Message: message}
}

func policyError(message string) error {
	return &Error{Kind: KindPolicy, Message: message}
}

func conflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func authError(message string) error {
	return &Error{Kind: KindAuth, Message: message}
}

func forbiddenError(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}
