package domain

import "errors"

// Error kinds surfaced by the screening core. Operations wrap these with
// fmt.Errorf("...: %w", Err...) so callers can classify failures with
// errors.Is regardless of the message.
var (
	// ErrNotFound indicates a referenced job, resume, application or
	// screening result does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an ownership or authorization violation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a duplicate application, an inactive job, an
	// already-screened application or an illegal status transition.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input, such as an empty
	// required-skills list.
	ErrValidation = errors.New("validation failed")

	// ErrScoring indicates a completion service transport failure or an
	// unparsable analysis response.
	ErrScoring = errors.New("scoring failed")

	// ErrInternal indicates a storage failure.
	ErrInternal = errors.New("internal error")
)
