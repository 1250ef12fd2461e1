package quiz

import "errors"

var (
	// ErrEmptyPool means a session was started with zero eligible questions.
	// No TestSession record is created when this is returned.
	ErrEmptyPool = errors.New("quiz: no eligible questions")

	// ErrInvalidState means an operation was called outside the session
	// state that allows it. This is a caller contract violation and is
	// surfaced loudly rather than ignored.
	ErrInvalidState = errors.New("quiz: operation not valid in current session state")

	// ErrQuestionNotFound means the referenced question is not part of the
	// running session.
	ErrQuestionNotFound = errors.New("quiz: question not in session")

	// ErrEndOfSession means Advance was called on the final question.
	ErrEndOfSession = errors.New("quiz: already at the last question")
)
