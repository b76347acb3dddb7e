package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestions is returned when the selected banks yield an empty question pool.
	ErrNoQuestions = errors.New("no questions available for the selected banks")
	// ErrBankNotFound indicates the bank id is unknown to the repository.
	ErrBankNotFound = errors.New("bank not found")
	// ErrBuiltinReadOnly is returned when a caller tries to mutate the built-in bank.
	ErrBuiltinReadOnly = errors.New("built-in bank cannot be modified")
	// ErrTableNotFound is returned when a game table has not been opened.
	ErrTableNotFound = errors.New("game table not found")
	// ErrMalformedJSON means an import document could not be parsed at all.
	ErrMalformedJSON = errors.New("malformed JSON")
	// ErrImportCancelled is returned when the caller chose to cancel a conflicting import.
	ErrImportCancelled = errors.New("import cancelled")
	// ErrNameConflict means an import needs a conflict policy before it can be committed.
	ErrNameConflict = errors.New("a custom bank with this name already exists")
	// ErrValidation is matched by every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes the first rule an input violated.
type ValidationError struct {
	Field    string
	Question int // 1-based question number, 0 when not question-specific
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Question > 0 {
		return fmt.Sprintf("question %d: %s", e.Question, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError that is not tied to a question.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidQuestion builds a ValidationError for the question at 0-based index i.
func InvalidQuestion(i int, field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Question: i + 1, Message: fmt.Sprintf(format, args...)}
}
