package domain

import (
	"errors"
	"fmt"
)

// Taxonomy roots. Specific errors wrap exactly one root so transports can
// map them to a status code with errors.Is.
var (
	// ErrNotFound covers missing quizzes, attempts, and answers.
	ErrNotFound = errors.New("not found")
	// ErrAuthorization covers callers lacking the required role relationship.
	ErrAuthorization = errors.New("not allowed")
	// ErrConflict covers state transitions that are no longer legal.
	ErrConflict = errors.New("conflict")
	// ErrValidation covers malformed or out-of-range input.
	ErrValidation = errors.New("invalid input")
)

var (
	ErrQuizNotFound     = fmt.Errorf("%w: quiz", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)
	ErrAttemptNotFound  = fmt.Errorf("%w: attempt", ErrNotFound)
	ErrAnswerNotFound   = fmt.Errorf("%w: answer", ErrNotFound)

	ErrNotAttemptOwner     = fmt.Errorf("%w: caller does not own the attempt", ErrAuthorization)
	ErrNotClassroomTeacher = fmt.Errorf("%w: caller is not a teacher of the classroom", ErrAuthorization)

	ErrAlreadySubmitted = fmt.Errorf("%w: attempt already submitted", ErrConflict)
	ErrAttemptExists    = fmt.Errorf("%w: attempt already started for this quiz", ErrConflict)
	ErrAttemptBusy      = fmt.Errorf("%w: attempt is being modified", ErrConflict)

	ErrNotEssayQuestion = fmt.Errorf("%w: question is not an essay", ErrValidation)
	ErrPointsOutOfRange = fmt.Errorf("%w: points out of range", ErrValidation)
	ErrQuizPastDue      = fmt.Errorf("%w: quiz past due", ErrValidation)
)
