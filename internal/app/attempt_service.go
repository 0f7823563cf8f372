package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"classroom-quiz-service/internal/domain"
)

// QuizRepository loads quiz definitions (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptStore abstracts how attempts and answers are persisted.
type AttemptStore interface {
	// CreateAttempt fails with domain.ErrAttemptExists when the student
	// already has an attempt for the quiz.
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	AttemptByID(ctx context.Context, attemptID string) (domain.Attempt, error)
	AttemptAnswers(ctx context.Context, attemptID string) ([]domain.Answer, error)
	// SubmitAttempt persists the answers and flips the attempt to submitted
	// atomically. It fails with domain.ErrAlreadySubmitted when the attempt
	// was submitted in the meantime, creating no answer rows.
	SubmitAttempt(ctx context.Context, attemptID string, answers []domain.Answer, score float64, submittedAt time.Time) error
	AnswerByID(ctx context.Context, answerID string) (domain.Answer, error)
	UpdateAnswerGrade(ctx context.Context, answerID string, points float64, correct bool) error
	UpdateAttemptScore(ctx context.Context, attemptID string, score float64) error
}

// ClassroomRoster answers role questions against classroom membership. The
// identity itself is verified by an external provider before it gets here.
type ClassroomRoster interface {
	// IsTeacher reports whether userID owns or teaches the classroom.
	IsTeacher(ctx context.Context, classroomID, userID string) (bool, error)
}

// SubmitGuard serializes score-changing operations on a single attempt so
// two concurrent submissions cannot both pass the already-submitted check.
type SubmitGuard interface {
	Acquire(ctx context.Context, attemptID string) (release func(), err error)
}

// AttemptService contains the quiz attempt use cases: start, submit with
// automatic grading, essay re-grading, and review.
type AttemptService struct {
	quizzes QuizRepository
	store   AttemptStore
	roster  ClassroomRoster
	guard   SubmitGuard
	feed    *ResultsFeed
	now     func() time.Time
	newID   func() string
}

func NewAttemptService(quizzes QuizRepository, store AttemptStore, roster ClassroomRoster, guard SubmitGuard, feed *ResultsFeed) *AttemptService {
	return &AttemptService{
		quizzes: quizzes,
		store:   store,
		roster:  roster,
		guard:   guard,
		feed:    feed,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(quizzes QuizRepository, store AttemptStore, roster ClassroomRoster, guard SubmitGuard, feed *ResultsFeed, now func() time.Time) *AttemptService {
	s := NewAttemptService(quizzes, store, roster, guard, feed)
	s.now = now
	return s
}

// StartAttempt creates an in-progress attempt for the caller. Quizzes past
// their due date reject new attempts; scoring itself never checks the due
// date.
func (s *AttemptService) StartAttempt(ctx context.Context, callerID, quizID string) (domain.Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if quiz.DueDate != nil && s.now().After(*quiz.DueDate) {
		return domain.Attempt{}, domain.ErrQuizPastDue
	}

	attempt := domain.Attempt{
		ID:        s.newID(),
		QuizID:    quiz.ID,
		StudentID: callerID,
		StartedAt: s.now(),
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// ScoreAttempt grades the submitted answers, persists them together with the
// aggregate score, and marks the attempt submitted. Submitted answers that
// match no question in the quiz are skipped and contribute to neither the
// earned nor the total points.
func (s *AttemptService) ScoreAttempt(ctx context.Context, callerID, attemptID string, submissions []domain.AnswerSubmission) (domain.Attempt, []domain.Answer, error) {
	release, err := s.guard.Acquire(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, nil, err
	}
	defer release()

	attempt, err := s.store.AttemptByID(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, nil, err
	}
	if attempt.StudentID != callerID {
		return domain.Attempt{}, nil, domain.ErrNotAttemptOwner
	}
	if attempt.SubmittedAt != nil {
		return domain.Attempt{}, nil, domain.ErrAlreadySubmitted
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, nil, err
	}

	var (
		answers       []domain.Answer
		total, earned float64
		seen          = make(map[string]struct{}, len(submissions))
	)
	for _, sub := range submissions {
		question, ok := findQuestion(quiz, sub.QuestionID)
		if !ok {
			continue
		}
		if _, dup := seen[sub.QuestionID]; dup {
			continue
		}
		seen[sub.QuestionID] = struct{}{}

		total += question.Points
		correct, points := gradeAnswer(question, sub)
		earned += points
		answers = append(answers, domain.Answer{
			ID:              s.newID(),
			AttemptID:       attempt.ID,
			QuestionID:      question.ID,
			SelectedOptions: sub.SelectedOptions,
			TextAnswer:      sub.TextAnswer,
			Correct:         correct,
			Points:          points,
		})
	}

	score := percentage(earned, total)
	submittedAt := s.now()
	if err := s.store.SubmitAttempt(ctx, attempt.ID, answers, score, submittedAt); err != nil {
		return domain.Attempt{}, nil, err
	}
	attempt.SubmittedAt = &submittedAt
	attempt.Score = score

	s.publish(attempt, answers, quiz)
	return attempt, answers, nil
}

// GradeEssayAnswer assigns a manual point value to an essay answer and
// recomputes the attempt's aggregate score from persisted state. The
// recomputation denominator is the full quiz's question points, unlike the
// submission-time denominator which covers answered questions only.
func (s *AttemptService) GradeEssayAnswer(ctx context.Context, callerID, answerID string, points float64) (domain.Attempt, error) {
	answer, err := s.store.AnswerByID(ctx, answerID)
	if err != nil {
		return domain.Attempt{}, err
	}
	attempt, err := s.store.AttemptByID(ctx, answer.AttemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, err
	}

	teaches, err := s.roster.IsTeacher(ctx, quiz.ClassroomID, callerID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !teaches {
		return domain.Attempt{}, domain.ErrNotClassroomTeacher
	}

	question, ok := findQuestion(quiz, answer.QuestionID)
	if !ok {
		return domain.Attempt{}, domain.ErrQuestionNotFound
	}
	if question.Type != domain.Essay {
		return domain.Attempt{}, domain.ErrNotEssayQuestion
	}
	if points < 0 || points > question.Points {
		return domain.Attempt{}, domain.ErrPointsOutOfRange
	}

	release, err := s.guard.Acquire(ctx, attempt.ID)
	if err != nil {
		return domain.Attempt{}, err
	}
	defer release()

	if err := s.store.UpdateAnswerGrade(ctx, answerID, points, points > 0); err != nil {
		return domain.Attempt{}, err
	}

	// Recompute from current persisted state rather than adjusting a running
	// total, so repeated grading of the same answer cannot drift.
	answers, err := s.store.AttemptAnswers(ctx, attempt.ID)
	if err != nil {
		return domain.Attempt{}, err
	}
	var total, earned float64
	for _, q := range quiz.Questions {
		total += q.Points
	}
	for _, a := range answers {
		earned += a.Points
	}
	score := percentage(earned, total)
	if err := s.store.UpdateAttemptScore(ctx, attempt.ID, score); err != nil {
		return domain.Attempt{}, err
	}
	attempt.Score = score

	s.publish(attempt, answers, quiz)
	return attempt, nil
}

// GetAttempt returns the attempt with its answers and derived state. Visible
// to the attempt's owner and to teachers of the quiz's classroom.
func (s *AttemptService) GetAttempt(ctx context.Context, callerID, attemptID string) (domain.Attempt, []domain.Answer, domain.AttemptState, error) {
	attempt, err := s.store.AttemptByID(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, nil, "", err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, nil, "", err
	}
	if attempt.StudentID != callerID {
		teaches, err := s.roster.IsTeacher(ctx, quiz.ClassroomID, callerID)
		if err != nil {
			return domain.Attempt{}, nil, "", err
		}
		if !teaches {
			return domain.Attempt{}, nil, "", domain.ErrNotAttemptOwner
		}
	}
	answers, err := s.store.AttemptAnswers(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, nil, "", err
	}
	return attempt, answers, domain.State(attempt, answers, quiz.Questions), nil
}

// WatchQuiz subscribes a classroom teacher to the quiz's live results feed.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AttemptService) WatchQuiz(ctx context.Context, callerID, quizID string) (<-chan domain.AttemptResult, func(), error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	teaches, err := s.roster.IsTeacher(ctx, quiz.ClassroomID, callerID)
	if err != nil {
		return nil, nil, err
	}
	if !teaches {
		return nil, nil, domain.ErrNotClassroomTeacher
	}
	ch, cancel := s.feed.Subscribe(quizID)
	return ch, cancel, nil
}

func (s *AttemptService) publish(attempt domain.Attempt, answers []domain.Answer, quiz domain.Quiz) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(domain.AttemptResult{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		StudentID: attempt.StudentID,
		Score:     attempt.Score,
		State:     domain.State(attempt, answers, quiz.Questions),
		At:        s.now(),
	})
}
