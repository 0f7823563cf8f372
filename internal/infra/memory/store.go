package memory

import (
	"context"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
)

// Store is an in-memory implementation of app.QuizRepository and
// app.AttemptStore, used by tests and postgres-less demo runs.
type Store struct {
	mu       sync.RWMutex
	quizzes  map[string]domain.Quiz
	attempts map[string]domain.Attempt
	answers  map[string]domain.Answer
	// one attempt per (quiz, student)
	attemptKeys map[string]string
}

func NewStore(quizzes map[string]domain.Quiz) *Store {
	if quizzes == nil {
		quizzes = make(map[string]domain.Quiz)
	}
	return &Store{
		quizzes:     quizzes,
		attempts:    make(map[string]domain.Attempt),
		answers:     make(map[string]domain.Answer),
		attemptKeys: make(map[string]string),
	}
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attempt.QuizID + "/" + attempt.StudentID
	if _, ok := s.attemptKeys[key]; ok {
		return domain.ErrAttemptExists
	}
	s.attemptKeys[key] = attempt.ID
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *Store) AttemptByID(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if attempt, ok := s.attempts[attemptID]; ok {
		return attempt, nil
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *Store) AttemptAnswers(_ context.Context, attemptID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var answers []domain.Answer
	for _, a := range s.answers {
		if a.AttemptID == attemptID {
			answers = append(answers, a)
		}
	}
	return answers, nil
}

func (s *Store) SubmitAttempt(_ context.Context, attemptID string, answers []domain.Answer, score float64, submittedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.SubmittedAt != nil {
		return domain.ErrAlreadySubmitted
	}
	for _, a := range answers {
		s.answers[a.ID] = a
	}
	attempt.SubmittedAt = &submittedAt
	attempt.Score = score
	s.attempts[attemptID] = attempt
	return nil
}

func (s *Store) AnswerByID(_ context.Context, answerID string) (domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if answer, ok := s.answers[answerID]; ok {
		return answer, nil
	}
	return domain.Answer{}, domain.ErrAnswerNotFound
}

func (s *Store) UpdateAnswerGrade(_ context.Context, answerID string, points float64, correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerID]
	if !ok {
		return domain.ErrAnswerNotFound
	}
	answer.Points = points
	answer.Correct = correct
	s.answers[answerID] = answer
	return nil
}

func (s *Store) UpdateAttemptScore(_ context.Context, attemptID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	attempt.Score = score
	s.attempts[attemptID] = attempt
	return nil
}

// Roster is an in-memory classroom membership map: classroom ID to the set
// of owner/teacher user IDs.
type Roster struct {
	mu       sync.RWMutex
	teachers map[string]map[string]struct{}
}

func NewRoster(teachers map[string][]string) *Roster {
	r := &Roster{teachers: make(map[string]map[string]struct{}, len(teachers))}
	for classroomID, ids := range teachers {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		r.teachers[classroomID] = set
	}
	return r
}

func (r *Roster) IsTeacher(_ context.Context, classroomID, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.teachers[classroomID][userID]
	return ok, nil
}
