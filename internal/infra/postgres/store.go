package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"classroom-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// Store persists quizzes, attempts, and answers in Postgres. It implements
// app.QuizRepository, app.AttemptStore, and app.ClassroomRoster.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, classroom_id, title, due_date FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.ClassroomID, &quiz.Title, &quiz.DueDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, prompt, qtype, points FROM questions WHERE quiz_id=$1 ORDER BY position, id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Type, &q.Points); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(quiz.Questions)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}

	optRows, err := s.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.text, o.correct
		   FROM options o JOIN questions q ON q.id = o.question_id
		  WHERE q.quiz_id=$1 ORDER BY o.position, o.id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt domain.Option
		var questionID string
		if err := optRows.Scan(&opt.ID, &questionID, &opt.Text, &opt.Correct); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan option: %w", err)
		}
		if i, ok := index[questionID]; ok {
			quiz.Questions[i].Options = append(quiz.Questions[i].Options, opt)
		}
	}
	if err := optRows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load options: %w", err)
	}
	return quiz, nil
}

func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (id, quiz_id, student_id, started_at) VALUES ($1, $2, $3, $4)`,
		attempt.ID, attempt.QuizID, attempt.StudentID, attempt.StartedAt)
	if isUniqueViolation(err) {
		return domain.ErrAttemptExists
	}
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *Store) AttemptByID(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var attempt domain.Attempt
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, started_at, submitted_at, score FROM attempts WHERE id=$1`, attemptID).
		Scan(&attempt.ID, &attempt.QuizID, &attempt.StudentID, &attempt.StartedAt, &attempt.SubmittedAt, &attempt.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

func (s *Store) AttemptAnswers(ctx context.Context, attemptID string) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, selected_options, text_answer, correct, points
		   FROM answers WHERE attempt_id=$1`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptions, &a.TextAnswer, &a.Correct, &a.Points); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return answers, nil
}

// SubmitAttempt writes the answers and flips the attempt in one transaction.
// The WHERE submitted_at IS NULL predicate is the serialization point: a
// racing submission finds zero rows updated and the whole transaction rolls
// back, leaving no answer rows behind.
func (s *Store) SubmitAttempt(ctx context.Context, attemptID string, answers []domain.Answer, score float64, submittedAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range answers {
		selected := a.SelectedOptions
		if selected == nil {
			selected = []string{}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO answers (id, attempt_id, question_id, selected_options, text_answer, correct, points)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.AttemptID, a.QuestionID, selected, a.TextAnswer, a.Correct, a.Points)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE attempts SET submitted_at=$2, score=$3 WHERE id=$1 AND submitted_at IS NULL`,
		attemptID, submittedAt, score)
	if err != nil {
		return fmt.Errorf("submit attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySubmitted
	}
	return tx.Commit(ctx)
}

func (s *Store) AnswerByID(ctx context.Context, answerID string) (domain.Answer, error) {
	var a domain.Answer
	err := s.pool.QueryRow(ctx,
		`SELECT id, attempt_id, question_id, selected_options, text_answer, correct, points
		   FROM answers WHERE id=$1`, answerID).
		Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptions, &a.TextAnswer, &a.Correct, &a.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load answer: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAnswerGrade(ctx context.Context, answerID string, points float64, correct bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE answers SET points=$2, correct=$3 WHERE id=$1`, answerID, points, correct)
	if err != nil {
		return fmt.Errorf("update answer grade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAnswerNotFound
	}
	return nil
}

func (s *Store) UpdateAttemptScore(ctx context.Context, attemptID string, score float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE attempts SET score=$2 WHERE id=$1`, attemptID, score)
	if err != nil {
		return fmt.Errorf("update attempt score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *Store) IsTeacher(ctx context.Context, classroomID, userID string) (bool, error) {
	var teaches bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM classroom_teachers WHERE classroom_id=$1 AND user_id=$2)`,
		classroomID, userID).Scan(&teaches)
	if err != nil {
		return false, fmt.Errorf("check roster: %w", err)
	}
	return teaches, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
