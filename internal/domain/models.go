package domain

import "time"

// QuestionType selects the grading rule applied to an answer.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	MultipleAnswer QuestionType = "MULTIPLE_ANSWER"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Essay          QuestionType = "ESSAY"
)

// Option represents a possible answer for a question. For SHORT_ANSWER
// questions the single correct option carries the canonical answer text.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models one quiz question. Points is the maximum awardable credit.
type Question struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Type    QuestionType `json:"type"`
	Points  float64      `json:"points"`
	Options []Option     `json:"options"`
}

// Quiz is an ordered collection of questions owned by a classroom.
type Quiz struct {
	ID          string     `json:"id"`
	ClassroomID string     `json:"classroomId"`
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Questions   []Question `json:"questions"`
}

// Attempt is one student's single instance of taking a quiz. SubmittedAt is
// nil while the attempt is in progress; Score is a percentage in [0,100].
type Attempt struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	StudentID   string     `json:"studentId"`
	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Score       float64    `json:"score"`
}

// Answer is one graded response to one question within one attempt.
type Answer struct {
	ID              string   `json:"id"`
	AttemptID       string   `json:"attemptId"`
	QuestionID      string   `json:"questionId"`
	SelectedOptions []string `json:"selectedOptions,omitempty"`
	TextAnswer      string   `json:"textAnswer,omitempty"`
	Correct         bool     `json:"correct"`
	Points          float64  `json:"points"`
}

// AnswerSubmission is the validated per-question input from a student.
type AnswerSubmission struct {
	QuestionID      string
	SelectedOptions []string
	TextAnswer      string
}

// AttemptState is the derived lifecycle stage of an attempt. It is never
// stored; StateSubmitted means essay answers are still awaiting a grade.
type AttemptState string

const (
	StateInProgress AttemptState = "IN_PROGRESS"
	StateSubmitted  AttemptState = "SUBMITTED"
	StateGraded     AttemptState = "GRADED"
)

// AttemptResult is the event published on the live results feed whenever an
// attempt's score changes.
type AttemptResult struct {
	AttemptID string       `json:"attemptId"`
	QuizID    string       `json:"quizId"`
	StudentID string       `json:"studentId"`
	Score     float64      `json:"score"`
	State     AttemptState `json:"state"`
	At        time.Time    `json:"at"`
}

// State derives the attempt's lifecycle stage from its submission flag and
// its essay answers. An essay answer sitting at zero points is treated as
// ungraded; a teacher deliberately awarding zero is indistinguishable here.
func State(attempt Attempt, answers []Answer, questions []Question) AttemptState {
	if attempt.SubmittedAt == nil {
		return StateInProgress
	}
	essay := make(map[string]bool, len(questions))
	for _, q := range questions {
		if q.Type == Essay {
			essay[q.ID] = true
		}
	}
	for _, a := range answers {
		if essay[a.QuestionID] && a.Points == 0 && !a.Correct {
			return StateSubmitted
		}
	}
	return StateGraded
}
