package app

import (
	"testing"

	"classroom-quiz-service/internal/domain"
)

func TestGradeSingleChoice(t *testing.T) {
	question := domain.Question{
		ID:     "q1",
		Type:   domain.MultipleChoice,
		Points: 10,
		Options: []domain.Option{
			{ID: "a", Text: "3"},
			{ID: "b", Text: "4", Correct: true},
			{ID: "c", Text: "5"},
		},
	}

	cases := []struct {
		name        string
		selected    []string
		wantCorrect bool
		wantPoints  float64
	}{
		{"correct option", []string{"b"}, true, 10},
		{"wrong option", []string{"a"}, false, 0},
		{"unknown option", []string{"z"}, false, 0},
		{"nothing selected", nil, false, 0},
		{"multiple selected", []string{"a", "b"}, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := gradeAnswer(question, domain.AnswerSubmission{QuestionID: "q1", SelectedOptions: tc.selected})
			if correct != tc.wantCorrect || points != tc.wantPoints {
				t.Fatalf("got correct=%v points=%v, want correct=%v points=%v", correct, points, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestGradeTrueFalse(t *testing.T) {
	question := domain.Question{
		ID:     "q1",
		Type:   domain.TrueFalse,
		Points: 4,
		Options: []domain.Option{
			{ID: "t", Text: "True", Correct: true},
			{ID: "f", Text: "False"},
		},
	}

	if correct, points := gradeAnswer(question, domain.AnswerSubmission{SelectedOptions: []string{"t"}}); !correct || points != 4 {
		t.Fatalf("expected full credit, got correct=%v points=%v", correct, points)
	}
	if correct, points := gradeAnswer(question, domain.AnswerSubmission{SelectedOptions: []string{"f"}}); correct || points != 0 {
		t.Fatalf("expected zero, got correct=%v points=%v", correct, points)
	}
}

func TestGradeMultipleAnswer(t *testing.T) {
	// 4 options, A and B correct, worth 10 points.
	question := domain.Question{
		ID:     "q1",
		Type:   domain.MultipleAnswer,
		Points: 10,
		Options: []domain.Option{
			{ID: "a", Correct: true},
			{ID: "b", Correct: true},
			{ID: "c"},
			{ID: "d"},
		},
	}

	cases := []struct {
		name        string
		selected    []string
		wantCorrect bool
		wantPoints  float64
	}{
		{"exact match", []string{"a", "b"}, true, 10},
		// Missed one correct, nothing wrong: credit scales by the fraction
		// of correct options found, 10 * (2-1)/2.
		{"correct subset", []string{"a"}, false, 5},
		// All correct plus one wrong: credit scales against the total option
		// count, 10 * (4-1)/4.
		{"superset", []string{"a", "b", "c"}, false, 7.5},
		// Both error kinds at once score zero outright.
		{"mixed errors", []string{"a", "c"}, false, 0},
		{"nothing right", []string{"c", "d"}, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := gradeAnswer(question, domain.AnswerSubmission{SelectedOptions: tc.selected})
			if correct != tc.wantCorrect || points != tc.wantPoints {
				t.Fatalf("got correct=%v points=%v, want correct=%v points=%v", correct, points, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestGradeMultipleAnswerAllCorrectNoneSelected(t *testing.T) {
	// Every option is correct and the student picks none: that is a pure
	// omission error, so the partial-credit formula applies (and yields 0),
	// rather than short-circuiting.
	question := domain.Question{
		ID:     "q1",
		Type:   domain.MultipleAnswer,
		Points: 10,
		Options: []domain.Option{
			{ID: "a", Correct: true},
			{ID: "b", Correct: true},
		},
	}
	correct, points := gradeAnswer(question, domain.AnswerSubmission{})
	if correct || points != 0 {
		t.Fatalf("got correct=%v points=%v, want not-correct with 0 via the omission formula", correct, points)
	}
}

func TestGradeMultipleAnswerNoCorrectOptions(t *testing.T) {
	question := domain.Question{
		ID:     "q1",
		Type:   domain.MultipleAnswer,
		Points: 10,
		Options: []domain.Option{
			{ID: "a"},
			{ID: "b"},
		},
	}
	// Empty correct set and empty selection count as fully correct.
	if correct, points := gradeAnswer(question, domain.AnswerSubmission{}); !correct || points != 10 {
		t.Fatalf("expected full credit on empty/empty, got correct=%v points=%v", correct, points)
	}
}

func TestGradeMultipleAnswerBogusSelectionsClamp(t *testing.T) {
	question := domain.Question{
		ID:     "q1",
		Type:   domain.MultipleAnswer,
		Points: 10,
		Options: []domain.Option{
			{ID: "a", Correct: true},
			{ID: "b"},
		},
	}
	// More wrong inclusions than the question has options; credit must not
	// go negative.
	correct, points := gradeAnswer(question, domain.AnswerSubmission{SelectedOptions: []string{"a", "x", "y", "z"}})
	if correct || points != 0 {
		t.Fatalf("expected clamped zero, got correct=%v points=%v", correct, points)
	}
}

func TestGradeShortAnswer(t *testing.T) {
	question := domain.Question{
		ID:     "q1",
		Type:   domain.ShortAnswer,
		Points: 5,
		Options: []domain.Option{
			{ID: "a", Text: "Paris", Correct: true},
		},
	}

	cases := []struct {
		name        string
		text        string
		wantCorrect bool
		wantPoints  float64
	}{
		{"exact", "Paris", true, 5},
		{"case-insensitive", "paris", true, 5},
		{"no trimming", " Paris", false, 0},
		{"wrong", "Lyon", false, 0},
		{"empty", "", false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := gradeAnswer(question, domain.AnswerSubmission{TextAnswer: tc.text})
			if correct != tc.wantCorrect || points != tc.wantPoints {
				t.Fatalf("got correct=%v points=%v, want correct=%v points=%v", correct, points, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestGradeEssayAlwaysZeroAtSubmission(t *testing.T) {
	question := domain.Question{ID: "q1", Type: domain.Essay, Points: 20}
	correct, points := gradeAnswer(question, domain.AnswerSubmission{TextAnswer: "a long and thoughtful response"})
	if correct || points != 0 {
		t.Fatalf("essay must be provisionally zero, got correct=%v points=%v", correct, points)
	}
}

func TestPercentage(t *testing.T) {
	if got := percentage(5, 10); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := percentage(0, 0); got != 0 {
		t.Fatalf("zero denominator must score 0, got %v", got)
	}
	if got := percentage(10, 10); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}
