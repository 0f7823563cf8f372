package app

import (
	"strings"

	"classroom-quiz-service/internal/domain"
)

// gradeAnswer applies the per-type grading rule and returns whether the
// answer is fully correct plus the credit awarded, clamped to
// [0, question.Points].
func gradeAnswer(q domain.Question, sub domain.AnswerSubmission) (bool, float64) {
	switch q.Type {
	case domain.MultipleChoice, domain.TrueFalse:
		return gradeSingleChoice(q, sub.SelectedOptions)
	case domain.MultipleAnswer:
		return gradeMultipleAnswer(q, sub.SelectedOptions)
	case domain.ShortAnswer:
		return gradeShortAnswer(q, sub.TextAnswer)
	case domain.Essay:
		// Provisionally zero until a teacher grades it.
		return false, 0
	default:
		return false, 0
	}
}

// gradeSingleChoice awards full credit only when exactly one option was
// selected and it is the one flagged correct. Zero or multiple selections
// score zero without raising an error.
func gradeSingleChoice(q domain.Question, selected []string) (bool, float64) {
	if len(selected) != 1 {
		return false, 0
	}
	for _, opt := range q.Options {
		if opt.ID == selected[0] {
			if opt.Correct {
				return true, q.Points
			}
			return false, 0
		}
	}
	return false, 0
}

// gradeMultipleAnswer classifies the selection against the correct set:
//   - exact match: full credit
//   - correct subset (missed some, chose nothing wrong): credit scaled by
//     the fraction of correct options identified
//   - superset (all correct plus extras): credit scaled by how few of the
//     question's options were wrongly included
//   - both error kinds at once: zero
//
// The two partial branches deliberately use different denominators; see the
// pinning tests before changing either.
func gradeMultipleAnswer(q domain.Question, selected []string) (bool, float64) {
	correctSet := make(map[string]struct{})
	for _, opt := range q.Options {
		if opt.Correct {
			correctSet[opt.ID] = struct{}{}
		}
	}
	selectedSet := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		selectedSet[id] = struct{}{}
	}

	var wrongPicks, missed int
	for id := range selectedSet {
		if _, ok := correctSet[id]; !ok {
			wrongPicks++
		}
	}
	for id := range correctSet {
		if _, ok := selectedSet[id]; !ok {
			missed++
		}
	}

	switch {
	case wrongPicks == 0 && missed == 0:
		return true, q.Points
	case wrongPicks == 0:
		credit := q.Points * float64(len(correctSet)-missed) / float64(len(correctSet))
		return false, clampCredit(credit, q.Points)
	case missed == 0:
		total := len(q.Options)
		if total == 0 {
			return false, 0
		}
		credit := q.Points * float64(total-wrongPicks) / float64(total)
		return false, clampCredit(credit, q.Points)
	default:
		return false, 0
	}
}

// gradeShortAnswer compares the submitted text case-insensitively against
// the text of the option flagged correct. No trimming or normalization.
func gradeShortAnswer(q domain.Question, text string) (bool, float64) {
	if text == "" {
		return false, 0
	}
	for _, opt := range q.Options {
		if opt.Correct {
			if strings.EqualFold(text, opt.Text) {
				return true, q.Points
			}
			return false, 0
		}
	}
	return false, 0
}

func clampCredit(credit, max float64) float64 {
	if credit < 0 {
		return 0
	}
	if credit > max {
		return max
	}
	return credit
}

// percentage converts earned/total points into a [0,100] score, defined as
// zero when no points were at stake.
func percentage(earned, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return earned / total * 100
}

func findQuestion(quiz domain.Quiz, questionID string) (domain.Question, bool) {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			return quiz.Questions[i], true
		}
	}
	return domain.Question{}, false
}
