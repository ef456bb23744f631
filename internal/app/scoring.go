package app

import "quiz-hosting-service/internal/domain"

// Scorer computes scores. The zero value reproduces the lenient rules:
// unknown question ids count zero and duplicates count every time.
type Scorer struct {
	// Strict rejects unknown question ids and repeated answers to one question.
	Strict bool
}

// Score is the lenient scoring rule with no side effects.
func Score(questions []domain.Question, responses []domain.Response) domain.ScoreCard {
	card, _ := Scorer{}.Score(questions, responses)
	return card
}

// Score matches every response against the quiz questions by id and sums the
// marks of exact, case-sensitive answer matches.
func (s Scorer) Score(questions []domain.Question, responses []domain.Response) (domain.ScoreCard, error) {
	byID := make(map[string]*domain.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var seen map[string]struct{}
	if s.Strict {
		seen = make(map[string]struct{}, len(responses))
	}

	card := domain.ScoreCard{Marks: make([]domain.ResponseMark, 0, len(responses))}
	for _, r := range responses {
		question, ok := byID[r.QuestionID]
		if s.Strict {
			if !ok {
				return domain.ScoreCard{}, domain.Invalid("responses", "unknown question "+r.QuestionID)
			}
			if _, dup := seen[r.QuestionID]; dup {
				return domain.ScoreCard{}, domain.Invalid("responses", "question answered twice: "+r.QuestionID)
			}
			seen[r.QuestionID] = struct{}{}
		}

		mark := domain.ResponseMark{QuestionID: r.QuestionID, Matched: ok}
		if ok && question.CorrectAnswer == r.SelectedOption {
			mark.Correct = true
			if question.Marks > 0 {
				mark.Awarded = question.Marks
			}
		}
		card.Total += mark.Awarded
		card.Marks = append(card.Marks, mark)
	}
	return card, nil
}
