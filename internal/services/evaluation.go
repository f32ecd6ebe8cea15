package services

import "strings"

// ValidChoices is the closed answer vocabulary used when a question does not
// carry its own option list. Matching is exact and case-sensitive.
var ValidChoices = []string{"yes", "no", "partial", "na"}

func questionChoices(q *Question) []string {
	if len(q.AnswerOptions) > 0 {
		return q.AnswerOptions
	}
	return ValidChoices
}

func choiceAllowed(v string, choices []string) bool {
	for _, c := range choices {
		if v == c {
			return true
		}
	}
	return false
}

// NormalizeChoice reduces a raw submitted value to the question's vocabulary.
// Out-of-vocabulary values are dropped to empty, never rejected. MULTI values
// are comma-joined; invalid members are filtered out individually.
func NormalizeChoice(q *Question, raw string) string {
	choices := questionChoices(q)
	if q.AnswerMode == AnswerModeMulti {
		parts := strings.Split(raw, ",")
		kept := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" && choiceAllowed(p, choices) {
				kept = append(kept, p)
			}
		}
		return strings.Join(kept, ",")
	}
	raw = strings.TrimSpace(raw)
	if choiceAllowed(raw, choices) {
		return raw
	}
	return ""
}

func acceptedValues(q *Question) []string {
	if len(q.ExpectedValues) > 0 {
		return q.ExpectedValues
	}
	if q.ExpectedValue != "" {
		return []string{q.ExpectedValue}
	}
	return nil
}

// Evaluate compares one submitted answer against the question's expectation.
//
// A question without an expectation always evaluates NO_EXPECTATION. When an
// expectation exists, a missing or out-of-vocabulary answer evaluates
// DOES_NOT_MEET, including during a partial draft, where the vendor may
// simply not have reached the question yet. ComputeExpectationStats keeps the
// lenient tally for that case.
func Evaluate(q *Question, a *Answer) EvalStatus {
	accepted := acceptedValues(q)
	if len(accepted) == 0 {
		return EvalNoExpectation
	}

	choice := ""
	if a != nil {
		choice = NormalizeChoice(q, a.Choice)
	}
	if choice == "" {
		return EvalDoesNotMeet
	}

	if q.AnswerMode == AnswerModeMulti || len(q.ExpectedValues) > 0 {
		submitted := strings.Split(choice, ",")
		matched := 0
		for _, v := range submitted {
			if choiceAllowed(v, accepted) {
				matched++
			}
		}
		switch {
		case matched == len(submitted):
			return EvalMeets
		case matched > 0:
			return EvalPartial
		default:
			return EvalDoesNotMeet
		}
	}

	if choice == q.ExpectedValue {
		return EvalMeets
	}
	return EvalDoesNotMeet
}

// ComputeResponseEvaluations builds {question id: eval status} for a response.
// A nil response yields NO_EXPECTATION for every question.
func ComputeResponseEvaluations(questions []*Question, response *Response) map[string]EvalStatus {
	out := make(map[string]EvalStatus, len(questions))
	if response == nil {
		for _, q := range questions {
			out[q.ID] = EvalNoExpectation
		}
		return out
	}
	answers := answersByQuestion(response)
	for _, q := range questions {
		out[q.ID] = Evaluate(q, answers[q.ID])
	}
	return out
}

type ExpectationStats struct {
	MeetsCount         int `json:"meets_count"`
	PartialCount       int `json:"partial_count"`
	DoesNotMeetCount   int `json:"does_not_meet_count"`
	NoExpectationCount int `json:"no_expectation_count"`
}

// ComputeExpectationStats counts evaluation outcomes for a response.
// Unlike Evaluate, an unanswered question lands in the no-expectation tally
// here, so partial drafts are not reported as failing.
func ComputeExpectationStats(questions []*Question, response *Response) ExpectationStats {
	var stats ExpectationStats
	if response == nil {
		stats.NoExpectationCount = len(questions)
		return stats
	}
	answers := answersByQuestion(response)
	for _, q := range questions {
		a := answers[q.ID]
		if a == nil {
			stats.NoExpectationCount++
			continue
		}
		switch Evaluate(q, a) {
		case EvalMeets:
			stats.MeetsCount++
		case EvalPartial:
			stats.PartialCount++
		case EvalDoesNotMeet:
			stats.DoesNotMeetCount++
		default:
			stats.NoExpectationCount++
		}
	}
	return stats
}

func answersByQuestion(r *Response) map[string]*Answer {
	out := make(map[string]*Answer, len(r.Answers))
	for _, a := range r.Answers {
		out[a.QuestionID] = a
	}
	return out
}
