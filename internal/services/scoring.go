package services

import (
	"math"
	"sort"
)

var weightMultipliers = map[Weight]float64{
	WeightLow:      1,
	WeightMedium:   2,
	WeightHigh:     3,
	WeightCritical: 5,
}

var evalScores = map[EvalStatus]float64{
	EvalMeets:       1.0,
	EvalPartial:     0.5,
	EvalDoesNotMeet: 0.0,
}

// WeightMultiplier returns the point value of a question weight.
// Unknown weights fall back to MEDIUM.
func WeightMultiplier(w Weight) float64 {
	if m, ok := weightMultipliers[w]; ok {
		return m
	}
	return weightMultipliers[WeightMedium]
}

// SuggestRiskLevel maps a 0-100 score to a risk level.
func SuggestRiskLevel(score float64) RiskLevel {
	switch {
	case score >= 90:
		return RiskVeryLow
	case score >= 70:
		return RiskLow
	case score >= 50:
		return RiskModerate
	case score >= 30:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

type QuestionDetail struct {
	QuestionID   string     `json:"question_id"`
	Text         string     `json:"question_text"`
	Weight       Weight     `json:"weight"`
	Category     string     `json:"category"`
	EvalStatus   EvalStatus `json:"eval_status"`
	AnswerChoice string     `json:"answer_choice,omitempty"`
	AnswerNotes  string     `json:"answer_notes,omitempty"`
	BankItemID   string     `json:"question_bank_item_id,omitempty"`
	Earned       float64    `json:"earned"`
	Possible     float64    `json:"possible"`
	Scorable     bool       `json:"scorable"`
}

type CategoryScore struct {
	Category  string            `json:"category"`
	Score     *float64          `json:"score"`
	RiskLevel RiskLevel         `json:"risk_level,omitempty"`
	Earned    float64           `json:"earned"`
	Possible  float64           `json:"possible"`
	Count     int               `json:"count"`
	Questions []*QuestionDetail `json:"questions,omitempty"`
}

type ScoreResult struct {
	OverallScore       *float64          `json:"overall_score"`
	CategoryScores     []*CategoryScore  `json:"category_scores"`
	FlaggedItems       []*QuestionDetail `json:"flagged_items"`
	SuggestedRiskLevel RiskLevel         `json:"suggested_risk_level,omitempty"`
	QuestionDetails    []*QuestionDetail `json:"question_details"`
	Stats              ExpectationStats  `json:"stats"`
}

var weightSeverity = map[Weight]int{
	WeightCritical: 0,
	WeightHigh:     1,
	WeightMedium:   2,
	WeightLow:      3,
}

var evalSeverity = map[EvalStatus]int{
	EvalDoesNotMeet: 0,
	EvalPartial:     1,
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// ComputeAssessmentScores aggregates per-question evaluations into weighted
// category and overall scores, flagged items, and a suggested risk level.
//
// NO_EXPECTATION questions are excluded from both numerator and denominator;
// with no scorable questions at all the overall score is nil, never zero.
func ComputeAssessmentScores(questions []*Question, response *Response) *ScoreResult {
	answers := map[string]*Answer{}
	if response != nil {
		answers = answersByQuestion(response)
	}

	var (
		totalEarned   float64
		totalPossible float64
		categoryOrder []string
	)
	categoryEarned := map[string]float64{}
	categoryPossible := map[string]float64{}
	categoryCount := map[string]int{}
	categoryQuestions := map[string][]*QuestionDetail{}

	result := &ScoreResult{}

	for _, q := range questions {
		a := answers[q.ID]

		status := EvalNoExpectation
		if response != nil {
			status = Evaluate(q, a)
		}

		switch status {
		case EvalMeets:
			result.Stats.MeetsCount++
		case EvalPartial:
			result.Stats.PartialCount++
		case EvalDoesNotMeet:
			result.Stats.DoesNotMeetCount++
		default:
			result.Stats.NoExpectationCount++
		}

		cat := q.Category
		if cat == "" {
			cat = "Uncategorized"
		}

		detail := &QuestionDetail{
			QuestionID: q.ID,
			Text:       q.Text,
			Weight:     q.Weight,
			Category:   cat,
			EvalStatus: status,
			BankItemID: q.BankItemID,
		}
		if a != nil {
			detail.AnswerChoice = a.Choice
			detail.AnswerNotes = a.Notes
		}

		if status != EvalNoExpectation {
			possible := WeightMultiplier(q.Weight)
			earned := evalScores[status] * possible

			totalEarned += earned
			totalPossible += possible

			if _, seen := categoryPossible[cat]; !seen {
				categoryOrder = append(categoryOrder, cat)
			}
			categoryEarned[cat] += earned
			categoryPossible[cat] += possible
			categoryCount[cat]++

			detail.Earned = earned
			detail.Possible = possible
			detail.Scorable = true

			flagged := status == EvalDoesNotMeet ||
				(status == EvalPartial && (q.Weight == WeightHigh || q.Weight == WeightCritical))
			if flagged {
				result.FlaggedItems = append(result.FlaggedItems, detail)
			}
		}

		categoryQuestions[cat] = append(categoryQuestions[cat], detail)
		result.QuestionDetails = append(result.QuestionDetails, detail)
	}

	if totalPossible > 0 {
		overall := round1(totalEarned / totalPossible * 100)
		result.OverallScore = &overall
		result.SuggestedRiskLevel = SuggestRiskLevel(overall)
	}

	for _, cat := range categoryOrder {
		cs := &CategoryScore{
			Category:  cat,
			Earned:    categoryEarned[cat],
			Possible:  categoryPossible[cat],
			Count:     categoryCount[cat],
			Questions: categoryQuestions[cat],
		}
		if cs.Possible > 0 {
			score := round1(cs.Earned / cs.Possible * 100)
			cs.Score = &score
			cs.RiskLevel = SuggestRiskLevel(score)
		}
		result.CategoryScores = append(result.CategoryScores, cs)
	}
	// Worst category first; ties keep first-seen category order.
	sort.SliceStable(result.CategoryScores, func(i, j int) bool {
		si, sj := result.CategoryScores[i].Score, result.CategoryScores[j].Score
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return *si < *sj
	})

	sort.SliceStable(result.FlaggedItems, func(i, j int) bool {
		fi, fj := result.FlaggedItems[i], result.FlaggedItems[j]
		wi, wj := flagWeightRank(fi.Weight), flagWeightRank(fj.Weight)
		if wi != wj {
			return wi < wj
		}
		return flagEvalRank(fi.EvalStatus) < flagEvalRank(fj.EvalStatus)
	})

	return result
}

func flagWeightRank(w Weight) int {
	if r, ok := weightSeverity[w]; ok {
		return r
	}
	return len(weightSeverity)
}

func flagEvalRank(s EvalStatus) int {
	if r, ok := evalSeverity[s]; ok {
		return r
	}
	return len(evalSeverity)
}
