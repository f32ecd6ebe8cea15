package services

import "testing"

func TestEvaluateSingleMode(t *testing.T) {
	q := &Question{ID: "q1", AnswerMode: AnswerModeSingle, ExpectedValue: "yes"}

	cases := []struct {
		name   string
		answer *Answer
		want   EvalStatus
	}{
		{"exact match", &Answer{Choice: "yes"}, EvalMeets},
		{"other choice", &Answer{Choice: "no"}, EvalDoesNotMeet},
		{"partial choice", &Answer{Choice: "partial"}, EvalDoesNotMeet},
		{"missing answer", nil, EvalDoesNotMeet},
		{"empty choice", &Answer{Choice: ""}, EvalDoesNotMeet},
		{"out of vocabulary dropped", &Answer{Choice: "maybe"}, EvalDoesNotMeet},
		{"case sensitive", &Answer{Choice: "Yes"}, EvalDoesNotMeet},
	}
	for _, c := range cases {
		if got := Evaluate(q, c.answer); got != c.want {
			t.Fatalf("%s: Evaluate=%s, want %s", c.name, got, c.want)
		}
	}
}

func TestEvaluateNoExpectation(t *testing.T) {
	q := &Question{ID: "q1", AnswerMode: AnswerModeSingle}
	if got := Evaluate(q, &Answer{Choice: "yes"}); got != EvalNoExpectation {
		t.Fatalf("answered question without expectation = %s, want NO_EXPECTATION", got)
	}
	if got := Evaluate(q, nil); got != EvalNoExpectation {
		t.Fatalf("unanswered question without expectation = %s, want NO_EXPECTATION", got)
	}
}

func TestEvaluateMultiMode(t *testing.T) {
	q := &Question{ID: "q1", AnswerMode: AnswerModeMulti, ExpectedValues: []string{"yes", "partial"}}

	cases := []struct {
		name   string
		choice string
		want   EvalStatus
	}{
		{"fully contained", "yes,partial", EvalMeets},
		{"single contained", "yes", EvalMeets},
		{"partial overlap", "yes,no", EvalPartial},
		{"no overlap", "no,na", EvalDoesNotMeet},
		{"empty", "", EvalDoesNotMeet},
	}
	for _, c := range cases {
		if got := Evaluate(q, &Answer{Choice: c.choice}); got != c.want {
			t.Fatalf("%s: Evaluate=%s, want %s", c.name, got, c.want)
		}
	}
}

func TestEvaluateMultiValuedExpectationInSingleMode(t *testing.T) {
	// A multi-valued expectation list forces containment matching even for a
	// SINGLE-mode question.
	q := &Question{ID: "q1", AnswerMode: AnswerModeSingle, ExpectedValues: []string{"yes", "partial"}}
	if got := Evaluate(q, &Answer{Choice: "partial"}); got != EvalMeets {
		t.Fatalf("accepted alternative = %s, want MEETS", got)
	}
	if got := Evaluate(q, &Answer{Choice: "no"}); got != EvalDoesNotMeet {
		t.Fatalf("rejected choice = %s, want DOES_NOT_MEET", got)
	}
}

func TestEvaluateCustomOptions(t *testing.T) {
	q := &Question{
		ID:            "q1",
		AnswerMode:    AnswerModeSingle,
		ExpectedValue: "annually",
		AnswerOptions: []string{"annually", "quarterly", "never"},
	}
	if got := Evaluate(q, &Answer{Choice: "annually"}); got != EvalMeets {
		t.Fatalf("custom vocabulary match = %s, want MEETS", got)
	}
	// The default vocabulary does not apply when options are overridden.
	if got := Evaluate(q, &Answer{Choice: "yes"}); got != EvalDoesNotMeet {
		t.Fatalf("default-vocab choice against custom options = %s, want DOES_NOT_MEET", got)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	q := &Question{ID: "q1", AnswerMode: AnswerModeMulti, ExpectedValues: []string{"yes", "partial"}}
	a := &Answer{Choice: "yes,no"}
	first := Evaluate(q, a)
	for i := 0; i < 5; i++ {
		if got := Evaluate(q, a); got != first {
			t.Fatalf("evaluation changed between runs: %s then %s", first, got)
		}
	}
}

func TestNormalizeChoiceDropsInvalid(t *testing.T) {
	single := &Question{AnswerMode: AnswerModeSingle}
	if got := NormalizeChoice(single, "bogus"); got != "" {
		t.Fatalf("invalid single choice = %q, want empty", got)
	}
	multi := &Question{AnswerMode: AnswerModeMulti}
	if got := NormalizeChoice(multi, "yes,bogus, no"); got != "yes,no" {
		t.Fatalf("filtered multi choice = %q, want yes,no", got)
	}
}

func TestComputeResponseEvaluations(t *testing.T) {
	questions := []*Question{
		{ID: "q1", AnswerMode: AnswerModeSingle, ExpectedValue: "yes"},
		{ID: "q2", AnswerMode: AnswerModeSingle},
	}
	resp := &Response{Answers: []*Answer{{QuestionID: "q1", Choice: "yes"}}}

	got := ComputeResponseEvaluations(questions, resp)
	if got["q1"] != EvalMeets || got["q2"] != EvalNoExpectation {
		t.Fatalf("evaluations = %v", got)
	}

	all := ComputeResponseEvaluations(questions, nil)
	for id, status := range all {
		if status != EvalNoExpectation {
			t.Fatalf("nil response: %s = %s, want NO_EXPECTATION", id, status)
		}
	}
}

func TestComputeExpectationStatsLenientOnUnanswered(t *testing.T) {
	questions := []*Question{
		{ID: "q1", AnswerMode: AnswerModeSingle, ExpectedValue: "yes"},
		{ID: "q2", AnswerMode: AnswerModeSingle, ExpectedValue: "yes"},
	}
	resp := &Response{Answers: []*Answer{{QuestionID: "q1", Choice: "no"}}}

	stats := ComputeExpectationStats(questions, resp)
	if stats.DoesNotMeetCount != 1 {
		t.Fatalf("does_not_meet = %d, want 1", stats.DoesNotMeetCount)
	}
	// q2 has an expectation but no answer row yet: the stats tally stays
	// lenient during drafts even though Evaluate would say DOES_NOT_MEET.
	if stats.NoExpectationCount != 1 {
		t.Fatalf("no_expectation = %d, want 1", stats.NoExpectationCount)
	}
}
