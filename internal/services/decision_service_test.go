package services

import (
	"testing"
	"time"
)

type stubDecisionStore struct {
	decisions   map[string]*Decision // by assessment id
	assessments map[string]*Assessment
	inserted    int
	updated     int

	// finalizeBeaten simulates another request winning the finalize write
	// between this request's status read and its own write. updateBeaten does
	// the same for the field write: the decision turned FINAL after it was
	// read as DRAFT.
	finalizeBeaten bool
	updateBeaten   bool
}

func newStubDecisionStore() *stubDecisionStore {
	return &stubDecisionStore{
		decisions:   map[string]*Decision{},
		assessments: map[string]*Assessment{},
	}
}

func (s *stubDecisionStore) GetDecisionByAssessment(assessmentID string) (*Decision, error) {
	return s.decisions[assessmentID], nil
}

func (s *stubDecisionStore) InsertDecision(d *Decision) error {
	s.decisions[d.AssessmentID] = d
	s.inserted++
	return nil
}

func (s *stubDecisionStore) UpdateDecision(d *Decision) (bool, error) {
	have := s.decisions[d.AssessmentID]
	if have == nil {
		return false, NewNotFoundError("decision not found")
	}
	if s.updateBeaten || have.Status == DecisionFinal {
		return false, nil
	}
	s.updated++
	return true, nil
}

func (s *stubDecisionStore) FinalizeDecision(id string, at time.Time) (bool, error) {
	if s.finalizeBeaten {
		return false, nil
	}
	for _, d := range s.decisions {
		if d.ID != id {
			continue
		}
		if d.Status == DecisionFinal {
			return false, nil
		}
		d.Status = DecisionFinal
		d.FinalizedAt = &at
		return true, nil
	}
	return false, nil
}

func (s *stubDecisionStore) GetAssessment(id string) (*Assessment, error) {
	return s.assessments[id], nil
}

func (s *stubDecisionStore) UpdateAssessment(a *Assessment) error {
	s.assessments[a.ID] = a
	return nil
}

func decisionServiceWith(store *stubDecisionStore) *DecisionService {
	svc := NewDecisionService(store, NewLifecycle())
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGen = func() string { n++; return "d" + string(rune('0'+n)) }
	return svc
}

func fullInput() DecisionInput {
	return DecisionInput{
		DataSensitivity:     "High",
		BusinessCriticality: "High",
		ImpactRating:        "Moderate",
		LikelihoodRating:    "Low",
		OverallRiskRating:   "Moderate",
		Outcome:             OutcomeApprove,
		Rationale:           "  controls verified  ",
		NextReviewDate:      "2026-07-01",
	}
}

func TestDecisionGetOrCreate(t *testing.T) {
	store := newStubDecisionStore()
	svc := decisionServiceWith(store)

	d, err := svc.GetOrCreate("a1", "v1")
	if err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}
	if d.Status != DecisionDraft || d.AssessmentID != "a1" || d.VendorID != "v1" {
		t.Fatalf("created decision = %+v", d)
	}
	again, err := svc.GetOrCreate("a1", "v1")
	if err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}
	if again.ID != d.ID || store.inserted != 1 {
		t.Fatalf("second call created a new decision")
	}
}

func TestDecisionSaveDraft(t *testing.T) {
	store := newStubDecisionStore()
	svc := decisionServiceWith(store)
	if _, err := svc.GetOrCreate("a1", "v1"); err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}

	d, err := svc.Save("a1", DecisionInput{Rationale: "  wip  ", NextReviewDate: "not-a-date"}, false)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if d.Status != DecisionDraft {
		t.Fatalf("status = %s, want DRAFT", d.Status)
	}
	if d.Rationale != "wip" {
		t.Fatalf("rationale = %q, want trimmed", d.Rationale)
	}
	if d.NextReviewDate != nil {
		t.Fatalf("unparseable date should clear next_review_date")
	}
}

func TestDecisionFinalizeRequiresAllRatings(t *testing.T) {
	store := newStubDecisionStore()
	svc := decisionServiceWith(store)
	if _, err := svc.GetOrCreate("a1", "v1"); err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}

	in := fullInput()
	in.OverallRiskRating = ""
	if _, err := svc.Save("a1", in, true); err == nil {
		t.Fatalf("finalize with missing rating should fail")
	} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("error = %v, want invalid", err)
	}
	if store.decisions["a1"].Status != DecisionDraft {
		t.Fatalf("failed finalize must leave decision DRAFT")
	}
}

func TestDecisionFinalize(t *testing.T) {
	store := newStubDecisionStore()
	store.assessments["a1"] = &Assessment{ID: "a1", Status: AssessmentSubmitted}
	svc := decisionServiceWith(store)
	if _, err := svc.GetOrCreate("a1", "v1"); err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}

	d, err := svc.Save("a1", fullInput(), true)
	if err != nil {
		t.Fatalf("finalize error: %v", err)
	}
	if d.Status != DecisionFinal || d.FinalizedAt == nil {
		t.Fatalf("decision = %+v, want FINAL with timestamp", d)
	}
	if d.Rationale != "controls verified" {
		t.Fatalf("rationale = %q, want trimmed", d.Rationale)
	}
	if d.NextReviewDate == nil || d.NextReviewDate.Format("2006-01-02") != "2026-07-01" {
		t.Fatalf("next_review_date = %v", d.NextReviewDate)
	}
	a := store.assessments["a1"]
	if a.Status != AssessmentReviewed || a.ReviewedAt == nil {
		t.Fatalf("assessment = %+v, want REVIEWED", a)
	}
}

func TestDecisionSecondFinalizeConflicts(t *testing.T) {
	store := newStubDecisionStore()
	store.assessments["a1"] = &Assessment{ID: "a1", Status: AssessmentSubmitted}
	svc := decisionServiceWith(store)
	if _, err := svc.GetOrCreate("a1", "v1"); err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}
	if _, err := svc.Save("a1", fullInput(), true); err != nil {
		t.Fatalf("first finalize error: %v", err)
	}
	finalized := store.decisions["a1"]
	wantRationale := finalized.Rationale
	wantAt := *finalized.FinalizedAt

	in := fullInput()
	in.Rationale = "changed my mind"
	_, err := svc.Save("a1", in, true)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict || se.Message != "Assessment already finalized" {
		t.Fatalf("second finalize error = %v, want conflict", err)
	}
	if finalized.Rationale != wantRationale || !finalized.FinalizedAt.Equal(wantAt) {
		t.Fatalf("second finalize mutated the decision: %+v", finalized)
	}

	// Plain saves against a FINAL decision are rejected the same way.
	if _, err := svc.Save("a1", in, false); err == nil {
		t.Fatalf("save after finalize should fail")
	}
}

func TestDecisionStaleSaveCannotTouchFinalizedDecision(t *testing.T) {
	store := newStubDecisionStore()
	svc := decisionServiceWith(store)
	if _, err := svc.GetOrCreate("a1", "v1"); err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}

	// The decision still reads DRAFT, but it finalizes before the field write
	// lands. The stale save must conflict, not overwrite the FINAL fields.
	store.updateBeaten = true
	in := fullInput()
	in.Rationale = "stale overwrite"
	_, err := svc.Save("a1", in, false)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict || se.Message != "Assessment already finalized" {
		t.Fatalf("stale save error = %v, want conflict", err)
	}
	if store.updated != 0 {
		t.Fatalf("stale save must not count as a landed write")
	}
}

func TestDecisionFinalizeRaceLoser(t *testing.T) {
	store := newStubDecisionStore()
	store.assessments["a1"] = &Assessment{ID: "a1", Status: AssessmentSubmitted}
	svc := decisionServiceWith(store)
	if _, err := svc.GetOrCreate("a1", "v1"); err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}

	// The decision still reads DRAFT, but the finalize write loses the race.
	store.finalizeBeaten = true
	_, err := svc.Save("a1", fullInput(), true)
	if err == nil {
		t.Fatalf("race loser should see a conflict")
	}
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict || se.Message != "Assessment already finalized" {
		t.Fatalf("error = %v, want conflict", err)
	}
	// The assessment must not be forced to REVIEWED by the losing request.
	if store.assessments["a1"].Status != AssessmentSubmitted {
		t.Fatalf("assessment status = %s, want SUBMITTED", store.assessments["a1"].Status)
	}
}
