package services

import (
	"strings"
	"time"
)

type DecisionStore interface {
	GetDecisionByAssessment(assessmentID string) (*Decision, error)
	InsertDecision(d *Decision) error
	// UpdateDecision writes the form fields and reports whether the write
	// landed. A false return means the decision was no longer DRAFT when the
	// write was attempted; a FINAL decision's fields never change.
	UpdateDecision(d *Decision) (bool, error)
	// FinalizeDecision flips DRAFT → FINAL atomically and reports whether this
	// call performed the flip. A false return means the decision was already
	// FINAL when the write was attempted.
	FinalizeDecision(id string, at time.Time) (bool, error)
	GetAssessment(id string) (*Assessment, error)
	UpdateAssessment(a *Assessment) error
}

// DecisionInput carries the reviewer's form fields. NextReviewDate is a
// YYYY-MM-DD string; an unparseable value clears the date.
type DecisionInput struct {
	DataSensitivity     string          `json:"data_sensitivity"`
	BusinessCriticality string          `json:"business_criticality"`
	ImpactRating        string          `json:"impact_rating"`
	LikelihoodRating    string          `json:"likelihood_rating"`
	OverallRiskRating   string          `json:"overall_risk_rating"`
	Outcome             DecisionOutcome `json:"decision_outcome"`
	Rationale           string          `json:"rationale"`
	KeyFindings         string          `json:"key_findings"`
	RemediationRequired string          `json:"remediation_required"`
	NextReviewDate      string          `json:"next_review_date"`
}

type DecisionService struct {
	store     DecisionStore
	lifecycle *Lifecycle
	now       func() time.Time
	idGen     func() string
}

func NewDecisionService(store DecisionStore, lifecycle *Lifecycle) *DecisionService {
	return &DecisionService{
		store:     store,
		lifecycle: lifecycle,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return shortID(12) },
	}
}

// GetOrCreate returns the assessment's decision, creating a DRAFT one when
// none exists yet.
func (s *DecisionService) GetOrCreate(assessmentID, vendorID string) (*Decision, error) {
	d, err := s.store.GetDecisionByAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	if d != nil {
		return d, nil
	}
	d = &Decision{
		ID:           s.idGen(),
		AssessmentID: assessmentID,
		VendorID:     vendorID,
		Status:       DecisionDraft,
	}
	if err := s.store.InsertDecision(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Save updates the decision's fields and, when finalize is set, performs the
// one-way DRAFT → FINAL transition and forces the assessment to REVIEWED.
//
// Both writes are race-guarded: the store re-checks status at write time, so
// a request that read the decision as DRAFT can neither overwrite a
// just-finalized decision's fields nor double-finalize it.
func (s *DecisionService) Save(assessmentID string, in DecisionInput, finalize bool) (*Decision, error) {
	d, err := s.store.GetDecisionByAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, NewNotFoundError("decision not found")
	}
	if d.Status == DecisionFinal {
		return nil, NewConflictError("Assessment already finalized")
	}

	d.DataSensitivity = in.DataSensitivity
	d.BusinessCriticality = in.BusinessCriticality
	d.ImpactRating = in.ImpactRating
	d.LikelihoodRating = in.LikelihoodRating
	d.OverallRiskRating = in.OverallRiskRating
	d.Outcome = in.Outcome
	d.Rationale = trimOrEmpty(in.Rationale)
	d.KeyFindings = trimOrEmpty(in.KeyFindings)
	d.RemediationRequired = trimOrEmpty(in.RemediationRequired)
	d.NextReviewDate = parseDate(in.NextReviewDate)

	if finalize {
		required := []string{
			in.DataSensitivity, in.BusinessCriticality, in.ImpactRating,
			in.LikelihoodRating, in.OverallRiskRating, string(in.Outcome),
		}
		for _, v := range required {
			if v == "" {
				return nil, NewInvalidError("please fill all required fields before finalizing")
			}
		}
	}

	ok, err := s.store.UpdateDecision(d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewConflictError("Assessment already finalized")
	}

	if finalize {
		now := s.now()
		ok, err := s.store.FinalizeDecision(d.ID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, NewConflictError("Assessment already finalized")
		}
		d.Status = DecisionFinal
		d.FinalizedAt = &now

		// Finalizing a decision completes the review.
		a, err := s.store.GetAssessment(assessmentID)
		if err != nil {
			return nil, err
		}
		if a != nil && s.lifecycle.ToReviewed(a) {
			if err := s.store.UpdateAssessment(a); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func trimOrEmpty(s string) string { return strings.TrimSpace(s) }

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
