package services

import (
	"fmt"
	"time"
)

// Lifecycle drives the forward-only assessment state machine
// DRAFT → SENT → IN_PROGRESS → SUBMITTED → REVIEWED. Every transition is a
// guard-checked single step that reports false and mutates nothing when the
// precondition state does not hold.
type Lifecycle struct {
	now func() time.Time
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{now: func() time.Time { return time.Now().UTC() }}
}

// ToSent moves DRAFT → SENT and stamps sent_at.
func (l *Lifecycle) ToSent(a *Assessment) bool {
	if a.Status != AssessmentDraft {
		return false
	}
	now := l.now()
	a.Status = AssessmentSent
	a.SentAt = &now
	return true
}

// ToInProgress moves SENT → IN_PROGRESS. The vendor opened or saved a
// partial draft; no timestamp is recorded.
func (l *Lifecycle) ToInProgress(a *Assessment) bool {
	if a.Status != AssessmentSent {
		return false
	}
	a.Status = AssessmentInProgress
	return true
}

// ToSubmitted moves SENT or IN_PROGRESS → SUBMITTED and stamps submitted_at.
// Submit is the only transition allowed to skip IN_PROGRESS.
func (l *Lifecycle) ToSubmitted(a *Assessment) bool {
	if a.Status != AssessmentSent && a.Status != AssessmentInProgress {
		return false
	}
	now := l.now()
	a.Status = AssessmentSubmitted
	a.SubmittedAt = &now
	return true
}

// ToReviewed moves SUBMITTED → REVIEWED and stamps reviewed_at.
func (l *Lifecycle) ToReviewed(a *Assessment) bool {
	if a.Status != AssessmentSubmitted {
		return false
	}
	now := l.now()
	a.Status = AssessmentReviewed
	a.ReviewedAt = &now
	return true
}

type LifecycleStore interface {
	ListAssessmentsByStatus(statuses ...AssessmentStatus) ([]*Assessment, error)
	LatestResponse(assessmentID string) (*Response, error)
	UpdateAssessment(a *Assessment) error
}

// ReconcileSubmitted self-heals assessments whose latest response is already
// SUBMITTED but whose status is stuck at SENT/IN_PROGRESS (a missed
// transition). Run once at process start. Returns the number of assessments
// corrected.
func (l *Lifecycle) ReconcileSubmitted(store LifecycleStore) (int, error) {
	stuck, err := store.ListAssessmentsByStatus(AssessmentSent, AssessmentInProgress)
	if err != nil {
		return 0, fmt.Errorf("list assessments: %w", err)
	}
	fixed := 0
	for _, a := range stuck {
		r, err := store.LatestResponse(a.ID)
		if err != nil {
			return fixed, fmt.Errorf("latest response for %s: %w", a.ID, err)
		}
		if r == nil || r.Status != ResponseSubmitted {
			continue
		}
		a.Status = AssessmentSubmitted
		if r.SubmittedAt != nil {
			a.SubmittedAt = r.SubmittedAt
		} else {
			now := l.now()
			a.SubmittedAt = &now
		}
		if err := store.UpdateAssessment(a); err != nil {
			return fixed, fmt.Errorf("update assessment %s: %w", a.ID, err)
		}
		fixed++
	}
	return fixed, nil
}
