package services

import (
	"fmt"
	"time"
)

// Tier-based review intervals, in months.
var tierReviewMonths = map[string]int{
	TierOne:   12,
	TierTwo:   18,
	TierThree: 24,
}

// SuggestNextReviewDate proposes when a vendor should be reassessed, based on
// its effective tier and the decision finalization date.
func SuggestNextReviewDate(tier string, finalizedAt *time.Time) *time.Time {
	if tier == "" || finalizedAt == nil {
		return nil
	}
	months, ok := tierReviewMonths[tier]
	if !ok {
		months = 24
	}
	next := finalizedAt.AddDate(0, 0, months*30)
	return &next
}

type ReassessmentStore interface {
	GetAssessment(id string) (*Assessment, error)
	ListQuestions(assessmentID string) ([]*Question, error)
	InsertAssessment(a *Assessment) error
	InsertQuestion(q *Question) error
}

type ReassessmentService struct {
	store ReassessmentStore
	now   func() time.Time
	idGen func() string
}

func NewReassessmentService(store ReassessmentStore) *ReassessmentService {
	return &ReassessmentService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Create clones a previous assessment into a new DRAFT reassessment, copying
// its questions under fresh ids.
func (s *ReassessmentService) Create(vendorID, previousAssessmentID string) (*Assessment, error) {
	prev, err := s.store.GetAssessment(previousAssessmentID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, NewNotFoundError("previous assessment not found")
	}

	next := &Assessment{
		ID:                   s.idGen(),
		VendorID:             vendorID,
		CompanyName:          prev.CompanyName,
		Title:                fmt.Sprintf("Reassessment: %s", prev.Title),
		Token:                NewToken(),
		Status:               AssessmentDraft,
		PreviousAssessmentID: previousAssessmentID,
		CreatedAt:            s.now(),
	}
	if err := s.store.InsertAssessment(next); err != nil {
		return nil, err
	}

	questions, err := s.store.ListQuestions(previousAssessmentID)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		clone := *q
		clone.ID = s.idGen()
		clone.AssessmentID = next.ID
		if err := s.store.InsertQuestion(&clone); err != nil {
			return nil, err
		}
	}
	return next, nil
}
