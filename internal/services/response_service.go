package services

import (
	"fmt"
	"strings"
	"time"
)

type ResponseStore interface {
	GetAssessment(id string) (*Assessment, error)
	ListQuestions(assessmentID string) ([]*Question, error)
	LatestResponse(assessmentID string) (*Response, error)
	InsertResponse(r *Response) error
	UpdateResponse(r *Response) error
	UpsertAnswer(a *Answer) error
	DeleteAnswer(responseID, questionID string) error
	UpdateAssessment(a *Assessment) error
}

// AnswerInput mirrors one question's inbound form value. SINGLE questions use
// Choice; MULTI questions use Multi.
type AnswerInput struct {
	QuestionID string   `json:"question_id"`
	Choice     string   `json:"choice"`
	Multi      []string `json:"multi"`
	Notes      string   `json:"notes"`
}

type SaveResponseRequest struct {
	AssessmentID string
	VendorName   string
	VendorEmail  string
	Submit       bool
	Answers      []AnswerInput
}

var errAssessmentNotFound = NewNotFoundError("assessment not found")

// ResponseService owns the vendor submission workflow: choice validation,
// answer set reconciliation, and the resulting lifecycle transitions.
type ResponseService struct {
	store     ResponseStore
	lifecycle *Lifecycle
	now       func() time.Time
	idGen     func() string
}

func NewResponseService(store ResponseStore, lifecycle *Lifecycle) *ResponseService {
	return &ResponseService{
		store:     store,
		lifecycle: lifecycle,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return shortID(12) },
	}
}

// Save creates or updates the vendor's response. Out-of-vocabulary choices
// are dropped to empty rather than rejected. On submit every question must
// carry a valid choice.
//
// The answer set is reconciled against the previous save: unchanged rows are
// left alone, changed rows updated, removed rows deleted. This preserves the
// contract that exactly one answer exists per (response, question).
func (s *ResponseService) Save(req SaveResponseRequest) (*Response, error) {
	assessment, err := s.store.GetAssessment(req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, errAssessmentNotFound
	}
	if assessment.Status == AssessmentDraft {
		return nil, NewInvalidError("assessment has not been sent")
	}
	if assessment.Status == AssessmentReviewed {
		return nil, NewConflictError("assessment review is complete")
	}

	questions, err := s.store.ListQuestions(req.AssessmentID)
	if err != nil {
		return nil, err
	}

	inputs := make(map[string]AnswerInput, len(req.Answers))
	for _, in := range req.Answers {
		inputs[in.QuestionID] = in
	}

	desired := make(map[string]*Answer, len(questions))
	unanswered := 0
	for _, q := range questions {
		in := inputs[q.ID]
		raw := in.Choice
		if q.AnswerMode == AnswerModeMulti {
			raw = strings.Join(in.Multi, ",")
		}
		choice := NormalizeChoice(q, raw)
		if choice == "" {
			unanswered++
		}
		desired[q.ID] = &Answer{
			QuestionID: q.ID,
			Choice:     choice,
			Notes:      strings.TrimSpace(in.Notes),
		}
	}

	if req.Submit && unanswered > 0 {
		return nil, NewInvalidError(fmt.Sprintf("please answer all questions before submitting: %d unanswered", unanswered))
	}

	now := s.now()
	response, err := s.store.LatestResponse(req.AssessmentID)
	if err != nil {
		return nil, err
	}
	existing := map[string]*Answer{}
	if response != nil {
		for _, a := range response.Answers {
			existing[a.QuestionID] = a
		}
		response.VendorName = req.VendorName
		response.LastSavedAt = now
		if req.Submit {
			response.Status = ResponseSubmitted
			response.SubmittedAt = &now
		}
		if err := s.store.UpdateResponse(response); err != nil {
			return nil, err
		}
	} else {
		status := ResponseDraft
		var submittedAt *time.Time
		if req.Submit {
			status = ResponseSubmitted
			submittedAt = &now
		}
		response = &Response{
			ID:           s.idGen(),
			AssessmentID: req.AssessmentID,
			VendorName:   req.VendorName,
			VendorEmail:  req.VendorEmail,
			Status:       status,
			SubmittedAt:  submittedAt,
			LastSavedAt:  now,
		}
		if err := s.store.InsertResponse(response); err != nil {
			return nil, err
		}
	}

	// Reconcile the answer set instead of delete-then-reinsert.
	kept := make([]*Answer, 0, len(desired))
	for _, q := range questions {
		want := desired[q.ID]
		want.ResponseID = response.ID
		have := existing[q.ID]
		if have == nil || have.Choice != want.Choice || have.Notes != want.Notes {
			if err := s.store.UpsertAnswer(want); err != nil {
				return nil, err
			}
		}
		kept = append(kept, want)
	}
	for qid, have := range existing {
		if _, ok := desired[qid]; !ok {
			if err := s.store.DeleteAnswer(have.ResponseID, qid); err != nil {
				return nil, err
			}
		}
	}
	response.Answers = kept

	if req.Submit {
		if s.lifecycle.ToSubmitted(assessment) {
			if err := s.store.UpdateAssessment(assessment); err != nil {
				return nil, err
			}
		}
	} else if s.lifecycle.ToInProgress(assessment) {
		if err := s.store.UpdateAssessment(assessment); err != nil {
			return nil, err
		}
	}
	return response, nil
}

// RequestInfo marks the latest submitted response NEEDS_INFO so the vendor
// can amend and resubmit. The assessment status is untouched; resubmission
// replaces the authoritative response.
func (s *ResponseService) RequestInfo(assessmentID string) (*Response, error) {
	response, err := s.store.LatestResponse(assessmentID)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, NewNotFoundError("no response to return")
	}
	if response.Status != ResponseSubmitted {
		return nil, NewInvalidError("only a submitted response can be returned for more information")
	}
	response.Status = ResponseNeedsInfo
	response.LastSavedAt = s.now()
	if err := s.store.UpdateResponse(response); err != nil {
		return nil, err
	}
	return response, nil
}
