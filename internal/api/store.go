package api

import (
	"sort"
	"sync"
	"time"

	"github.com/finchsec/vendorvet/internal/services"
)

// memoryStore backs dev runs and tests. Callers share pointers with the
// store; reads return the live records, matching the read-modify-write
// pattern the services use against the SQLite store.
type memoryStore struct {
	mu            sync.RWMutex
	vendors       map[string]*services.Vendor
	assessments   map[string]*services.Assessment
	questions     map[string][]*services.Question // by assessment id
	responses     map[string][]*services.Response // by assessment id, insert order
	answers       map[string]map[string]*services.Answer
	decisions     map[string]*services.Decision // by assessment id
	slaConfigs    map[string]*services.SLAConfig
	notifications []*services.Notification
	activities    []*services.Activity
	reminderLogs  map[string][]*services.ReminderLog
	tierRules     []*services.TierRule
	usersByEmail  map[string]*services.User
}

func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		vendors:      map[string]*services.Vendor{},
		assessments:  map[string]*services.Assessment{},
		questions:    map[string][]*services.Question{},
		responses:    map[string][]*services.Response{},
		answers:      map[string]map[string]*services.Answer{},
		decisions:    map[string]*services.Decision{},
		slaConfigs:   map[string]*services.SLAConfig{},
		reminderLogs: map[string][]*services.ReminderLog{},
		usersByEmail: map[string]*services.User{},
	}
}

func (s *memoryStore) AddVendor(v *services.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.ID] = v
	return nil
}

func (s *memoryStore) UpdateVendor(v *services.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.ID] = v
	return nil
}

func (s *memoryStore) GetVendor(id string) (*services.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vendors[id], nil
}

func (s *memoryStore) ListVendors() ([]*services.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) InsertAssessment(a *services.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return nil
}

func (s *memoryStore) UpdateAssessment(a *services.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return nil
}

func (s *memoryStore) GetAssessment(id string) (*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assessments[id], nil
}

func (s *memoryStore) GetAssessmentByToken(token string) (*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assessments {
		if a.Token == token {
			return a, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListAssessments() ([]*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) ListAssessmentsByStatus(statuses ...services.AssessmentStatus) ([]*services.Assessment, error) {
	want := make(map[services.AssessmentStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	all, _ := s.ListAssessments()
	out := make([]*services.Assessment, 0, len(all))
	for _, a := range all {
		if want[a.Status] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memoryStore) InsertQuestion(q *services.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.AssessmentID] = append(s.questions[q.AssessmentID], q)
	s.sortQuestions(q.AssessmentID)
	return nil
}

func (s *memoryStore) UpdateQuestion(q *services.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := s.questions[q.AssessmentID]
	for i, have := range qs {
		if have.ID == q.ID {
			qs[i] = q
			s.sortQuestions(q.AssessmentID)
			return nil
		}
	}
	return services.NewNotFoundError("question not found")
}

func (s *memoryStore) DeleteQuestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for aid, qs := range s.questions {
		for i, q := range qs {
			if q.ID == id {
				s.questions[aid] = append(qs[:i:i], qs[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// callers hold s.mu
func (s *memoryStore) sortQuestions(assessmentID string) {
	qs := s.questions[assessmentID]
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
}

func (s *memoryStore) ListQuestions(assessmentID string) ([]*services.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*services.Question(nil), s.questions[assessmentID]...), nil
}

func (s *memoryStore) InsertResponse(r *services.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[r.AssessmentID] = append(s.responses[r.AssessmentID], r)
	return nil
}

func (s *memoryStore) UpdateResponse(r *services.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.responses[r.AssessmentID]
	for i, have := range rs {
		if have.ID == r.ID {
			rs[i] = r
			return nil
		}
	}
	return services.NewNotFoundError("response not found")
}

func (s *memoryStore) LatestResponse(assessmentID string) (*services.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs := s.responses[assessmentID]
	if len(rs) == 0 {
		return nil, nil
	}
	// Attach answers to a copy so concurrent readers never write the shared
	// record under the read lock.
	r := *rs[len(rs)-1]
	r.Answers = s.answersFor(r.ID)
	return &r, nil
}

// callers hold s.mu
func (s *memoryStore) answersFor(responseID string) []*services.Answer {
	byQ := s.answers[responseID]
	out := make([]*services.Answer, 0, len(byQ))
	for _, a := range byQ {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

func (s *memoryStore) UpsertAnswer(a *services.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answers[a.ResponseID] == nil {
		s.answers[a.ResponseID] = map[string]*services.Answer{}
	}
	s.answers[a.ResponseID][a.QuestionID] = a
	return nil
}

func (s *memoryStore) DeleteAnswer(responseID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers[responseID], questionID)
	return nil
}

func (s *memoryStore) InsertDecision(d *services.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[d.AssessmentID] = d
	return nil
}

func (s *memoryStore) UpdateDecision(d *services.Decision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	have := s.decisions[d.AssessmentID]
	if have == nil {
		return false, services.NewNotFoundError("decision not found")
	}
	// A FINAL decision's fields are frozen; status and finalized_at only move
	// through FinalizeDecision.
	if have.Status == services.DecisionFinal {
		return false, nil
	}
	d.Status = have.Status
	d.FinalizedAt = have.FinalizedAt
	s.decisions[d.AssessmentID] = d
	return true, nil
}

func (s *memoryStore) GetDecisionByAssessment(assessmentID string) (*services.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decisions[assessmentID], nil
}

func (s *memoryStore) FinalizeDecision(id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.decisions {
		if d.ID != id {
			continue
		}
		if d.Status == services.DecisionFinal {
			return false, nil
		}
		d.Status = services.DecisionFinal
		d.FinalizedAt = &at
		return true, nil
	}
	return false, nil
}

func (s *memoryStore) UpsertSLAConfig(c *services.SLAConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slaConfigs[c.Tier] = c
	return nil
}

func (s *memoryStore) ListSLAConfigs() ([]*services.SLAConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.SLAConfig, 0, len(s.slaConfigs))
	for _, c := range s.slaConfigs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

func (s *memoryStore) AddNotification(n *services.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *memoryStore) HasNotification(ntype, assessmentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications {
		if n.Type == ntype && n.AssessmentID == assessmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) ListNotifications() ([]*services.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]*services.Notification(nil), s.notifications...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) AddActivity(act *services.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, act)
	return nil
}

func (s *memoryStore) ListActivities(vendorID string) ([]*services.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Activity, 0, len(s.activities))
	for _, act := range s.activities {
		if vendorID == "" || act.VendorID == vendorID {
			out = append(out, act)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) AddReminderLog(l *services.ReminderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminderLogs[l.AssessmentID] = append(s.reminderLogs[l.AssessmentID], l)
	return nil
}

func (s *memoryStore) ListReminderLogs(assessmentID string) ([]*services.ReminderLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*services.ReminderLog(nil), s.reminderLogs[assessmentID]...), nil
}

func (s *memoryStore) ReplaceTierRules(rules []*services.TierRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tierRules = append([]*services.TierRule(nil), rules...)
	return nil
}

func (s *memoryStore) ListTierRules() ([]*services.TierRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*services.TierRule(nil), s.tierRules...), nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[u.Email] = u
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[email], nil
}
