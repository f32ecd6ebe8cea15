package api

import (
	"time"

	"github.com/finchsec/vendorvet/internal/services"
)

// Store is the persistence surface the HTTP layer and the background jobs
// share. It is a superset of the narrow per-service store interfaces, so one
// implementation backs them all.
type Store interface {
	AddVendor(v *services.Vendor) error
	UpdateVendor(v *services.Vendor) error
	GetVendor(id string) (*services.Vendor, error)
	ListVendors() ([]*services.Vendor, error)

	InsertAssessment(a *services.Assessment) error
	UpdateAssessment(a *services.Assessment) error
	GetAssessment(id string) (*services.Assessment, error)
	GetAssessmentByToken(token string) (*services.Assessment, error)
	ListAssessments() ([]*services.Assessment, error)
	ListAssessmentsByStatus(statuses ...services.AssessmentStatus) ([]*services.Assessment, error)

	InsertQuestion(q *services.Question) error
	UpdateQuestion(q *services.Question) error
	DeleteQuestion(id string) error
	ListQuestions(assessmentID string) ([]*services.Question, error)

	InsertResponse(r *services.Response) error
	UpdateResponse(r *services.Response) error
	LatestResponse(assessmentID string) (*services.Response, error)

	UpsertAnswer(a *services.Answer) error
	DeleteAnswer(responseID, questionID string) error

	InsertDecision(d *services.Decision) error
	UpdateDecision(d *services.Decision) (bool, error)
	GetDecisionByAssessment(assessmentID string) (*services.Decision, error)
	FinalizeDecision(id string, at time.Time) (bool, error)

	UpsertSLAConfig(c *services.SLAConfig) error
	ListSLAConfigs() ([]*services.SLAConfig, error)

	AddNotification(n *services.Notification) error
	HasNotification(ntype, assessmentID string) (bool, error)
	ListNotifications() ([]*services.Notification, error)

	AddActivity(act *services.Activity) error
	ListActivities(vendorID string) ([]*services.Activity, error)

	AddReminderLog(l *services.ReminderLog) error
	ListReminderLogs(assessmentID string) ([]*services.ReminderLog, error)

	ReplaceTierRules(rules []*services.TierRule) error
	ListTierRules() ([]*services.TierRule, error)

	AddUser(u *services.User) error
	FindUserByEmail(email string) (*services.User, error)
}

var _ Store = (*memoryStore)(nil)

// The shared Store must keep satisfying every service's narrow view of it.
var (
	_ services.LifecycleStore    = Store(nil)
	_ services.SLAStore          = Store(nil)
	_ services.DecisionStore     = Store(nil)
	_ services.ResponseStore     = Store(nil)
	_ services.ReminderStore     = Store(nil)
	_ services.ReassessmentStore = Store(nil)
	_ services.AuthStore         = Store(nil)
)
