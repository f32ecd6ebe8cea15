package services

import (
	"errors"
	"testing"
	"time"
)

type sentMail struct {
	to, subject string
}

type stubReminderStore struct {
	assessments   []*Assessment
	logs          map[string][]*ReminderLog
	notifications []*Notification
	activities    []*Activity
}

func newStubReminderStore(assessments ...*Assessment) *stubReminderStore {
	return &stubReminderStore{assessments: assessments, logs: map[string][]*ReminderLog{}}
}

func (s *stubReminderStore) ListAssessmentsByStatus(statuses ...AssessmentStatus) ([]*Assessment, error) {
	want := map[AssessmentStatus]bool{}
	for _, st := range statuses {
		want[st] = true
	}
	var out []*Assessment
	for _, a := range s.assessments {
		if want[a.Status] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubReminderStore) ListReminderLogs(assessmentID string) ([]*ReminderLog, error) {
	return s.logs[assessmentID], nil
}

func (s *stubReminderStore) AddReminderLog(l *ReminderLog) error {
	s.logs[l.AssessmentID] = append(s.logs[l.AssessmentID], l)
	return nil
}

func (s *stubReminderStore) AddNotification(n *Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *stubReminderStore) AddActivity(a *Activity) error {
	s.activities = append(s.activities, a)
	return nil
}

var reminderNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func reminderCfg() ReminderConfig {
	return ReminderConfig{
		Enabled:           true,
		FirstReminderDays: 3,
		FrequencyDays:     5,
		MaxReminders:      3,
		EscalationEmail:   "risk@corp.example",
	}
}

func reminderServiceWith(store *stubReminderStore, cfg ReminderConfig, mails *[]sentMail) *ReminderService {
	svc := NewReminderService(store, cfg, func(to, subject, body string) error {
		*mails = append(*mails, sentMail{to: to, subject: subject})
		return nil
	})
	svc.now = func() time.Time { return reminderNow }
	return svc
}

func outstandingAssessment(id string, sentDaysAgo int) *Assessment {
	sentAt := reminderNow.AddDate(0, 0, -sentDaysAgo)
	return &Assessment{
		ID:          id,
		VendorID:    "v1",
		CompanyName: "Acme",
		Title:       "Annual review",
		Status:      AssessmentSent,
		SentToEmail: "vendor@acme.example",
		SentAt:      &sentAt,
	}
}

func TestReminderCadence(t *testing.T) {
	store := newStubReminderStore(
		outstandingAssessment("young", 1), // before first reminder
		outstandingAssessment("due", 4),   // past FirstReminderDays
	)
	var mails []sentMail
	svc := reminderServiceWith(store, reminderCfg(), &mails)

	run, err := svc.Process()
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if run.Checked != 2 || run.RemindersSent != 1 {
		t.Fatalf("run = %+v", run)
	}
	if len(mails) != 1 || mails[0].to != "vendor@acme.example" {
		t.Fatalf("mails = %+v", mails)
	}
	if logs := store.logs["due"]; len(logs) != 1 || logs[0].Type != ReminderTypeReminder {
		t.Fatalf("logs = %+v", logs)
	}
	if len(store.activities) != 1 || store.activities[0].Type != ActivityReminderSent {
		t.Fatalf("activities = %+v", store.activities)
	}

	// A second sweep the same day sends nothing: FrequencyDays has not passed
	// since the last reminder.
	run, err = svc.Process()
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if run.RemindersSent != 0 || run.EscalationsSent != 0 {
		t.Fatalf("second sweep = %+v", run)
	}
}

func TestReminderFollowUpAfterFrequency(t *testing.T) {
	store := newStubReminderStore(outstandingAssessment("a1", 10))
	store.logs["a1"] = []*ReminderLog{
		{ID: "l1", AssessmentID: "a1", Type: ReminderTypeReminder, SentAt: reminderNow.AddDate(0, 0, -6)},
	}
	var mails []sentMail
	svc := reminderServiceWith(store, reminderCfg(), &mails)

	run, err := svc.Process()
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if run.RemindersSent != 1 {
		t.Fatalf("run = %+v", run)
	}
}

func TestReminderFinalThenEscalationOnce(t *testing.T) {
	store := newStubReminderStore(outstandingAssessment("a1", 30))
	store.logs["a1"] = []*ReminderLog{
		{ID: "l1", AssessmentID: "a1", Type: ReminderTypeReminder, SentAt: reminderNow.AddDate(0, 0, -12)},
		{ID: "l2", AssessmentID: "a1", Type: ReminderTypeReminder, SentAt: reminderNow.AddDate(0, 0, -6)},
	}
	var mails []sentMail
	svc := reminderServiceWith(store, reminderCfg(), &mails)

	// Third of three reminders goes out marked FINAL.
	run, _ := svc.Process()
	if run.RemindersSent != 1 {
		t.Fatalf("final reminder run = %+v", run)
	}
	logs := store.logs["a1"]
	if logs[len(logs)-1].Type != ReminderTypeFinal {
		t.Fatalf("last log = %+v, want FINAL", logs[len(logs)-1])
	}

	// Max reached: the next sweep escalates to the configured address.
	svc.now = func() time.Time { return reminderNow.AddDate(0, 0, 6) }
	run, _ = svc.Process()
	if run.EscalationsSent != 1 || run.RemindersSent != 0 {
		t.Fatalf("escalation run = %+v", run)
	}
	if mails[len(mails)-1].to != "risk@corp.example" {
		t.Fatalf("escalation went to %s", mails[len(mails)-1].to)
	}
	if len(store.notifications) != 1 || store.notifications[0].Type != NotifEscalation {
		t.Fatalf("notifications = %+v", store.notifications)
	}

	// Escalation fires once, then the assessment is left alone.
	run, _ = svc.Process()
	if run.RemindersSent != 0 || run.EscalationsSent != 0 {
		t.Fatalf("post-escalation run = %+v", run)
	}
}

func TestReminderSkips(t *testing.T) {
	paused := outstandingAssessment("paused", 10)
	paused.RemindersPaused = true

	expired := outstandingAssessment("expired", 10)
	expiry := reminderNow.AddDate(0, 0, -1)
	expired.ExpiresAt = &expiry

	noEmail := outstandingAssessment("no-email", 10)
	noEmail.SentToEmail = ""

	store := newStubReminderStore(paused, expired, noEmail)
	var mails []sentMail
	svc := reminderServiceWith(store, reminderCfg(), &mails)

	run, err := svc.Process()
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if run.Checked != 0 || len(mails) != 0 {
		t.Fatalf("run = %+v, mails = %+v", run, mails)
	}
}

func TestReminderDisabledOrNoSender(t *testing.T) {
	store := newStubReminderStore(outstandingAssessment("a1", 10))

	cfg := reminderCfg()
	cfg.Enabled = false
	var mails []sentMail
	svc := reminderServiceWith(store, cfg, &mails)
	if run, _ := svc.Process(); run.Checked != 0 {
		t.Fatalf("disabled config still processed: %+v", run)
	}

	svc = NewReminderService(store, reminderCfg(), nil)
	if run, _ := svc.Process(); run.Checked != 0 {
		t.Fatalf("nil sender still processed: %+v", run)
	}
}

func TestReminderSendFailureSkipsAssessment(t *testing.T) {
	store := newStubReminderStore(
		outstandingAssessment("a1", 10),
		outstandingAssessment("a2", 10),
	)
	calls := 0
	svc := NewReminderService(store, reminderCfg(), func(to, subject, body string) error {
		calls++
		if calls == 1 {
			return errors.New("smtp unavailable")
		}
		return nil
	})
	svc.now = func() time.Time { return reminderNow }

	run, err := svc.Process()
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if run.Checked != 2 || run.RemindersSent != 1 {
		t.Fatalf("run = %+v", run)
	}
	// The failed assessment got no log row; it will be retried next sweep.
	total := len(store.logs["a1"]) + len(store.logs["a2"])
	if total != 1 {
		t.Fatalf("log rows = %d, want 1", total)
	}
}
