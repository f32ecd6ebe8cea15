package services

import (
	"fmt"
	"time"
)

type ReminderStore interface {
	ListAssessmentsByStatus(statuses ...AssessmentStatus) ([]*Assessment, error)
	ListReminderLogs(assessmentID string) ([]*ReminderLog, error)
	AddReminderLog(l *ReminderLog) error
	AddNotification(n *Notification) error
	AddActivity(act *Activity) error
}

// EmailSender delivers one message. The real sender lives outside this core;
// tests and dev builds inject a recorder.
type EmailSender func(to, subject, body string) error

// ReminderService nudges vendors with outstanding assessments: a first
// reminder after FirstReminderDays, follow-ups every FrequencyDays up to
// MaxReminders, then a single escalation to the configured address.
type ReminderService struct {
	store ReminderStore
	cfg   ReminderConfig
	send  EmailSender
	now   func() time.Time
	idGen func() string
}

func NewReminderService(store ReminderStore, cfg ReminderConfig, send EmailSender) *ReminderService {
	return &ReminderService{
		store: store,
		cfg:   cfg,
		send:  send,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

type ReminderRun struct {
	Checked         int `json:"checked"`
	RemindersSent   int `json:"reminders_sent"`
	EscalationsSent int `json:"escalations_sent"`
}

// Process performs one reminder sweep. Send failures are logged per
// assessment and do not abort the sweep.
func (s *ReminderService) Process() (*ReminderRun, error) {
	run := &ReminderRun{}
	if !s.cfg.Enabled || s.send == nil {
		return run, nil
	}

	assessments, err := s.store.ListAssessmentsByStatus(AssessmentSent, AssessmentInProgress)
	if err != nil {
		return nil, err
	}
	now := s.now()

	for _, a := range assessments {
		if a.SentAt == nil || a.SentToEmail == "" || a.RemindersPaused {
			continue
		}
		if a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			continue
		}
		run.Checked++

		logs, err := s.store.ListReminderLogs(a.ID)
		if err != nil {
			return run, err
		}
		var reminders []*ReminderLog
		escalated := false
		for _, l := range logs {
			switch l.Type {
			case ReminderTypeReminder, ReminderTypeFinal:
				reminders = append(reminders, l)
			case ReminderTypeEscalation:
				escalated = true
			}
		}

		if len(reminders) >= s.cfg.MaxReminders {
			if escalated || s.cfg.EscalationEmail == "" {
				continue
			}
			if err := s.escalate(a, len(reminders), now); err != nil {
				continue
			}
			run.EscalationsSent++
			continue
		}

		daysSinceSent := int(now.Sub(*a.SentAt).Hours() / 24)
		if len(reminders) == 0 {
			if daysSinceSent < s.cfg.FirstReminderDays {
				continue
			}
		} else {
			last := reminders[0]
			for _, l := range reminders[1:] {
				if l.SentAt.After(last.SentAt) {
					last = l
				}
			}
			if int(now.Sub(last.SentAt).Hours()/24) < s.cfg.FrequencyDays {
				continue
			}
		}

		if err := s.remind(a, len(reminders), now); err != nil {
			continue
		}
		run.RemindersSent++
	}
	return run, nil
}

func (s *ReminderService) remind(a *Assessment, sentSoFar int, now time.Time) error {
	subject := fmt.Sprintf("Reminder: security assessment %q awaits your response", a.Title)
	body := fmt.Sprintf("The assessment %q for %s is still outstanding. Please complete it at your earliest convenience.", a.Title, a.CompanyName)
	if err := s.send(a.SentToEmail, subject, body); err != nil {
		return err
	}
	rtype := ReminderTypeReminder
	if sentSoFar == s.cfg.MaxReminders-1 {
		rtype = ReminderTypeFinal
	}
	if err := s.store.AddReminderLog(&ReminderLog{
		ID:           s.idGen(),
		AssessmentID: a.ID,
		Type:         rtype,
		SentTo:       a.SentToEmail,
		SentAt:       now,
	}); err != nil {
		return err
	}
	if a.VendorID != "" {
		return s.store.AddActivity(&Activity{
			ID:           s.idGen(),
			VendorID:     a.VendorID,
			Type:         ActivityReminderSent,
			Description:  fmt.Sprintf("Reminder sent for assessment %q", a.Title),
			AssessmentID: a.ID,
			CreatedAt:    now,
		})
	}
	return nil
}

func (s *ReminderService) escalate(a *Assessment, remindersSent int, now time.Time) error {
	subject := fmt.Sprintf("Escalation: %s has not responded to %q", a.CompanyName, a.Title)
	body := fmt.Sprintf("%d reminders were sent with no submission. Manual follow-up is required.", remindersSent)
	if err := s.send(s.cfg.EscalationEmail, subject, body); err != nil {
		return err
	}
	if err := s.store.AddReminderLog(&ReminderLog{
		ID:           s.idGen(),
		AssessmentID: a.ID,
		Type:         ReminderTypeEscalation,
		SentTo:       s.cfg.EscalationEmail,
		SentAt:       now,
	}); err != nil {
		return err
	}
	return s.store.AddNotification(&Notification{
		ID:           s.idGen(),
		Type:         NotifEscalation,
		Message:      fmt.Sprintf("Vendor %s is unresponsive on %q", a.CompanyName, a.Title),
		Link:         "/assessments/tracker",
		VendorID:     a.VendorID,
		AssessmentID: a.ID,
		CreatedAt:    now,
	})
}
