package services

import "time"

type Weight string

const (
	WeightLow      Weight = "LOW"
	WeightMedium   Weight = "MEDIUM"
	WeightHigh     Weight = "HIGH"
	WeightCritical Weight = "CRITICAL"
)

type AnswerMode string

const (
	AnswerModeSingle AnswerMode = "SINGLE"
	AnswerModeMulti  AnswerMode = "MULTI"
)

type EvalStatus string

const (
	EvalMeets         EvalStatus = "MEETS_EXPECTATION"
	EvalPartial       EvalStatus = "PARTIALLY_MEETS_EXPECTATION"
	EvalDoesNotMeet   EvalStatus = "DOES_NOT_MEET_EXPECTATION"
	EvalNoExpectation EvalStatus = "NO_EXPECTATION"
)

type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "VERY_LOW"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

type AssessmentStatus string

const (
	AssessmentDraft      AssessmentStatus = "DRAFT"
	AssessmentSent       AssessmentStatus = "SENT"
	AssessmentInProgress AssessmentStatus = "IN_PROGRESS"
	AssessmentSubmitted  AssessmentStatus = "SUBMITTED"
	AssessmentReviewed   AssessmentStatus = "REVIEWED"
)

type ResponseStatus string

const (
	ResponseDraft     ResponseStatus = "DRAFT"
	ResponseSubmitted ResponseStatus = "SUBMITTED"
	ResponseNeedsInfo ResponseStatus = "NEEDS_INFO"
)

type DecisionStatus string

const (
	DecisionDraft DecisionStatus = "DRAFT"
	DecisionFinal DecisionStatus = "FINAL"
)

type DecisionOutcome string

const (
	OutcomeApprove           DecisionOutcome = "APPROVE"
	OutcomeApproveConditions DecisionOutcome = "APPROVE_WITH_CONDITIONS"
	OutcomeNeedsFollowUp     DecisionOutcome = "NEEDS_FOLLOW_UP"
	OutcomeReject            DecisionOutcome = "REJECT"
)

type SLAStatus string

const (
	SLAOnTrack   SLAStatus = "ON_TRACK"
	SLAAtRisk    SLAStatus = "AT_RISK"
	SLABreached  SLAStatus = "BREACHED"
	SLACompleted SLAStatus = "COMPLETED"
	SLANA        SLAStatus = "NA"
)

// Notification and activity types. Breach and warning are independent:
// each fires at most once per assessment, and a warned assessment may
// still breach later.
const (
	NotifSLABreach  = "SLA_BREACH"
	NotifSLAWarning = "SLA_WARNING"
	NotifEscalation = "ESCALATION"

	ActivitySLABreach    = "SLA_BREACH"
	ActivityReminderSent = "REMINDER_SENT"
	ActivityAnswerChange = "ANSWER_CHANGE"
)

// Reminder log entry types.
const (
	ReminderTypeReminder   = "REMINDER"
	ReminderTypeFinal      = "FINAL"
	ReminderTypeEscalation = "ESCALATION"
)

// Vendor carries the classification attributes the tier calculator reads.
// TierOverride, when set, always wins over the computed inherent tier.
type Vendor struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	ContactEmail        string     `json:"contact_email,omitempty"`
	DataClassification  string     `json:"data_classification,omitempty"`
	BusinessCriticality string     `json:"business_criticality,omitempty"`
	AccessLevel         string     `json:"access_level,omitempty"`
	InherentRiskTier    string     `json:"inherent_risk_tier,omitempty"`
	TierOverride        string     `json:"tier_override,omitempty"`
	NextReviewDate      *time.Time `json:"next_review_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type Question struct {
	ID             string     `json:"id"`
	AssessmentID   string     `json:"assessment_id"`
	Position       int        `json:"position"`
	Text           string     `json:"text"`
	Category       string     `json:"category,omitempty"`
	Weight         Weight     `json:"weight"`
	AnswerMode     AnswerMode `json:"answer_mode"`
	ExpectedValue  string     `json:"expected_value,omitempty"`
	ExpectedValues []string   `json:"expected_values,omitempty"`
	AnswerOptions  []string   `json:"answer_options,omitempty"`
	BankItemID     string     `json:"question_bank_item_id,omitempty"`
}

// Answer holds one canonical choice (SINGLE) or a comma-joined choice set
// (MULTI). Choice is empty when the question is unanswered or the submitted
// value fell outside the allowed vocabulary.
type Answer struct {
	ResponseID string `json:"response_id"`
	QuestionID string `json:"question_id"`
	Choice     string `json:"choice,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type Response struct {
	ID           string         `json:"id"`
	AssessmentID string         `json:"assessment_id"`
	VendorName   string         `json:"vendor_name"`
	VendorEmail  string         `json:"vendor_email"`
	Status       ResponseStatus `json:"status"`
	Answers      []*Answer      `json:"answers,omitempty"`
	SubmittedAt  *time.Time     `json:"submitted_at,omitempty"`
	LastSavedAt  time.Time      `json:"last_saved_at"`
}

type Assessment struct {
	ID                   string           `json:"id"`
	VendorID             string           `json:"vendor_id,omitempty"`
	CompanyName          string           `json:"company_name"`
	Title                string           `json:"title"`
	Token                string           `json:"token"`
	Status               AssessmentStatus `json:"status"`
	SentToEmail          string           `json:"sent_to_email,omitempty"`
	SentAt               *time.Time       `json:"sent_at,omitempty"`
	SubmittedAt          *time.Time       `json:"submitted_at,omitempty"`
	ReviewedAt           *time.Time       `json:"reviewed_at,omitempty"`
	ExpiresAt            *time.Time       `json:"expires_at,omitempty"`
	RemindersPaused      bool             `json:"reminders_paused,omitempty"`
	PreviousAssessmentID string           `json:"previous_assessment_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// Decision is the reviewer's determination for one assessment. Once FINAL it
// is write-once; every later save attempt is rejected.
type Decision struct {
	ID                  string          `json:"id"`
	AssessmentID        string          `json:"assessment_id"`
	VendorID            string          `json:"vendor_id,omitempty"`
	Status              DecisionStatus  `json:"status"`
	DataSensitivity     string          `json:"data_sensitivity,omitempty"`
	BusinessCriticality string          `json:"business_criticality,omitempty"`
	ImpactRating        string          `json:"impact_rating,omitempty"`
	LikelihoodRating    string          `json:"likelihood_rating,omitempty"`
	OverallRiskRating   string          `json:"overall_risk_rating,omitempty"`
	Outcome             DecisionOutcome `json:"decision_outcome,omitempty"`
	Rationale           string          `json:"rationale,omitempty"`
	KeyFindings         string          `json:"key_findings,omitempty"`
	RemediationRequired string          `json:"remediation_required,omitempty"`
	NextReviewDate      *time.Time      `json:"next_review_date,omitempty"`
	FinalizedAt         *time.Time      `json:"finalized_at,omitempty"`
}

// SLAConfig is the per-tier deadline row. A tier without an enabled row has
// SLA tracking disabled, never breached.
type SLAConfig struct {
	Tier                 string  `json:"tier" toml:"tier"`
	ResponseDeadlineDays int     `json:"response_deadline_days" toml:"response_deadline_days"`
	ReviewDeadlineDays   int     `json:"review_deadline_days" toml:"review_deadline_days"`
	WarningThresholdPct  float64 `json:"warning_threshold_pct" toml:"warning_threshold_pct"`
	Enabled              bool    `json:"enabled" toml:"enabled"`
}

type Notification struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Link         string    `json:"link,omitempty"`
	VendorID     string    `json:"vendor_id,omitempty"`
	AssessmentID string    `json:"assessment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Activity struct {
	ID           string    `json:"id"`
	VendorID     string    `json:"vendor_id,omitempty"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	AssessmentID string    `json:"assessment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReminderLog struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	Type         string    `json:"type"`
	SentTo       string    `json:"sent_to,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// ReminderConfig drives the outstanding-assessment reminder cadence.
type ReminderConfig struct {
	Enabled           bool   `json:"enabled" toml:"enabled"`
	FirstReminderDays int    `json:"first_reminder_days" toml:"first_reminder_days"`
	FrequencyDays     int    `json:"frequency_days" toml:"frequency_days"`
	MaxReminders      int    `json:"max_reminders" toml:"max_reminders"`
	EscalationEmail   string `json:"escalation_email,omitempty" toml:"escalation_email"`
}

// TierRule is one row of the configurable tier priority table. Rules are
// evaluated in ascending priority order; the first rule whose vendor field
// equals Value wins.
type TierRule struct {
	Field    string `json:"field" toml:"field"`
	Value    string `json:"value" toml:"value"`
	Tier     string `json:"tier" toml:"tier"`
	Priority int    `json:"priority" toml:"priority"`
}

type User struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}
