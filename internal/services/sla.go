package services

import (
	"fmt"
	"time"
)

type PhaseStatus struct {
	Status       SLAStatus `json:"status"`
	DaysElapsed  float64   `json:"days_elapsed"`
	DeadlineDays int       `json:"deadline_days"`
	Pct          float64   `json:"pct"`
}

type SLAResult struct {
	ResponsePhase *PhaseStatus `json:"response_phase"`
	ReviewPhase   *PhaseStatus `json:"review_phase"`
	Overall       SLAStatus    `json:"overall"`
}

func computePhase(start time.Time, end *time.Time, now time.Time, deadlineDays int, thresholdPct float64) *PhaseStatus {
	at := now
	if end != nil {
		at = *end
	}
	daysElapsed := at.Sub(start).Seconds() / 86400
	pct := 0.0
	if deadlineDays > 0 {
		pct = daysElapsed / float64(deadlineDays) * 100
	}

	var status SLAStatus
	if end != nil {
		if daysElapsed <= float64(deadlineDays) {
			status = SLACompleted
		} else {
			status = SLABreached
		}
	} else {
		switch {
		case daysElapsed > float64(deadlineDays):
			status = SLABreached
		case pct >= thresholdPct:
			status = SLAAtRisk
		default:
			status = SLAOnTrack
		}
	}

	return &PhaseStatus{
		Status:       status,
		DaysElapsed:  round1(daysElapsed),
		DeadlineDays: deadlineDays,
		Pct:          round1(pct),
	}
}

// ComputeSLAStatus measures the response phase (sent_at → submitted_at) and
// the review phase (submitted_at → finalized_at) against the tier's deadline
// configuration. A nil or disabled config yields no phases and overall NA,
// so an unconfigured tier is never reported as breached.
func ComputeSLAStatus(a *Assessment, cfg *SLAConfig, now time.Time, decision *Decision) *SLAResult {
	result := &SLAResult{Overall: SLANA}
	if cfg == nil || !cfg.Enabled {
		return result
	}

	if a.SentAt != nil {
		result.ResponsePhase = computePhase(*a.SentAt, a.SubmittedAt, now, cfg.ResponseDeadlineDays, cfg.WarningThresholdPct)
	}

	if a.SubmittedAt != nil {
		var finalizedAt *time.Time
		if decision != nil && decision.Status == DecisionFinal && decision.FinalizedAt != nil {
			finalizedAt = decision.FinalizedAt
		}
		result.ReviewPhase = computePhase(*a.SubmittedAt, finalizedAt, now, cfg.ReviewDeadlineDays, cfg.WarningThresholdPct)
	}

	// Overall is the worst of the active phases.
	var statuses []SLAStatus
	if result.ResponsePhase != nil {
		statuses = append(statuses, result.ResponsePhase.Status)
	}
	if result.ReviewPhase != nil {
		statuses = append(statuses, result.ReviewPhase.Status)
	}
	result.Overall = worstSLA(statuses)
	return result
}

func worstSLA(statuses []SLAStatus) SLAStatus {
	if len(statuses) == 0 {
		return SLANA
	}
	has := func(want SLAStatus) bool {
		for _, s := range statuses {
			if s == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(SLABreached):
		return SLABreached
	case has(SLAAtRisk):
		return SLAAtRisk
	case has(SLAOnTrack):
		return SLAOnTrack
	default:
		return SLACompleted
	}
}

type SLAStore interface {
	ListSLAConfigs() ([]*SLAConfig, error)
	ListAssessmentsByStatus(statuses ...AssessmentStatus) ([]*Assessment, error)
	GetVendor(id string) (*Vendor, error)
	GetDecisionByAssessment(assessmentID string) (*Decision, error)
	HasNotification(ntype, assessmentID string) (bool, error)
	AddNotification(n *Notification) error
	AddActivity(act *Activity) error
}

// SLATracker measures assessments against tier deadlines and emits
// idempotent breach/at-risk notifications.
type SLATracker struct {
	store   SLAStore
	enabled bool
	now     func() time.Time
}

func NewSLATracker(store SLAStore) *SLATracker {
	return &SLATracker{
		store:   store,
		enabled: true,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetEnabled toggles SLA tracking globally (default on).
func (t *SLATracker) SetEnabled(v bool) { t.enabled = v }

// StatusFor computes SLA status for one assessment using its vendor's
// effective tier configuration.
func (t *SLATracker) StatusFor(a *Assessment) (*SLAResult, error) {
	cfgs, err := t.configMap()
	if err != nil {
		return nil, err
	}
	cfg, err := t.configForAssessment(a, cfgs)
	if err != nil {
		return nil, err
	}
	decision, err := t.store.GetDecisionByAssessment(a.ID)
	if err != nil {
		return nil, err
	}
	return ComputeSLAStatus(a, cfg, t.now(), decision), nil
}

type SLASummary struct {
	Enabled         bool     `json:"enabled"`
	BreachCount     int      `json:"breach_count"`
	AtRiskCount     int      `json:"at_risk_count"`
	AvgResponseDays *float64 `json:"avg_response_days"`
	AvgReviewDays   *float64 `json:"avg_review_days"`
}

// Summary aggregates org-wide SLA counts. Only completed or breached phases
// enter the averages; phases still on track are excluded.
func (t *SLATracker) Summary() (*SLASummary, error) {
	if !t.enabled {
		return &SLASummary{Enabled: false}, nil
	}
	cfgs, err := t.configMap()
	if err != nil {
		return nil, err
	}
	assessments, err := t.store.ListAssessmentsByStatus(
		AssessmentSent, AssessmentInProgress, AssessmentSubmitted, AssessmentReviewed)
	if err != nil {
		return nil, err
	}
	now := t.now()

	summary := &SLASummary{Enabled: true}
	var responseDays, reviewDays []float64
	for _, a := range assessments {
		if a.SentAt == nil {
			continue
		}
		cfg, err := t.configForAssessment(a, cfgs)
		if err != nil {
			return nil, err
		}
		decision, err := t.store.GetDecisionByAssessment(a.ID)
		if err != nil {
			return nil, err
		}
		sla := ComputeSLAStatus(a, cfg, now, decision)

		switch sla.Overall {
		case SLABreached:
			summary.BreachCount++
		case SLAAtRisk:
			summary.AtRiskCount++
		}
		if p := sla.ResponsePhase; p != nil && (p.Status == SLACompleted || p.Status == SLABreached) {
			responseDays = append(responseDays, p.DaysElapsed)
		}
		if p := sla.ReviewPhase; p != nil && (p.Status == SLACompleted || p.Status == SLABreached) {
			reviewDays = append(reviewDays, p.DaysElapsed)
		}
	}
	summary.AvgResponseDays = avg(responseDays)
	summary.AvgReviewDays = avg(reviewDays)
	return summary, nil
}

func avg(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	out := round1(sum / float64(len(values)))
	return &out
}

type BreachCheckResult struct {
	Checked     int `json:"checked"`
	NewBreaches int `json:"new_breaches"`
	NewWarnings int `json:"new_warnings"`
}

// CheckBreaches scans active assessments and creates at most one breach and
// one warning notification per assessment. Re-running with no time elapsed
// produces nothing new; a warned assessment can still breach later.
func (t *SLATracker) CheckBreaches() (*BreachCheckResult, error) {
	result := &BreachCheckResult{}
	if !t.enabled {
		return result, nil
	}
	cfgs, err := t.configMap()
	if err != nil {
		return nil, err
	}
	assessments, err := t.store.ListAssessmentsByStatus(
		AssessmentSent, AssessmentInProgress, AssessmentSubmitted)
	if err != nil {
		return nil, err
	}
	now := t.now()

	for _, a := range assessments {
		if a.SentAt == nil {
			continue
		}
		result.Checked++

		cfg, err := t.configForAssessment(a, cfgs)
		if err != nil {
			return result, err
		}
		decision, err := t.store.GetDecisionByAssessment(a.ID)
		if err != nil {
			return result, err
		}
		sla := ComputeSLAStatus(a, cfg, now, decision)

		switch sla.Overall {
		case SLABreached:
			seen, err := t.store.HasNotification(NotifSLABreach, a.ID)
			if err != nil {
				return result, err
			}
			if seen {
				continue
			}
			link := "/assessments/tracker"
			if a.Status == AssessmentSubmitted {
				link = fmt.Sprintf("/assessments/%s/decision", a.ID)
			}
			if err := t.store.AddNotification(&Notification{
				ID:           shortID(12),
				Type:         NotifSLABreach,
				Message:      fmt.Sprintf("SLA breached for %s: %s", a.CompanyName, a.Title),
				Link:         link,
				VendorID:     a.VendorID,
				AssessmentID: a.ID,
				CreatedAt:    now,
			}); err != nil {
				return result, err
			}
			if a.VendorID != "" {
				if err := t.store.AddActivity(&Activity{
					ID:           shortID(12),
					VendorID:     a.VendorID,
					Type:         ActivitySLABreach,
					Description:  fmt.Sprintf("SLA breached for assessment %q", a.Title),
					AssessmentID: a.ID,
					CreatedAt:    now,
				}); err != nil {
					return result, err
				}
			}
			result.NewBreaches++

		case SLAAtRisk:
			seen, err := t.store.HasNotification(NotifSLAWarning, a.ID)
			if err != nil {
				return result, err
			}
			if seen {
				continue
			}
			if err := t.store.AddNotification(&Notification{
				ID:           shortID(12),
				Type:         NotifSLAWarning,
				Message:      fmt.Sprintf("SLA at risk for %s: %s", a.CompanyName, a.Title),
				Link:         "/assessments/tracker",
				VendorID:     a.VendorID,
				AssessmentID: a.ID,
				CreatedAt:    now,
			}); err != nil {
				return result, err
			}
			result.NewWarnings++
		}
	}
	return result, nil
}

func (t *SLATracker) configMap() (map[string]*SLAConfig, error) {
	cfgs, err := t.store.ListSLAConfigs()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*SLAConfig, len(cfgs))
	for _, c := range cfgs {
		if c.Enabled {
			out[c.Tier] = c
		}
	}
	return out, nil
}

func (t *SLATracker) configForAssessment(a *Assessment, cfgs map[string]*SLAConfig) (*SLAConfig, error) {
	if a.VendorID == "" {
		return nil, nil
	}
	vendor, err := t.store.GetVendor(a.VendorID)
	if err != nil {
		return nil, err
	}
	tier := EffectiveTier(vendor)
	if tier == "" {
		return nil, nil
	}
	return cfgs[tier], nil
}
