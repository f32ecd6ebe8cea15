package services

import (
	"testing"
	"time"
)

var slaNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) *time.Time {
	t := slaNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
	return &t
}

func defaultCfg() *SLAConfig {
	return &SLAConfig{Tier: TierOne, ResponseDeadlineDays: 7, ReviewDeadlineDays: 10, WarningThresholdPct: 80, Enabled: true}
}

func TestComputeSLAStatusResponsePhase(t *testing.T) {
	cases := []struct {
		name        string
		sentDaysAgo float64
		submitted   *time.Time
		want        SLAStatus
	}{
		{"on track", 2, nil, SLAOnTrack},
		{"at risk past threshold", 6, nil, SLAAtRisk}, // 6/7 = 86%
		{"breached past deadline", 10, nil, SLABreached},
		{"completed within deadline", 6, daysAgo(1), SLACompleted},
		{"breached even though submitted", 12, daysAgo(1), SLABreached},
	}
	for _, c := range cases {
		a := &Assessment{Status: AssessmentSent, SentAt: daysAgo(c.sentDaysAgo), SubmittedAt: c.submitted}
		got := ComputeSLAStatus(a, defaultCfg(), slaNow, nil)
		if got.ResponsePhase == nil {
			t.Fatalf("%s: response phase inactive", c.name)
		}
		if got.ResponsePhase.Status != c.want {
			t.Fatalf("%s: status = %s, want %s", c.name, got.ResponsePhase.Status, c.want)
		}
	}
}

func TestComputeSLAStatusReviewPhase(t *testing.T) {
	a := &Assessment{Status: AssessmentSubmitted, SentAt: daysAgo(20), SubmittedAt: daysAgo(12)}

	// Unfinalized, 12 days elapsed against a 10-day deadline.
	got := ComputeSLAStatus(a, defaultCfg(), slaNow, nil)
	if got.ReviewPhase == nil || got.ReviewPhase.Status != SLABreached {
		t.Fatalf("review phase = %+v, want BREACHED", got.ReviewPhase)
	}

	// A FINAL decision stops the review clock.
	d := &Decision{Status: DecisionFinal, FinalizedAt: daysAgo(4)}
	got = ComputeSLAStatus(a, defaultCfg(), slaNow, d)
	if got.ReviewPhase.Status != SLACompleted {
		t.Fatalf("review phase with final decision = %s, want COMPLETED", got.ReviewPhase.Status)
	}
	if got.ReviewPhase.DaysElapsed != 8 {
		t.Fatalf("review days elapsed = %v, want 8", got.ReviewPhase.DaysElapsed)
	}

	// A draft decision does not.
	got = ComputeSLAStatus(a, defaultCfg(), slaNow, &Decision{Status: DecisionDraft, FinalizedAt: daysAgo(4)})
	if got.ReviewPhase.Status != SLABreached {
		t.Fatalf("review phase with draft decision = %s, want BREACHED", got.ReviewPhase.Status)
	}
}

func TestComputeSLAStatusOverall(t *testing.T) {
	// Missing or disabled config is NA, never a breach.
	a := &Assessment{Status: AssessmentSent, SentAt: daysAgo(100)}
	if got := ComputeSLAStatus(a, nil, slaNow, nil); got.Overall != SLANA {
		t.Fatalf("overall without config = %s, want NA", got.Overall)
	}
	disabled := defaultCfg()
	disabled.Enabled = false
	if got := ComputeSLAStatus(a, disabled, slaNow, nil); got.Overall != SLANA {
		t.Fatalf("overall with disabled config = %s, want NA", got.Overall)
	}

	// Never sent: no phase active.
	if got := ComputeSLAStatus(&Assessment{Status: AssessmentDraft}, defaultCfg(), slaNow, nil); got.Overall != SLANA {
		t.Fatalf("overall when never sent = %s, want NA", got.Overall)
	}

	// Response completed on time, review breached: worst phase wins.
	a = &Assessment{Status: AssessmentSubmitted, SentAt: daysAgo(20), SubmittedAt: daysAgo(15)}
	if got := ComputeSLAStatus(a, defaultCfg(), slaNow, nil); got.Overall != SLABreached {
		t.Fatalf("overall = %s, want BREACHED", got.Overall)
	}

	// Both phases completed within deadline.
	d := &Decision{Status: DecisionFinal, FinalizedAt: daysAgo(10)}
	a = &Assessment{Status: AssessmentReviewed, SentAt: daysAgo(20), SubmittedAt: daysAgo(15)}
	if got := ComputeSLAStatus(a, defaultCfg(), slaNow, d); got.Overall != SLACompleted {
		t.Fatalf("overall = %s, want COMPLETED", got.Overall)
	}
}

type stubSLAStore struct {
	configs       []*SLAConfig
	assessments   []*Assessment
	vendors       map[string]*Vendor
	decisions     map[string]*Decision
	notifications []*Notification
	activities    []*Activity
}

func (s *stubSLAStore) ListSLAConfigs() ([]*SLAConfig, error) { return s.configs, nil }

func (s *stubSLAStore) ListAssessmentsByStatus(statuses ...AssessmentStatus) ([]*Assessment, error) {
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

func (s *stubSLAStore) GetVendor(id string) (*Vendor, error) { return s.vendors[id], nil }

func (s *stubSLAStore) GetDecisionByAssessment(id string) (*Decision, error) {
	return s.decisions[id], nil
}

func (s *stubSLAStore) HasNotification(ntype, assessmentID string) (bool, error) {
	for _, n := range s.notifications {
		if n.Type == ntype && n.AssessmentID == assessmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubSLAStore) AddNotification(n *Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *stubSLAStore) AddActivity(a *Activity) error {
	s.activities = append(s.activities, a)
	return nil
}

func trackerWith(store *stubSLAStore) *SLATracker {
	tr := NewSLATracker(store)
	tr.now = func() time.Time { return slaNow }
	return tr
}

func TestCheckBreachesIdempotent(t *testing.T) {
	store := &stubSLAStore{
		configs: []*SLAConfig{defaultCfg()},
		vendors: map[string]*Vendor{"v1": {ID: "v1", InherentRiskTier: TierOne}},
		assessments: []*Assessment{
			{ID: "a1", VendorID: "v1", CompanyName: "Acme", Title: "Annual review", Status: AssessmentSent, SentAt: daysAgo(10)},
			{ID: "a2", VendorID: "v1", CompanyName: "Acme", Title: "Onboarding", Status: AssessmentSent, SentAt: daysAgo(6)}, // 86% of 7d
		},
		decisions: map[string]*Decision{},
	}
	tr := trackerWith(store)

	first, err := tr.CheckBreaches()
	if err != nil {
		t.Fatalf("CheckBreaches error: %v", err)
	}
	if first.Checked != 2 || first.NewBreaches != 1 || first.NewWarnings != 1 {
		t.Fatalf("first run = %+v", first)
	}
	if len(store.notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(store.notifications))
	}
	if len(store.activities) != 1 || store.activities[0].Type != ActivitySLABreach {
		t.Fatalf("activities = %+v", store.activities)
	}

	second, err := tr.CheckBreaches()
	if err != nil {
		t.Fatalf("CheckBreaches error: %v", err)
	}
	if second.NewBreaches != 0 || second.NewWarnings != 0 {
		t.Fatalf("second run produced new notifications: %+v", second)
	}
}

func TestCheckBreachesWarningThenBreach(t *testing.T) {
	a := &Assessment{ID: "a1", VendorID: "v1", CompanyName: "Acme", Title: "Annual review", Status: AssessmentSent, SentAt: daysAgo(6)}
	store := &stubSLAStore{
		configs:     []*SLAConfig{defaultCfg()},
		vendors:     map[string]*Vendor{"v1": {ID: "v1", InherentRiskTier: TierOne}},
		assessments: []*Assessment{a},
		decisions:   map[string]*Decision{},
	}
	tr := trackerWith(store)

	run, _ := tr.CheckBreaches()
	if run.NewWarnings != 1 || run.NewBreaches != 0 {
		t.Fatalf("warning run = %+v", run)
	}

	// Time passes; the same assessment crosses the deadline. The existing
	// warning does not suppress the breach notification.
	tr.now = func() time.Time { return slaNow.Add(5 * 24 * time.Hour) }
	run, _ = tr.CheckBreaches()
	if run.NewBreaches != 1 || run.NewWarnings != 0 {
		t.Fatalf("breach run = %+v", run)
	}
	if len(store.notifications) != 2 {
		t.Fatalf("notifications = %d, want warning + breach", len(store.notifications))
	}
}

func TestCheckBreachesSkipsUnconfiguredTier(t *testing.T) {
	store := &stubSLAStore{
		configs: []*SLAConfig{defaultCfg()}, // Tier 1 only
		vendors: map[string]*Vendor{"v2": {ID: "v2", InherentRiskTier: TierThree}},
		assessments: []*Assessment{
			{ID: "a1", VendorID: "v2", Status: AssessmentSent, SentAt: daysAgo(400)},
		},
		decisions: map[string]*Decision{},
	}
	tr := trackerWith(store)
	run, err := tr.CheckBreaches()
	if err != nil {
		t.Fatalf("CheckBreaches error: %v", err)
	}
	if run.NewBreaches != 0 || run.NewWarnings != 0 {
		t.Fatalf("unconfigured tier produced notifications: %+v", run)
	}
}

func TestSLASummary(t *testing.T) {
	finalized := daysAgo(2)
	store := &stubSLAStore{
		configs: []*SLAConfig{defaultCfg()},
		vendors: map[string]*Vendor{"v1": {ID: "v1", InherentRiskTier: TierOne}},
		assessments: []*Assessment{
			// Breached response phase, still unsubmitted.
			{ID: "a1", VendorID: "v1", CompanyName: "Acme", Title: "T1", Status: AssessmentSent, SentAt: daysAgo(10)},
			// Completed both phases: response 4 days, review 6 days.
			{ID: "a2", VendorID: "v1", CompanyName: "Acme", Title: "T2", Status: AssessmentReviewed, SentAt: daysAgo(12), SubmittedAt: daysAgo(8)},
		},
		decisions: map[string]*Decision{
			"a2": {Status: DecisionFinal, FinalizedAt: finalized},
		},
	}
	tr := trackerWith(store)

	sum, err := tr.Summary()
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if !sum.Enabled {
		t.Fatalf("summary should be enabled")
	}
	if sum.BreachCount != 1 || sum.AtRiskCount != 0 {
		t.Fatalf("counts = breach %d, at-risk %d", sum.BreachCount, sum.AtRiskCount)
	}
	// a1's response phase is breached (10d); a2's completed (4d): avg 7.0.
	if sum.AvgResponseDays == nil || *sum.AvgResponseDays != 7 {
		t.Fatalf("avg response days = %v, want 7", sum.AvgResponseDays)
	}
	if sum.AvgReviewDays == nil || *sum.AvgReviewDays != 6 {
		t.Fatalf("avg review days = %v, want 6", sum.AvgReviewDays)
	}

	tr.SetEnabled(false)
	sum, err = tr.Summary()
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if sum.Enabled {
		t.Fatalf("disabled tracker should report enabled=false")
	}
}
