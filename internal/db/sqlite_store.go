package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finchsec/vendorvet/internal/api"
	"github.com/finchsec/vendorvet/internal/services"
)

// SQLiteStore persists the whole platform in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) { return NewSQLiteStore(db) }

var _ api.Store = (*SQLiteStore)(nil)

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// encodeList JSON-encodes a string slice; empty slices become the empty
// string so the column stays cheap to read.
func encodeList(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func (s *SQLiteStore) AddVendor(v *services.Vendor) error {
	_, err := s.db.Exec(`INSERT INTO vendors
		(id, name, contact_email, data_classification, business_criticality, access_level,
		 inherent_risk_tier, tier_override, next_review_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.ContactEmail, v.DataClassification, v.BusinessCriticality, v.AccessLevel,
		v.InherentRiskTier, v.TierOverride, toNullTime(v.NextReviewDate), v.CreatedAt)
	return err
}

func (s *SQLiteStore) UpdateVendor(v *services.Vendor) error {
	_, err := s.db.Exec(`UPDATE vendors SET
		name = ?, contact_email = ?, data_classification = ?, business_criticality = ?,
		access_level = ?, inherent_risk_tier = ?, tier_override = ?, next_review_date = ?
		WHERE id = ?`,
		v.Name, v.ContactEmail, v.DataClassification, v.BusinessCriticality,
		v.AccessLevel, v.InherentRiskTier, v.TierOverride, toNullTime(v.NextReviewDate), v.ID)
	return err
}

const vendorCols = `id, name, contact_email, data_classification, business_criticality,
	access_level, inherent_risk_tier, tier_override, next_review_date, created_at`

func scanVendor(row interface{ Scan(...any) error }) (*services.Vendor, error) {
	var v services.Vendor
	var next sql.NullTime
	err := row.Scan(&v.ID, &v.Name, &v.ContactEmail, &v.DataClassification, &v.BusinessCriticality,
		&v.AccessLevel, &v.InherentRiskTier, &v.TierOverride, &next, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.NextReviewDate = fromNullTime(next)
	return &v, nil
}

func (s *SQLiteStore) GetVendor(id string) (*services.Vendor, error) {
	v, err := scanVendor(s.db.QueryRow(`SELECT `+vendorCols+` FROM vendors WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (s *SQLiteStore) ListVendors() ([]*services.Vendor, error) {
	rows, err := s.db.Query(`SELECT ` + vendorCols + ` FROM vendors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

const assessmentCols = `id, vendor_id, company_name, title, token, status, sent_to_email,
	sent_at, submitted_at, reviewed_at, expires_at, reminders_paused, previous_assessment_id, created_at`

func scanAssessment(row interface{ Scan(...any) error }) (*services.Assessment, error) {
	var a services.Assessment
	var sentAt, submittedAt, reviewedAt, expiresAt sql.NullTime
	var paused int
	err := row.Scan(&a.ID, &a.VendorID, &a.CompanyName, &a.Title, &a.Token, &a.Status, &a.SentToEmail,
		&sentAt, &submittedAt, &reviewedAt, &expiresAt, &paused, &a.PreviousAssessmentID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.SentAt = fromNullTime(sentAt)
	a.SubmittedAt = fromNullTime(submittedAt)
	a.ReviewedAt = fromNullTime(reviewedAt)
	a.ExpiresAt = fromNullTime(expiresAt)
	a.RemindersPaused = paused != 0
	return &a, nil
}

func (s *SQLiteStore) InsertAssessment(a *services.Assessment) error {
	_, err := s.db.Exec(`INSERT INTO assessments
		(id, vendor_id, company_name, title, token, status, sent_to_email,
		 sent_at, submitted_at, reviewed_at, expires_at, reminders_paused, previous_assessment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.VendorID, a.CompanyName, a.Title, a.Token, a.Status, a.SentToEmail,
		toNullTime(a.SentAt), toNullTime(a.SubmittedAt), toNullTime(a.ReviewedAt), toNullTime(a.ExpiresAt),
		boolToInt(a.RemindersPaused), a.PreviousAssessmentID, a.CreatedAt)
	return err
}

func (s *SQLiteStore) UpdateAssessment(a *services.Assessment) error {
	_, err := s.db.Exec(`UPDATE assessments SET
		vendor_id = ?, company_name = ?, title = ?, status = ?, sent_to_email = ?,
		sent_at = ?, submitted_at = ?, reviewed_at = ?, expires_at = ?,
		reminders_paused = ?, previous_assessment_id = ?
		WHERE id = ?`,
		a.VendorID, a.CompanyName, a.Title, a.Status, a.SentToEmail,
		toNullTime(a.SentAt), toNullTime(a.SubmittedAt), toNullTime(a.ReviewedAt), toNullTime(a.ExpiresAt),
		boolToInt(a.RemindersPaused), a.PreviousAssessmentID, a.ID)
	return err
}

func (s *SQLiteStore) GetAssessment(id string) (*services.Assessment, error) {
	a, err := scanAssessment(s.db.QueryRow(`SELECT `+assessmentCols+` FROM assessments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) GetAssessmentByToken(token string) (*services.Assessment, error) {
	a, err := scanAssessment(s.db.QueryRow(`SELECT `+assessmentCols+` FROM assessments WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) listAssessments(where string, args ...any) ([]*services.Assessment, error) {
	rows, err := s.db.Query(`SELECT `+assessmentCols+` FROM assessments `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAssessments() ([]*services.Assessment, error) {
	return s.listAssessments("")
}

func (s *SQLiteStore) ListAssessmentsByStatus(statuses ...services.AssessmentStatus) ([]*services.Assessment, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	marks := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, st := range statuses {
		marks[i] = "?"
		args[i] = string(st)
	}
	return s.listAssessments("WHERE status IN ("+strings.Join(marks, ",")+")", args...)
}

func (s *SQLiteStore) InsertQuestion(q *services.Question) error {
	_, err := s.db.Exec(`INSERT INTO questions
		(id, assessment_id, position, text, category, weight, answer_mode,
		 expected_value, expected_values, answer_options, bank_item_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.AssessmentID, q.Position, q.Text, q.Category, q.Weight, q.AnswerMode,
		q.ExpectedValue, encodeList(q.ExpectedValues), encodeList(q.AnswerOptions), q.BankItemID)
	return err
}

func (s *SQLiteStore) UpdateQuestion(q *services.Question) error {
	res, err := s.db.Exec(`UPDATE questions SET
		position = ?, text = ?, category = ?, weight = ?, answer_mode = ?,
		expected_value = ?, expected_values = ?, answer_options = ?, bank_item_id = ?
		WHERE id = ?`,
		q.Position, q.Text, q.Category, q.Weight, q.AnswerMode,
		q.ExpectedValue, encodeList(q.ExpectedValues), encodeList(q.AnswerOptions), q.BankItemID, q.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.NewNotFoundError("question not found")
	}
	return nil
}

func (s *SQLiteStore) DeleteQuestion(id string) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListQuestions(assessmentID string) ([]*services.Question, error) {
	rows, err := s.db.Query(`SELECT id, assessment_id, position, text, category, weight, answer_mode,
		expected_value, expected_values, answer_options, bank_item_id
		FROM questions WHERE assessment_id = ? ORDER BY position, id`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Question
	for rows.Next() {
		var q services.Question
		var expectedValues, answerOptions string
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Position, &q.Text, &q.Category, &q.Weight, &q.AnswerMode,
			&q.ExpectedValue, &expectedValues, &answerOptions, &q.BankItemID); err != nil {
			return nil, err
		}
		q.ExpectedValues = decodeList(expectedValues)
		q.AnswerOptions = decodeList(answerOptions)
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertResponse(r *services.Response) error {
	_, err := s.db.Exec(`INSERT INTO responses
		(id, assessment_id, vendor_name, vendor_email, status, submitted_at, last_saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AssessmentID, r.VendorName, r.VendorEmail, r.Status, toNullTime(r.SubmittedAt), r.LastSavedAt)
	return err
}

func (s *SQLiteStore) UpdateResponse(r *services.Response) error {
	_, err := s.db.Exec(`UPDATE responses SET
		vendor_name = ?, vendor_email = ?, status = ?, submitted_at = ?, last_saved_at = ?
		WHERE id = ?`,
		r.VendorName, r.VendorEmail, r.Status, toNullTime(r.SubmittedAt), r.LastSavedAt, r.ID)
	return err
}

func (s *SQLiteStore) LatestResponse(assessmentID string) (*services.Response, error) {
	row := s.db.QueryRow(`SELECT id, assessment_id, vendor_name, vendor_email, status, submitted_at, last_saved_at
		FROM responses WHERE assessment_id = ? ORDER BY last_saved_at DESC, rowid DESC LIMIT 1`, assessmentID)
	var r services.Response
	var submittedAt sql.NullTime
	err := row.Scan(&r.ID, &r.AssessmentID, &r.VendorName, &r.VendorEmail, &r.Status, &submittedAt, &r.LastSavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.SubmittedAt = fromNullTime(submittedAt)

	rows, err := s.db.Query(`SELECT response_id, question_id, choice, notes
		FROM answers WHERE response_id = ? ORDER BY question_id`, r.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a services.Answer
		if err := rows.Scan(&a.ResponseID, &a.QuestionID, &a.Choice, &a.Notes); err != nil {
			return nil, err
		}
		r.Answers = append(r.Answers, &a)
	}
	return &r, rows.Err()
}

func (s *SQLiteStore) UpsertAnswer(a *services.Answer) error {
	_, err := s.db.Exec(`INSERT INTO answers (response_id, question_id, choice, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(response_id, question_id) DO UPDATE SET choice = excluded.choice, notes = excluded.notes`,
		a.ResponseID, a.QuestionID, a.Choice, a.Notes)
	return err
}

func (s *SQLiteStore) DeleteAnswer(responseID, questionID string) error {
	_, err := s.db.Exec(`DELETE FROM answers WHERE response_id = ? AND question_id = ?`, responseID, questionID)
	return err
}

func (s *SQLiteStore) InsertDecision(d *services.Decision) error {
	_, err := s.db.Exec(`INSERT INTO decisions
		(id, assessment_id, vendor_id, status, data_sensitivity, business_criticality,
		 impact_rating, likelihood_rating, overall_risk_rating, outcome, rationale,
		 key_findings, remediation_required, next_review_date, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AssessmentID, d.VendorID, d.Status, d.DataSensitivity, d.BusinessCriticality,
		d.ImpactRating, d.LikelihoodRating, d.OverallRiskRating, d.Outcome, d.Rationale,
		d.KeyFindings, d.RemediationRequired, toNullTime(d.NextReviewDate), toNullTime(d.FinalizedAt))
	return err
}

// UpdateDecision writes the form fields, guarded on the row still being
// DRAFT. A false return means the decision finalized since it was read.
// Status and finalized_at move exclusively through FinalizeDecision.
func (s *SQLiteStore) UpdateDecision(d *services.Decision) (bool, error) {
	res, err := s.db.Exec(`UPDATE decisions SET
		data_sensitivity = ?, business_criticality = ?, impact_rating = ?,
		likelihood_rating = ?, overall_risk_rating = ?, outcome = ?, rationale = ?,
		key_findings = ?, remediation_required = ?, next_review_date = ?
		WHERE id = ? AND status = ?`,
		d.DataSensitivity, d.BusinessCriticality, d.ImpactRating,
		d.LikelihoodRating, d.OverallRiskRating, d.Outcome, d.Rationale,
		d.KeyFindings, d.RemediationRequired, toNullTime(d.NextReviewDate),
		d.ID, services.DecisionDraft)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) GetDecisionByAssessment(assessmentID string) (*services.Decision, error) {
	row := s.db.QueryRow(`SELECT id, assessment_id, vendor_id, status, data_sensitivity, business_criticality,
		impact_rating, likelihood_rating, overall_risk_rating, outcome, rationale,
		key_findings, remediation_required, next_review_date, finalized_at
		FROM decisions WHERE assessment_id = ?`, assessmentID)
	var d services.Decision
	var nextReview, finalizedAt sql.NullTime
	err := row.Scan(&d.ID, &d.AssessmentID, &d.VendorID, &d.Status, &d.DataSensitivity, &d.BusinessCriticality,
		&d.ImpactRating, &d.LikelihoodRating, &d.OverallRiskRating, &d.Outcome, &d.Rationale,
		&d.KeyFindings, &d.RemediationRequired, &nextReview, &finalizedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.NextReviewDate = fromNullTime(nextReview)
	d.FinalizedAt = fromNullTime(finalizedAt)
	return &d, nil
}

// FinalizeDecision performs the DRAFT → FINAL flip as a single guarded
// update, so concurrent finalizes resolve to exactly one winner.
func (s *SQLiteStore) FinalizeDecision(id string, at time.Time) (bool, error) {
	res, err := s.db.Exec(`UPDATE decisions SET status = ?, finalized_at = ? WHERE id = ? AND status = ?`,
		services.DecisionFinal, at, id, services.DecisionDraft)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) UpsertSLAConfig(c *services.SLAConfig) error {
	_, err := s.db.Exec(`INSERT INTO sla_configs
		(tier, response_deadline_days, review_deadline_days, warning_threshold_pct, enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tier) DO UPDATE SET
			response_deadline_days = excluded.response_deadline_days,
			review_deadline_days = excluded.review_deadline_days,
			warning_threshold_pct = excluded.warning_threshold_pct,
			enabled = excluded.enabled`,
		c.Tier, c.ResponseDeadlineDays, c.ReviewDeadlineDays, c.WarningThresholdPct, boolToInt(c.Enabled))
	return err
}

func (s *SQLiteStore) ListSLAConfigs() ([]*services.SLAConfig, error) {
	rows, err := s.db.Query(`SELECT tier, response_deadline_days, review_deadline_days, warning_threshold_pct, enabled
		FROM sla_configs ORDER BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.SLAConfig
	for rows.Next() {
		var c services.SLAConfig
		var enabled int
		if err := rows.Scan(&c.Tier, &c.ResponseDeadlineDays, &c.ReviewDeadlineDays, &c.WarningThresholdPct, &enabled); err != nil {
			return nil, err
		}
		c.Enabled = enabled != 0
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddNotification(n *services.Notification) error {
	_, err := s.db.Exec(`INSERT INTO notifications (id, type, message, link, vendor_id, assessment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Type, n.Message, n.Link, n.VendorID, n.AssessmentID, n.CreatedAt)
	return err
}

func (s *SQLiteStore) HasNotification(ntype, assessmentID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM notifications WHERE type = ? AND assessment_id = ?`,
		ntype, assessmentID).Scan(&count)
	return count > 0, err
}

func (s *SQLiteStore) ListNotifications() ([]*services.Notification, error) {
	rows, err := s.db.Query(`SELECT id, type, message, link, vendor_id, assessment_id, created_at
		FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Notification
	for rows.Next() {
		var n services.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Message, &n.Link, &n.VendorID, &n.AssessmentID, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddActivity(act *services.Activity) error {
	_, err := s.db.Exec(`INSERT INTO activities (id, vendor_id, type, description, assessment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		act.ID, act.VendorID, act.Type, act.Description, act.AssessmentID, act.CreatedAt)
	return err
}

func (s *SQLiteStore) ListActivities(vendorID string) ([]*services.Activity, error) {
	query := `SELECT id, vendor_id, type, description, assessment_id, created_at FROM activities`
	var args []any
	if vendorID != "" {
		query += ` WHERE vendor_id = ?`
		args = append(args, vendorID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Activity
	for rows.Next() {
		var act services.Activity
		if err := rows.Scan(&act.ID, &act.VendorID, &act.Type, &act.Description, &act.AssessmentID, &act.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &act)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddReminderLog(l *services.ReminderLog) error {
	_, err := s.db.Exec(`INSERT INTO reminder_logs (id, assessment_id, type, sent_to, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.AssessmentID, l.Type, l.SentTo, l.SentAt)
	return err
}

func (s *SQLiteStore) ListReminderLogs(assessmentID string) ([]*services.ReminderLog, error) {
	rows, err := s.db.Query(`SELECT id, assessment_id, type, sent_to, sent_at
		FROM reminder_logs WHERE assessment_id = ? ORDER BY sent_at`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.ReminderLog
	for rows.Next() {
		var l services.ReminderLog
		if err := rows.Scan(&l.ID, &l.AssessmentID, &l.Type, &l.SentTo, &l.SentAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplaceTierRules(rules []*services.TierRule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM tier_rules`); err != nil {
		return err
	}
	for _, r := range rules {
		if _, err := tx.Exec(`INSERT INTO tier_rules (field, value, tier, priority) VALUES (?, ?, ?, ?)`,
			r.Field, r.Value, r.Tier, r.Priority); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListTierRules() ([]*services.TierRule, error) {
	rows, err := s.db.Query(`SELECT field, value, tier, priority FROM tier_rules ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.TierRule
	for rows.Next() {
		var r services.TierRule
		if err := rows.Scan(&r.Field, &r.Value, &r.Tier, &r.Priority); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.CreatedAt)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, created_at FROM users WHERE email = ?`, email)
	var u services.User
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
