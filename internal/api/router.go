package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finchsec/vendorvet/internal/middleware"
	"github.com/finchsec/vendorvet/internal/services"
)

type Router struct {
	store     Store
	lifecycle *services.Lifecycle
	auth      *services.AuthService
	responses *services.ResponseService
	decisions *services.DecisionService
	reassess  *services.ReassessmentService
	tracker   *services.SLATracker
	now       func() time.Time
	idGen     func() string
}

func NewRouter(store Store) *Router {
	lc := services.NewLifecycle()
	return &Router{
		store:     store,
		lifecycle: lc,
		auth:      services.NewAuthService(store, middleware.SignToken),
		responses: services.NewResponseService(store, lc),
		decisions: services.NewDecisionService(store, lc),
		reassess:  services.NewReassessmentService(store),
		tracker:   services.NewSLATracker(store),
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

// Tracker exposes the SLA tracker so the scheduler can share it.
func (rt *Router) Tracker() *services.SLATracker { return rt.tracker }

func (rt *Router) Register(mux *http.ServeMux) {
	// Public: vendor portal and auth.
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/respond/", rt.handleRespond)       // GET|POST /api/respond/{token}
	mux.HandleFunc("/api/seed", rt.handleSeed)              // POST, dev convenience

	// Reviewer-facing, behind auth.
	protect := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	mux.Handle("/api/vendors", protect(rt.handleVendors))              // GET|POST
	mux.Handle("/api/vendors/", protect(rt.handleVendorScoped))        // GET|PUT /api/vendors/{id}[/tier|/activity]
	mux.Handle("/api/assessments", protect(rt.handleAssessments))      // GET|POST
	mux.Handle("/api/assessments/", protect(rt.handleAssessmentScoped))
	mux.Handle("/api/sla/summary", protect(rt.handleSLASummary))       // GET
	mux.Handle("/api/sla/check", protect(rt.handleSLACheck))           // POST
	mux.Handle("/api/sla/config", protect(rt.handleSLAConfig))         // GET|PUT
	mux.Handle("/api/tier-rules", protect(rt.handleTierRules))         // GET|PUT
	mux.Handle("/api/notifications", protect(rt.handleNotifications))  // GET
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusBadRequest
		switch se.Code {
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{"error": se.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}

// POST /api/auth/register {email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

type vendorInput struct {
	Name                string `json:"name"`
	ContactEmail        string `json:"contact_email"`
	DataClassification  string `json:"data_classification"`
	BusinessCriticality string `json:"business_criticality"`
	AccessLevel         string `json:"access_level"`
}

func (rt *Router) retier(v *services.Vendor) {
	rules, err := rt.store.ListTierRules()
	if err != nil {
		rules = nil
	}
	v.InherentRiskTier = services.ComputeInherentTier(v.DataClassification, v.BusinessCriticality, v.AccessLevel, rules)
}

func vendorView(v *services.Vendor) map[string]any {
	return map[string]any{
		"vendor":         v,
		"effective_tier": services.EffectiveTier(v),
	}
}

// GET|POST /api/vendors
func (rt *Router) handleVendors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		vendors, err := rt.store.ListVendors()
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]map[string]any, 0, len(vendors))
		for _, v := range vendors {
			out = append(out, vendorView(v))
		}
		writeJSON(w, http.StatusOK, map[string]any{"vendors": out})
	case http.MethodPost:
		var req vendorInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, services.NewInvalidError("name required"))
			return
		}
		v := &services.Vendor{
			ID:                  rt.idGen(),
			Name:                strings.TrimSpace(req.Name),
			ContactEmail:        strings.TrimSpace(req.ContactEmail),
			DataClassification:  req.DataClassification,
			BusinessCriticality: req.BusinessCriticality,
			AccessLevel:         req.AccessLevel,
			CreatedAt:           rt.now(),
		}
		rt.retier(v)
		if err := rt.store.AddVendor(v); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vendorView(v))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/vendors/{id}
// /api/vendors/{id}/tier
// /api/vendors/{id}/activity
func (rt *Router) handleVendorScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/vendors/")
	parts := strings.Split(rest, "/")
	v, err := rt.store.GetVendor(parts[0])
	if err != nil {
		writeError(w, err)
		return
	}
	if v == nil {
		writeError(w, services.NewNotFoundError("vendor not found"))
		return
	}

	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}
	switch {
	case sub == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, vendorView(v))
	case sub == "" && r.Method == http.MethodPut:
		var req vendorInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) != "" {
			v.Name = strings.TrimSpace(req.Name)
		}
		v.ContactEmail = strings.TrimSpace(req.ContactEmail)
		v.DataClassification = req.DataClassification
		v.BusinessCriticality = req.BusinessCriticality
		v.AccessLevel = req.AccessLevel
		rt.retier(v)
		if err := rt.store.UpdateVendor(v); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vendorView(v))
	case sub == "tier" && r.Method == http.MethodPut:
		var req struct {
			Override string `json:"override"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Override != "" && req.Override != services.TierOne && req.Override != services.TierTwo && req.Override != services.TierThree {
			writeError(w, services.NewInvalidError("unknown tier"))
			return
		}
		v.TierOverride = req.Override
		rt.retier(v)
		if err := rt.store.UpdateVendor(v); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vendorView(v))
	case sub == "activity" && r.Method == http.MethodGet:
		acts, err := rt.store.ListActivities(v.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"activities": acts})
	default:
		http.NotFound(w, r)
	}
}

type questionInput struct {
	Text           string   `json:"text"`
	Category       string   `json:"category"`
	Weight         string   `json:"weight"`
	AnswerMode     string   `json:"answer_mode"`
	ExpectedValue  string   `json:"expected_value"`
	ExpectedValues []string `json:"expected_values"`
	AnswerOptions  []string `json:"answer_options"`
}

func (rt *Router) buildQuestion(assessmentID string, pos int, in questionInput) (*services.Question, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, services.NewInvalidError("question text required")
	}
	weight := services.Weight(in.Weight)
	switch weight {
	case "":
		weight = services.WeightMedium
	case services.WeightLow, services.WeightMedium, services.WeightHigh, services.WeightCritical:
	default:
		return nil, services.NewInvalidError("unknown weight")
	}
	mode := services.AnswerMode(in.AnswerMode)
	switch mode {
	case "":
		mode = services.AnswerModeSingle
	case services.AnswerModeSingle, services.AnswerModeMulti:
	default:
		return nil, services.NewInvalidError("unknown answer mode")
	}
	return &services.Question{
		ID:             rt.idGen(),
		AssessmentID:   assessmentID,
		Position:       pos,
		Text:           strings.TrimSpace(in.Text),
		Category:       strings.TrimSpace(in.Category),
		Weight:         weight,
		AnswerMode:     mode,
		ExpectedValue:  in.ExpectedValue,
		ExpectedValues: in.ExpectedValues,
		AnswerOptions:  in.AnswerOptions,
	}, nil
}

// GET|POST /api/assessments
func (rt *Router) handleAssessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var (
			list []*services.Assessment
			err  error
		)
		if status := r.URL.Query().Get("status"); status != "" {
			list, err = rt.store.ListAssessmentsByStatus(services.AssessmentStatus(status))
		} else {
			list, err = rt.store.ListAssessments()
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assessments": list})
	case http.MethodPost:
		var req struct {
			VendorID    string          `json:"vendor_id"`
			CompanyName string          `json:"company_name"`
			Title       string          `json:"title"`
			Questions   []questionInput `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeError(w, services.NewInvalidError("title required"))
			return
		}
		if req.VendorID != "" {
			v, err := rt.store.GetVendor(req.VendorID)
			if err != nil {
				writeError(w, err)
				return
			}
			if v == nil {
				writeError(w, services.NewNotFoundError("vendor not found"))
				return
			}
			if req.CompanyName == "" {
				req.CompanyName = v.Name
			}
		}
		a := &services.Assessment{
			ID:          rt.idGen(),
			VendorID:    req.VendorID,
			CompanyName: strings.TrimSpace(req.CompanyName),
			Title:       strings.TrimSpace(req.Title),
			Token:       services.NewToken(),
			Status:      services.AssessmentDraft,
			CreatedAt:   rt.now(),
		}
		if err := rt.store.InsertAssessment(a); err != nil {
			writeError(w, err)
			return
		}
		for i, qin := range req.Questions {
			q, err := rt.buildQuestion(a.ID, i+1, qin)
			if err != nil {
				writeError(w, err)
				return
			}
			if err := rt.store.InsertQuestion(q); err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, a)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/assessments/{id}
// /api/assessments/{id}/questions
// /api/assessments/{id}/send
// /api/assessments/{id}/score
// /api/assessments/{id}/decision
// /api/assessments/{id}/sla
// /api/assessments/{id}/request-info
// /api/assessments/{id}/reassess
// /api/assessments/{id}/reminders
func (rt *Router) handleAssessmentScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assessments/")
	parts := strings.Split(rest, "/")
	a, err := rt.store.GetAssessment(parts[0])
	if err != nil {
		writeError(w, err)
		return
	}
	if a == nil {
		writeError(w, services.NewNotFoundError("assessment not found"))
		return
	}
	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}

	switch sub {
	case "":
		rt.handleAssessmentDetail(w, r, a)
	case "questions":
		rt.handleAssessmentQuestions(w, r, a)
	case "send":
		rt.handleAssessmentSend(w, r, a)
	case "score":
		rt.handleAssessmentScore(w, r, a)
	case "decision":
		rt.handleAssessmentDecision(w, r, a)
	case "sla":
		rt.handleAssessmentSLA(w, r, a)
	case "request-info":
		rt.handleAssessmentRequestInfo(w, r, a)
	case "reassess":
		rt.handleAssessmentReassess(w, r, a)
	case "reminders":
		rt.handleAssessmentReminders(w, r, a)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handleAssessmentDetail(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	questions, err := rt.store.ListQuestions(a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := rt.store.LatestResponse(a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assessment":  a,
		"questions":   questions,
		"response":    resp,
		"evaluations": services.ComputeResponseEvaluations(questions, resp),
	})
}

func (rt *Router) handleAssessmentQuestions(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	switch r.Method {
	case http.MethodGet:
		questions, err := rt.store.ListQuestions(a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
	case http.MethodPost:
		if a.Status != services.AssessmentDraft {
			writeError(w, services.NewConflictError("questions are frozen once the assessment is sent"))
			return
		}
		var req questionInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		existing, err := rt.store.ListQuestions(a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		q, err := rt.buildQuestion(a.ID, len(existing)+1, req)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := rt.store.InsertQuestion(q); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/assessments/{id}/send {email, expires_in_days}
func (rt *Router) handleAssessmentSend(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email         string `json:"email"`
		ExpiresInDays int    `json:"expires_in_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, services.NewInvalidError("email required"))
		return
	}
	questions, err := rt.store.ListQuestions(a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(questions) == 0 {
		writeError(w, services.NewInvalidError("cannot send an assessment without questions"))
		return
	}
	if !rt.lifecycle.ToSent(a) {
		writeError(w, services.NewConflictError("assessment was already sent"))
		return
	}
	a.SentToEmail = strings.TrimSpace(req.Email)
	if req.ExpiresInDays > 0 {
		exp := rt.now().AddDate(0, 0, req.ExpiresInDays)
		a.ExpiresAt = &exp
	}
	if err := rt.store.UpdateAssessment(a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleAssessmentScore(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	questions, err := rt.store.ListQuestions(a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := rt.store.LatestResponse(a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services.ComputeAssessmentScores(questions, resp))
}

// GET|PUT /api/assessments/{id}/decision; PUT takes {..., finalize}.
func (rt *Router) handleAssessmentDecision(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	switch r.Method {
	case http.MethodGet:
		d, err := rt.decisions.GetOrCreate(a.ID, a.VendorID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodPut:
		var req struct {
			services.DecisionInput
			Finalize bool `json:"finalize"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := rt.decisions.GetOrCreate(a.ID, a.VendorID); err != nil {
			writeError(w, err)
			return
		}
		d, err := rt.decisions.Save(a.ID, req.DecisionInput, req.Finalize)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Finalize {
			rt.scheduleNextReview(a, d)
		}
		writeJSON(w, http.StatusOK, d)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// scheduleNextReview stamps the vendor's next review date after a finalized
// decision: the reviewer's explicit date wins, otherwise the tier cadence.
func (rt *Router) scheduleNextReview(a *services.Assessment, d *services.Decision) {
	if a.VendorID == "" {
		return
	}
	v, err := rt.store.GetVendor(a.VendorID)
	if err != nil || v == nil {
		return
	}
	next := d.NextReviewDate
	if next == nil {
		next = services.SuggestNextReviewDate(services.EffectiveTier(v), d.FinalizedAt)
	}
	if next == nil {
		return
	}
	v.NextReviewDate = next
	_ = rt.store.UpdateVendor(v)
}

func (rt *Router) handleAssessmentSLA(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sla, err := rt.tracker.StatusFor(a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sla)
}

func (rt *Router) handleAssessmentRequestInfo(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp, err := rt.responses.RequestInfo(a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) handleAssessmentReassess(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	next, err := rt.reassess.Create(a.VendorID, a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// POST /api/assessments/{id}/reminders {paused}
func (rt *Router) handleAssessmentReminders(w http.ResponseWriter, r *http.Request, a *services.Assessment) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.RemindersPaused = req.Paused
	if err := rt.store.UpdateAssessment(a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GET|POST /api/respond/{token} is the vendor portal. No auth; possession of
// the token is the credential. Expectations and weights are never exposed.
func (rt *Router) handleRespond(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.URL.Path, "/api/respond/")
	if token == "" || strings.Contains(token, "/") {
		http.NotFound(w, r)
		return
	}
	a, err := rt.store.GetAssessmentByToken(token)
	if err != nil {
		writeError(w, err)
		return
	}
	if a == nil {
		writeError(w, services.NewNotFoundError("assessment not found"))
		return
	}
	if a.ExpiresAt != nil && a.ExpiresAt.Before(rt.now()) {
		writeJSON(w, http.StatusGone, map[string]any{"error": "assessment link expired"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		questions, err := rt.store.ListQuestions(a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp, err := rt.store.LatestResponse(a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		type outQuestion struct {
			ID         string   `json:"id"`
			Position   int      `json:"position"`
			Text       string   `json:"text"`
			Category   string   `json:"category,omitempty"`
			AnswerMode string   `json:"answer_mode"`
			Options    []string `json:"options"`
		}
		out := make([]outQuestion, 0, len(questions))
		for _, q := range questions {
			opts := q.AnswerOptions
			if len(opts) == 0 {
				opts = services.ValidChoices
			}
			out = append(out, outQuestion{
				ID:         q.ID,
				Position:   q.Position,
				Text:       q.Text,
				Category:   q.Category,
				AnswerMode: string(q.AnswerMode),
				Options:    opts,
			})
		}
		view := map[string]any{
			"company_name": a.CompanyName,
			"title":        a.Title,
			"status":       a.Status,
			"questions":    out,
		}
		if resp != nil {
			view["response"] = resp
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodPost:
		var req struct {
			VendorName  string                 `json:"vendor_name"`
			VendorEmail string                 `json:"vendor_email"`
			Submit      bool                   `json:"submit"`
			Answers     []services.AnswerInput `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := rt.responses.Save(services.SaveResponseRequest{
			AssessmentID: a.ID,
			VendorName:   req.VendorName,
			VendorEmail:  req.VendorEmail,
			Submit:       req.Submit,
			Answers:      req.Answers,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "response_id": resp.ID, "status": resp.Status})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (rt *Router) handleSLASummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum, err := rt.tracker.Summary()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (rt *Router) handleSLACheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := rt.tracker.CheckBreaches()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET|PUT /api/sla/config
func (rt *Router) handleSLAConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfgs, err := rt.store.ListSLAConfigs()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"configs": cfgs})
	case http.MethodPut:
		var req struct {
			Configs []*services.SLAConfig `json:"configs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, c := range req.Configs {
			if c.Tier == "" {
				writeError(w, services.NewInvalidError("tier required"))
				return
			}
			if err := rt.store.UpsertSLAConfig(c); err != nil {
				writeError(w, err)
				return
			}
		}
		cfgs, err := rt.store.ListSLAConfigs()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"configs": cfgs})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET|PUT /api/tier-rules
func (rt *Router) handleTierRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rules, err := rt.store.ListTierRules()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
	case http.MethodPut:
		var req struct {
			Rules []*services.TierRule `json:"rules"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rt.store.ReplaceTierRules(req.Rules); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": req.Rules})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (rt *Router) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ns, err := rt.store.ListNotifications()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": ns})
}

// POST /api/seed creates a sample vendor and a DRAFT assessment for local
// development.
func (rt *Router) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v := &services.Vendor{
		ID:                  rt.idGen(),
		Name:                "Acme Cloud Services",
		ContactEmail:        "security@acme.example",
		DataClassification:  "Confidential",
		BusinessCriticality: "High",
		AccessLevel:         "Extensive",
		CreatedAt:           rt.now(),
	}
	rt.retier(v)
	if err := rt.store.AddVendor(v); err != nil {
		writeError(w, err)
		return
	}
	a := &services.Assessment{
		ID:          rt.idGen(),
		VendorID:    v.ID,
		CompanyName: v.Name,
		Title:       "Onboarding security review",
		Token:       services.NewToken(),
		Status:      services.AssessmentDraft,
		CreatedAt:   rt.now(),
	}
	if err := rt.store.InsertAssessment(a); err != nil {
		writeError(w, err)
		return
	}
	seedQuestions := []questionInput{
		{Text: "Do you encrypt customer data at rest?", Category: "Encryption", Weight: "CRITICAL", ExpectedValue: "yes"},
		{Text: "Is multi-factor authentication enforced for all staff?", Category: "Access Control", Weight: "HIGH", ExpectedValue: "yes"},
		{Text: "Do you run an annual penetration test?", Category: "Assurance", Weight: "MEDIUM", ExpectedValue: "yes"},
		{Text: "Which certifications do you hold?", Category: "Assurance", Weight: "LOW", AnswerMode: "MULTI", ExpectedValues: []string{"yes"}},
	}
	for i, qin := range seedQuestions {
		q, err := rt.buildQuestion(a.ID, i+1, qin)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := rt.store.InsertQuestion(q); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "vendor_id": v.ID, "assessment_id": a.ID, "token": a.Token})
}
