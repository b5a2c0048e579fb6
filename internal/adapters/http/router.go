package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kirillkom/security-plan-auditor/internal/config"
	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/intake"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
	"github.com/kirillkom/security-plan-auditor/internal/core/scorecard"
	"github.com/kirillkom/security-plan-auditor/internal/core/session"
	"github.com/kirillkom/security-plan-auditor/internal/observability/metrics"
)

// SessionService is the part of session.Store the router needs.
type SessionService interface {
	Create() session.Snapshot
	Get(id string) (session.Snapshot, error)
	Submit(ctx context.Context, id string, input domain.AuditInput) (session.Snapshot, error)
	Reset(id string) (session.Snapshot, error)
	Dismiss(id string) (session.Snapshot, error)
}

type Router struct {
	cfg      config.Config
	auditor  ports.Auditor
	sessions SessionService
	runs     ports.AuditRunRepository
	metrics  *metrics.HTTPServerMetrics
}

// NewRouter wires the HTTP surface. runs and httpMetrics may be nil; the
// corresponding routes are then not registered.
func NewRouter(
	cfg config.Config,
	auditor ports.Auditor,
	sessions SessionService,
	runs ports.AuditRunRepository,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		auditor:  auditor,
		sessions: sessions,
		runs:     runs,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("GET /v1/samples/plan", rt.samplePlan)
	mux.HandleFunc("POST /v1/audits", rt.createAudit)
	mux.HandleFunc("POST /v1/sessions", rt.createSession)
	mux.HandleFunc("GET /v1/sessions/{id}", rt.getSession)
	mux.HandleFunc("POST /v1/sessions/{id}/audit", rt.submitSession)
	mux.HandleFunc("POST /v1/sessions/{id}/reset", rt.resetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/dismiss", rt.dismissSession)
	if rt.runs != nil {
		mux.HandleFunc("GET /v1/runs", rt.listRuns)
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) samplePlan(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.InputPayload{Type: domain.InputText, Content: intake.SamplePlan})
}

type auditResponse struct {
	Report *domain.AuditReport `json:"report"`
	View   scorecard.View      `json:"view"`
}

func (rt *Router) createAudit(w http.ResponseWriter, r *http.Request) {
	input, err := rt.readInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := rt.auditor.Analyze(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auditResponse{Report: report, View: scorecard.BuildView(report)})
}

type sessionResponse struct {
	session.Snapshot
	View *scorecard.View `json:"view,omitempty"`
}

func newSessionResponse(snap session.Snapshot) sessionResponse {
	resp := sessionResponse{Snapshot: snap}
	if snap.Report != nil {
		view := scorecard.BuildView(snap.Report)
		resp.View = &view
	}
	return resp
}

func (rt *Router) createSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, newSessionResponse(rt.sessions.Create()))
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := rt.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(snap))
}

func (rt *Router) submitSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	input, err := rt.readInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := rt.sessions.Submit(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(snap))
}

func (rt *Router) resetSession(w http.ResponseWriter, r *http.Request) {
	rt.transition(w, r, rt.sessions.Reset)
}

func (rt *Router) dismissSession(w http.ResponseWriter, r *http.Request) {
	rt.transition(w, r, rt.sessions.Dismiss)
}

func (rt *Router) transition(w http.ResponseWriter, r *http.Request, apply func(string) (session.Snapshot, error)) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := apply(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(snap))
}

func (rt *Router) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer", Kind: "invalid_input"})
			return
		}
		limit = n
	}
	runs, err := rt.runs.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.AuditRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
