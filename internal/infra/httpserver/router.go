package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appjobs "github.com/adityarama/tutorlens/internal/application/jobs"
	"github.com/adityarama/tutorlens/internal/domain/anomaly"
	"github.com/adityarama/tutorlens/internal/domain/artifacts"
	"github.com/adityarama/tutorlens/internal/domain/billing"
	domain "github.com/adityarama/tutorlens/internal/domain/jobs"
	"github.com/adityarama/tutorlens/internal/infra/notify"
	"github.com/adityarama/tutorlens/internal/middleware"
)

// ErrOperatorMismatch: the caller's identity does not own the resource
// path. Checked before any admission logic runs.
var ErrOperatorMismatch = errors.New("operator mismatch")

type Router struct {
	jobsSvc   *appjobs.Service
	ledger    billing.Ledger
	artifacts artifacts.Repository
	anomalies anomaly.Repository
	hub       *notify.Hub
}

func NewRouter(jobsSvc *appjobs.Service, ledger billing.Ledger, repo artifacts.Repository, anomalies anomaly.Repository, hub *notify.Hub) http.Handler {
	r := &Router{jobsSvc: jobsSvc, ledger: ledger, artifacts: repo, anomalies: anomalies, hub: hub}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{operator}", func(rt chi.Router) {
		rt.Post("/students/{student}/reports", r.wrap(r.handleGenerate(domain.TypeReport)))
		rt.Post("/students/{student}/corrections", r.wrap(r.handleGenerate(domain.TypeCorrection)))
		rt.Post("/students/{student}/concept-scores", r.wrap(r.handleGenerate(domain.TypeConceptScores)))
		rt.Post("/students/{student}/executive-summary", r.wrap(r.handleGenerate(domain.TypeExecutiveSummary)))
		rt.Post("/students/{student}/parent-reports", r.wrap(r.handleGenerate(domain.TypeParentReport)))

		rt.Get("/students/{student}/artifacts/{jobType}", r.wrap(r.handleGetArtifact))
		rt.Get("/students/{student}/parent-reports", r.wrap(r.handleListParentReports))
		rt.Delete("/students/{student}/artifacts/{jobType}", r.wrap(r.handleDeleteArtifact))

		rt.Get("/subscription", r.wrap(r.handleSubscription))
		rt.Get("/anomalies", r.wrap(r.handleListAnomalies))
		rt.Get("/events", r.wrap(r.handleEvents))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap recovers handler errors into the response envelope. Admission
// rejections are soft (402 + requiredCredits) so the client can prompt
// an upgrade; everything else degrades to general_error.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var rej *appjobs.RejectionError
		switch {
		case errors.As(err, &rej):
			writeJSON(w, http.StatusPaymentRequired, map[string]any{
				"ok":              false,
				"errorType":       "subscription_error",
				"message":         rej.Reason.Error(),
				"requiredCredits": rej.RequiredCredits,
			})
		case errors.Is(err, ErrOperatorMismatch):
			writeJSON(w, http.StatusForbidden, map[string]any{
				"ok":        false,
				"errorType": "general_error",
				"message":   "not authorized for this operator",
			})
		case errors.Is(err, artifacts.ErrNotFound),
			errors.Is(err, billing.ErrNotFound),
			errors.Is(err, sql.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]any{
				"ok":        false,
				"errorType": "general_error",
				"message":   "not found",
			})
		default:
			status := http.StatusInternalServerError
			var de *domain.DispatchError
			if errors.As(err, &de) {
				status = http.StatusBadGateway
			}
			writeJSON(w, status, map[string]any{
				"ok":        false,
				"errorType": "general_error",
				"message":   err.Error(),
			})
		}
	}
}

// operator resolves and authorizes the path operator before any work.
func (r *Router) operator(req *http.Request) (string, error) {
	op := chi.URLParam(req, "operator")
	if err := middleware.ValidateOperatorID(op); err != nil {
		return "", err
	}
	if auth := middleware.GetOperatorFromContext(req.Context()); auth != "" && auth != op {
		return "", ErrOperatorMismatch
	}
	return op, nil
}

type generateRequest struct {
	JobID  string         `json:"job_id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// handleGenerate builds the POST handler for one job type. The five
// artifact endpoints are thin fronts over the same pipeline.
func (r *Router) handleGenerate(jobType domain.Type) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		operator, err := r.operator(req)
		if err != nil {
			return err
		}
		student := chi.URLParam(req, "student")
		if err := middleware.ValidateStudentID(student); err != nil {
			return err
		}

		var body generateRequest
		if req.Body != nil && req.ContentLength != 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
		}
		if err := middleware.ValidateJobID(body.JobID); err != nil {
			return err
		}

		middleware.IncrementJobs()
		result, err := r.jobsSvc.Generate(req.Context(), appjobs.GenerateCommand{
			JobID:      body.JobID,
			OperatorID: operator,
			StudentID:  student,
			JobType:    jobType,
			Fields:     body.Fields,
		})
		if err != nil {
			var rej *appjobs.RejectionError
			if errors.As(err, &rej) {
				middleware.IncrementJobsRejected()
			} else {
				middleware.IncrementJobsFailed()
			}
			return err
		}
		middleware.IncrementJobsCommitted()
		if result.Degraded {
			middleware.IncrementJobsDegraded()
		}

		return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": result})
	}
}

// GET /v1/{operator}/students/{student}/artifacts/{jobType}
func (r *Router) handleGetArtifact(w http.ResponseWriter, req *http.Request) error {
	operator, err := r.operator(req)
	if err != nil {
		return err
	}
	student := chi.URLParam(req, "student")
	jobType := chi.URLParam(req, "jobType")
	if err := middleware.ValidateJobType(jobType); err != nil {
		return err
	}

	a, err := r.artifacts.Get(req.Context(), operator, student, jobType)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": a})
}

// GET /v1/{operator}/students/{student}/parent-reports
func (r *Router) handleListParentReports(w http.ResponseWriter, req *http.Request) error {
	operator, err := r.operator(req)
	if err != nil {
		return err
	}
	student := chi.URLParam(req, "student")

	list, err := r.artifacts.ListParentReports(req.Context(), operator, student)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*artifacts.ParentReportEntry{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": list})
}

// DELETE /v1/{operator}/students/{student}/artifacts/{jobType}
func (r *Router) handleDeleteArtifact(w http.ResponseWriter, req *http.Request) error {
	operator, err := r.operator(req)
	if err != nil {
		return err
	}
	student := chi.URLParam(req, "student")
	jobType := chi.URLParam(req, "jobType")
	if err := middleware.ValidateJobType(jobType); err != nil {
		return err
	}

	if err := r.artifacts.Delete(req.Context(), operator, student, jobType); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": map[string]string{"deleted": jobType}})
}

// GET /v1/{operator}/subscription — read model for the presentation
// layer, independent of job execution
func (r *Router) handleSubscription(w http.ResponseWriter, req *http.Request) error {
	operator, err := r.operator(req)
	if err != nil {
		return err
	}
	s, err := r.ledger.Get(req.Context(), operator)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": s})
}

// GET /v1/{operator}/anomalies — recent accounting anomalies, newest
// first (commit no-ops, archive failures)
func (r *Router) handleListAnomalies(w http.ResponseWriter, req *http.Request) error {
	operator, err := r.operator(req)
	if err != nil {
		return err
	}
	limit := 20
	if v := req.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	list, err := r.anomalies.ListByOperator(req.Context(), operator, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*anomaly.Anomaly{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": list})
}

// GET /v1/{operator}/events — SSE stream of completion events scoped
// to the authenticated operator
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	operator, err := r.operator(req)
	if err != nil {
		return err
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	// the stream outlives the server WriteTimeout; clear the deadline
	// so heartbeats keep the connection alive instead of being severed
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("clear write deadline: %w", err)
	}

	events, cancel := r.hub.Subscribe(operator)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-req.Context().Done():
			return nil
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev := <-events:
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: artifact\ndata: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
