package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	appgating "github.com/bryanwahyu/reviewgate/internal/application/gating"
	appreviews "github.com/bryanwahyu/reviewgate/internal/application/reviews"
	domai "github.com/bryanwahyu/reviewgate/internal/domain/ai"
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
	"github.com/bryanwahyu/reviewgate/internal/middleware"
)

type Router struct {
	reviewsSvc *appreviews.Service
	gatingSvc  *appgating.Service
	profiles   profiles.Repository
}

func NewRouter(reviewsSvc *appreviews.Service, gatingSvc *appgating.Service, profileRepo profiles.Repository, health http.HandlerFunc) http.Handler {
	r := &Router{reviewsSvc: reviewsSvc, gatingSvc: gatingSvc, profiles: profileRepo}
	mux := chi.NewRouter()

	mux.Get("/health", health)
	mux.Get("/livez", middleware.LivenessHandler())
	mux.Get("/readyz", health)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/reviews/run", r.wrap(r.handleRun))
		rt.Post("/reviews/run-analyzer", r.wrap(r.handleRunAnalyzer))
		rt.Get("/reviews/runs/{id}", r.wrap(r.handleGetRun))
		rt.Get("/reviews/runs/{id}/findings", r.wrap(r.handleRunFindings))
		rt.Get("/reviews/runs/{id}/errors", r.wrap(r.handleRunErrors))
		rt.Get("/reviews/latest", r.wrap(r.handleLatest))
		rt.Get("/reviews/history", r.wrap(r.handleHistory))
		rt.Post("/findings/{id}/ack", r.wrap(r.handleAckFinding))
		rt.Post("/gate/evaluate", r.wrap(r.handleGateEvaluate))
		rt.Get("/profiles", r.wrap(r.handleListProfiles))
		rt.Get("/profiles/{id}", r.wrap(r.handleGetProfile))
		rt.Put("/profiles/{id}", r.wrap(r.handleSaveProfile))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequestError
			if errors.As(err, &br) {
				http.Error(w, br.msg, http.StatusBadRequest)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/reviews/run
// Body: {"item_type": "...", "item_id": "...", "profile_id": "...", "force": false}
func (r *Router) handleRun(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ItemType  string `json:"item_type"`
		ItemID    string `json:"item_id"`
		ProfileID string `json:"profile_id"`
		Force     bool   `json:"force"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateItemType(body.ItemType); err != nil {
		return badRequest("%v", err)
	}
	if body.ItemID == "" || body.ProfileID == "" {
		return badRequest("item_id and profile_id are required")
	}

	actor := middleware.GetActorFromContext(req.Context())
	middleware.IncrementReviews()

	run, err := r.reviewsSvc.Run(req.Context(), body.ItemType, body.ItemID, body.ProfileID, body.Force, actor)
	if err != nil {
		middleware.IncrementFailed()
		return err
	}
	if run.Status == domain.StatusFailed {
		middleware.IncrementFailed()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(run)
}

// POST /v1/reviews/run-analyzer
// Body: {"item_type": "...", "item_id": "...", "profile_id": "...", "analyzer_id": "...", "force": false}
func (r *Router) handleRunAnalyzer(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ItemType   string `json:"item_type"`
		ItemID     string `json:"item_id"`
		ProfileID  string `json:"profile_id"`
		AnalyzerID string `json:"analyzer_id"`
		Force      bool   `json:"force"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.ItemType == "" || body.ItemID == "" || body.ProfileID == "" || body.AnalyzerID == "" {
		return badRequest("item_type, item_id, profile_id and analyzer_id are required")
	}

	actor := middleware.GetActorFromContext(req.Context())
	run, err := r.reviewsSvc.RunSingle(req.Context(), body.ItemType, body.ItemID, body.ProfileID, body.AnalyzerID, body.Force, actor)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(run)
}

// GET /v1/reviews/runs/{id}
func (r *Router) handleGetRun(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest("%v", err)
	}

	run, err := r.reviewsSvc.Get(req.Context(), domain.RunID(id))
	if err != nil {
		return err
	}
	if run == nil {
		return sql.ErrNoRows
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(run)
}

// GET /v1/reviews/runs/{id}/findings
func (r *Router) handleRunFindings(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest("%v", err)
	}

	list, err := r.reviewsSvc.FindingsByRun(req.Context(), id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/reviews/runs/{id}/errors?limit=50
func (r *Router) handleRunErrors(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest("%v", err)
	}
	limit, err := middleware.ValidateLimit(req.URL.Query().Get("limit"), 50, 500)
	if err != nil {
		return badRequest("%v", err)
	}

	list, err := r.reviewsSvc.ErrorsByRun(req.Context(), id, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/reviews/latest?item_type=&item_id=&profile_id=
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	itemType, itemID, profileID := q.Get("item_type"), q.Get("item_id"), q.Get("profile_id")
	if itemType == "" || itemID == "" || profileID == "" {
		return badRequest("item_type, item_id and profile_id are required")
	}

	run, err := r.reviewsSvc.Latest(req.Context(), itemType, itemID, profileID)
	if err != nil {
		return err
	}
	if run == nil {
		return sql.ErrNoRows
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(run)
}

// GET /v1/reviews/history?item_type=&item_id=&limit=20
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	itemType, itemID := q.Get("item_type"), q.Get("item_id")
	if itemType == "" || itemID == "" {
		return badRequest("item_type and item_id are required")
	}
	limit, err := middleware.ValidateLimit(q.Get("limit"), 20, 200)
	if err != nil {
		return badRequest("%v", err)
	}

	list, err := r.reviewsSvc.ListByItem(req.Context(), itemType, itemID, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// POST /v1/findings/{id}/ack
// Body: {"note": "..."}
func (r *Router) handleAckFinding(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}

	actor := middleware.GetActorFromContext(req.Context())
	if err := r.reviewsSvc.Acknowledge(req.Context(), findings.FindingID(id), actor, middleware.SanitizeString(body.Note)); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"acknowledged": true, "id": id})
}

// POST /v1/gate/evaluate
// Body: {"item_type": "...", "item_id": "...", "old_state": "...", "new_state": "...", "profile_id": "..."}
func (r *Router) handleGateEvaluate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ItemType  string `json:"item_type"`
		ItemID    string `json:"item_id"`
		OldState  string `json:"old_state"`
		NewState  string `json:"new_state"`
		ProfileID string `json:"profile_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.ItemType == "" || body.ItemID == "" || body.ProfileID == "" {
		return badRequest("item_type, item_id and profile_id are required")
	}

	actor := appgating.Actor{
		ID:          middleware.GetActorFromContext(req.Context()),
		CanOverride: middleware.GetOverrideFromContext(req.Context()),
	}
	middleware.IncrementGateEvals()

	decision, err := r.gatingSvc.EvaluateByID(req.Context(), body.ItemType, body.ItemID, body.OldState, body.NewState, body.ProfileID, actor)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		middleware.IncrementGateBlocks()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(decision)
}

// GET /v1/profiles
func (r *Router) handleListProfiles(w http.ResponseWriter, req *http.Request) error {
	list, err := r.profiles.List(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/profiles/{id}
func (r *Router) handleGetProfile(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	p, err := r.profiles.Get(req.Context(), id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(p)
}

// PUT /v1/profiles/{id}
func (r *Router) handleSaveProfile(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	var p profiles.Profile
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	p.ID = id
	if err := p.Validate(); err != nil {
		return badRequest("%v", err)
	}
	if err := r.profiles.Save(req.Context(), &p); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(&p)
}
