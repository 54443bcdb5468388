// Package server is the inbound HTTP boundary: route registration, query
// parameter validation, and the mapping from the error taxonomy to status
// codes. All resolution logic lives in the service layer.
package server

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vilaca/sprint-api/internal/apperr"
	"github.com/vilaca/sprint-api/internal/domain"
	"github.com/vilaca/sprint-api/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SprintResolver is the slice of the service layer the handlers need.
type SprintResolver interface {
	GetSprintByID(ctx context.Context, sprintID int) (*service.SprintResponse, error)
	ListBoardSprints(ctx context.Context, boardID int, state domain.State, startAt, maxResults int) (*service.SprintListResponse, error)
	GetSprintDetails(ctx context.Context, p service.DetailsParams) (service.Result, error)
}

// Handler handles HTTP requests for the sprint API.
type Handler struct {
	resolver SprintResolver
	log      *zap.Logger

	// surfaced by /ready
	jiraBaseURL string
	boardID     int
}

// NewHandler creates a new Handler with injected dependencies.
func NewHandler(resolver SprintResolver, log *zap.Logger, jiraBaseURL string, boardID int) *Handler {
	return &Handler{
		resolver:    resolver,
		log:         log,
		jiraBaseURL: jiraBaseURL,
		boardID:     boardID,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /ready", h.handleReady)
	mux.HandleFunc("GET /v1/sprints/details", h.handleSprintDetails)
	mux.HandleFunc("GET /v1/sprints/{sprintID}", h.handleSprintByID)
	mux.HandleFunc("GET /v1/boards/{boardID}/sprints", h.handleBoardSprints)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"jira_base_url":    h.jiraBaseURL,
		"default_board_id": h.boardID,
	})
}

// handleSprintDetails is the resolver entry point: it accepts the selector
// bundle and returns a single sprint or a list depending on mode and on
// which strategy matched.
func (h *Handler) handleSprintDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sprintID, err := optionalIntParam(q.Get("sprint_id"), "sprint_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if sprintID < 0 {
		h.writeError(w, r, apperr.Validation("sprint_id must be a positive integer", map[string]any{"value": sprintID}))
		return
	}
	mode, err := modeParam(q.Get("mode"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	state, err := stateParam(q.Get("state"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.resolver.GetSprintDetails(r.Context(), service.DetailsParams{
		SprintID:   sprintID,
		SprintName: q.Get("sprint_name"),
		Date:       q.Get("date"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		IssueKey:   q.Get("issue_key"),
		Mode:       mode,
		State:      state,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSprintByID(w http.ResponseWriter, r *http.Request) {
	sprintID, err := requiredIntParam(r.PathValue("sprintID"), "sprint_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.resolver.GetSprintByID(r.Context(), sprintID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleBoardSprints returns one page of a board's sprints, a pure
// passthrough with pagination parameters.
func (h *Handler) handleBoardSprints(w http.ResponseWriter, r *http.Request) {
	boardID, err := requiredIntParam(r.PathValue("boardID"), "board_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	state, err := stateParam(q.Get("state"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	startAt, err := optionalIntParam(q.Get("startAt"), "startAt")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if startAt < 0 {
		h.writeError(w, r, apperr.Validation("startAt must be >= 0", map[string]any{"value": startAt}))
		return
	}
	maxResults := defaultPageSize
	if raw := q.Get("maxResults"); raw != "" {
		maxResults, err = optionalIntParam(raw, "maxResults")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if maxResults < 1 || maxResults > maxPageSize {
			h.writeError(w, r, apperr.Validation("maxResults must be between 1 and 200", map[string]any{"value": maxResults}))
			return
		}
	}

	resp, err := h.resolver.ListBoardSprints(r.Context(), boardID, state, startAt, maxResults)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func requiredIntParam(raw, field string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation(field+" must be a positive integer", map[string]any{
			"field": field, "value": raw,
		})
	}
	return n, nil
}

func optionalIntParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(field+" must be an integer", map[string]any{
			"field": field, "value": raw,
		})
	}
	return n, nil
}

func modeParam(raw string) (string, error) {
	switch raw {
	case "":
		return service.ModeSingle, nil
	case service.ModeSingle, service.ModeList:
		return raw, nil
	default:
		return "", apperr.Validation("mode must be one of: single, list", map[string]any{"value": raw})
	}
}

func stateParam(raw string) (domain.State, error) {
	switch domain.State(raw) {
	case "":
		return domain.StateAll, nil
	case domain.StateActive, domain.StateFuture, domain.StateClosed, domain.StateAll:
		return domain.State(raw), nil
	default:
		return "", apperr.Validation("state must be one of: active, future, closed, all", map[string]any{"value": raw})
	}
}
