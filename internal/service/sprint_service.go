// Package service contains the sprint resolver: it translates a selector
// bundle into exactly one resolution strategy, drives the gateway, and
// shapes the single-vs-list response.
package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vilaca/sprint-api/internal/apperr"
	"github.com/vilaca/sprint-api/internal/domain"
	"github.com/vilaca/sprint-api/internal/jira"
)

// Strategy tags reported as resolved_by on every response.
const (
	ResolvedBySprintID   = "sprint_id"
	ResolvedByIssueKey   = "issue_key"
	ResolvedBySprintName = "sprint_name"
	ResolvedByDate       = "date"
	ResolvedByDateRange  = "date_range"
	ResolvedByActive     = "active"
	ResolvedByBoardList  = "board_list"
)

// Display modes.
const (
	ModeSingle = "single"
	ModeList   = "list"
)

// JiraGateway is the slice of the gateway the resolver needs.
type JiraGateway interface {
	GetSprint(ctx context.Context, sprintID int) (domain.Sprint, error)
	ListSprints(ctx context.Context, boardID int, state domain.State, startAt, maxResults int) (jira.SprintsPage, error)
	ListAllSprints(ctx context.Context, boardID int, state domain.State) ([]domain.Sprint, error)
	GetIssueSprintField(ctx context.Context, issueKey string) (jira.IssueSprintField, error)
}

// DetailsParams is the caller-supplied selector bundle. Dates are raw
// DDMMYYYY strings; parsing happens during resolution so malformed values
// surface as validation errors naming the field.
type DetailsParams struct {
	SprintID   int
	SprintName string
	Date       string
	StartDate  string
	EndDate    string
	IssueKey   string
	Mode       string
	State      domain.State
}

// Result is either a *SprintResponse or a *SprintListResponse.
type Result interface {
	isResult()
}

// SprintResponse is the single-sprint response envelope.
type SprintResponse struct {
	Mode       string        `json:"mode"`
	ResolvedBy string        `json:"resolved_by"`
	BoardID    *int          `json:"board_id"`
	Sprint     domain.Sprint `json:"sprint"`
}

func (*SprintResponse) isResult() {}

// SprintListResponse is the sprint-list response envelope.
type SprintListResponse struct {
	Mode       string          `json:"mode"`
	ResolvedBy string          `json:"resolved_by"`
	BoardID    *int            `json:"board_id"`
	Count      int             `json:"count"`
	Sprints    []domain.Sprint `json:"sprints"`
}

func (*SprintListResponse) isResult() {}

// SprintService resolves sprints against a configured default board.
type SprintService struct {
	jira    JiraGateway
	boardID int
	log     *zap.Logger
}

// NewSprintService creates the resolver over the given gateway.
func NewSprintService(gw JiraGateway, boardID int, log *zap.Logger) *SprintService {
	return &SprintService{jira: gw, boardID: boardID, log: log}
}

// GetSprintByID fetches one sprint directly.
func (s *SprintService) GetSprintByID(ctx context.Context, sprintID int) (*SprintResponse, error) {
	sprint, err := s.jira.GetSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return &SprintResponse{
		Mode:       ModeSingle,
		ResolvedBy: ResolvedBySprintID,
		BoardID:    boardIDOf(sprint),
		Sprint:     sprint,
	}, nil
}

// ListBoardSprints returns one page of a board's sprints, no resolution
// logic involved.
func (s *SprintService) ListBoardSprints(ctx context.Context, boardID int, state domain.State, startAt, maxResults int) (*SprintListResponse, error) {
	page, err := s.jira.ListSprints(ctx, boardID, state, startAt, maxResults)
	if err != nil {
		return nil, err
	}
	board := boardID
	return &SprintListResponse{
		Mode:       ModeList,
		ResolvedBy: ResolvedByBoardList,
		BoardID:    &board,
		Count:      len(page.Values),
		Sprints:    page.Values,
	}, nil
}

// GetSprintDetails picks exactly one resolution strategy by fixed
// precedence: sprint id, issue key, sprint name, single date, date range,
// then the bare state=active filter. The precedence is a contract; when
// several selectors are supplied together only the highest-ranked one runs.
func (s *SprintService) GetSprintDetails(ctx context.Context, p DetailsParams) (Result, error) {
	hasRange := p.StartDate != "" && p.EndDate != ""
	hasSelector := p.SprintID != 0 || p.SprintName != "" || p.Date != "" || hasRange || p.IssueKey != ""
	if !hasSelector && p.State != domain.StateActive {
		return nil, apperr.Validation(
			"Provide at least one of: sprint_id, sprint_name, issue_key, date, start_date+end_date, or set state=active",
			nil,
		)
	}

	if p.SprintID != 0 {
		return s.GetSprintByID(ctx, p.SprintID)
	}

	if p.IssueKey != "" {
		return s.resolveByIssueKey(ctx, p.IssueKey, p.Mode)
	}

	// The remaining strategies all filter the full board listing.
	all, err := s.jira.ListAllSprints(ctx, s.boardID, p.State)
	if err != nil {
		return nil, err
	}

	if p.SprintName != "" {
		return s.wrap(p.Mode, ResolvedBySprintName, &s.boardID, s.matchByName(all, p.SprintName))
	}

	if p.Date != "" {
		d, err := domain.ParseDDMMYYYY(p.Date, "date")
		if err != nil {
			return nil, err
		}
		var matches []domain.Sprint
		for _, sp := range all {
			if sp.Window().ContainsDate(d) {
				matches = append(matches, sp)
			}
		}
		return s.wrap(p.Mode, ResolvedByDate, &s.boardID, matches)
	}

	if hasRange {
		start, err := domain.ParseDDMMYYYY(p.StartDate, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseDDMMYYYY(p.EndDate, "end_date")
		if err != nil {
			return nil, err
		}
		var matches []domain.Sprint
		for _, sp := range all {
			if sp.Window().OverlapsRange(start, end) {
				matches = append(matches, sp)
			}
		}
		return s.wrap(p.Mode, ResolvedByDateRange, &s.boardID, matches)
	}

	if p.State == domain.StateActive {
		var active []domain.Sprint
		for _, sp := range all {
			if strings.EqualFold(string(sp.State), string(domain.StateActive)) {
				active = append(active, sp)
			}
		}
		return s.wrap(p.Mode, ResolvedByActive, &s.boardID, active)
	}

	return nil, apperr.Validation("Unable to resolve sprint details with provided parameters", nil)
}

// resolveByIssueKey derives sprints from the issue's sprint custom field:
// structured objects are taken as-is, encoded "id=<n>" references are
// resolved through the gateway. The result set is deduplicated by id and
// sorted newest first. This path is not board-scoped, so board_id is null.
func (s *SprintService) resolveByIssueKey(ctx context.Context, issueKey, mode string) (Result, error) {
	field, err := s.jira.GetIssueSprintField(ctx, issueKey)
	if err != nil {
		return nil, err
	}

	var sprints []domain.Sprint
	for _, ref := range field {
		if ref.Sprint != nil {
			sprints = append(sprints, *ref.Sprint)
			continue
		}
		sprint, err := s.jira.GetSprint(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		sprints = append(sprints, sprint)
	}

	if len(sprints) == 0 {
		return nil, apperr.NotFound("Could not derive sprint(s) from issue",
			map[string]any{"issue_key": issueKey})
	}

	sprints = dedupeByID(sprints)
	sortNewestFirst(sprints)

	return s.wrap(mode, ResolvedByIssueKey, nil, sprints)
}

// wrap shapes the match set by display mode. Single mode returns the head
// of the strategy-ordered set, failing with not-found (carrying the
// attempted strategy) when nothing matched.
func (s *SprintService) wrap(mode, resolvedBy string, boardID *int, sprints []domain.Sprint) (Result, error) {
	s.log.Debug("sprint resolution",
		zap.String("resolved_by", resolvedBy),
		zap.String("mode", mode),
		zap.Int("matches", len(sprints)),
	)
	if mode == ModeList {
		if sprints == nil {
			sprints = []domain.Sprint{}
		}
		return &SprintListResponse{
			Mode:       ModeList,
			ResolvedBy: resolvedBy,
			BoardID:    boardID,
			Count:      len(sprints),
			Sprints:    sprints,
		}, nil
	}
	if len(sprints) == 0 {
		return nil, apperr.NotFound("No sprint found for given criteria",
			map[string]any{"resolved_by": resolvedBy})
	}
	return &SprintResponse{
		Mode:       ModeSingle,
		ResolvedBy: resolvedBy,
		BoardID:    boardID,
		Sprint:     sprints[0],
	}, nil
}

// matchByName matches case-insensitively on the trimmed sprint name.
// Exact full-name matches are preferred; only when none exist does the
// substring tier apply. Either tier is sorted newest first.
func (s *SprintService) matchByName(sprints []domain.Sprint, name string) []domain.Sprint {
	q := strings.ToLower(strings.TrimSpace(name))

	var exact []domain.Sprint
	for _, sp := range sprints {
		if strings.ToLower(strings.TrimSpace(sp.Name)) == q {
			exact = append(exact, sp)
		}
	}
	if len(exact) > 0 {
		sortNewestFirst(exact)
		return exact
	}

	var contains []domain.Sprint
	for _, sp := range sprints {
		if strings.Contains(strings.ToLower(strings.TrimSpace(sp.Name)), q) {
			contains = append(contains, sp)
		}
	}
	sortNewestFirst(contains)
	return contains
}

// dedupeByID drops later duplicates, keeping first-occurrence order.
func dedupeByID(sprints []domain.Sprint) []domain.Sprint {
	seen := make(map[int]bool, len(sprints))
	out := sprints[:0]
	for _, sp := range sprints {
		if seen[sp.ID] {
			continue
		}
		seen[sp.ID] = true
		out = append(out, sp)
	}
	return out
}

// sortNewestFirst orders by the window sort key descending; undated sprints
// carry the zero key and land last.
func sortNewestFirst(sprints []domain.Sprint) {
	sort.SliceStable(sprints, func(i, j int) bool {
		return sprints[i].Window().SortKey().After(sprints[j].Window().SortKey())
	})
}

func boardIDOf(s domain.Sprint) *int {
	if s.OriginBoardID == 0 {
		return nil
	}
	id := s.OriginBoardID
	return &id
}
