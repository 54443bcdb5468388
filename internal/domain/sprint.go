package domain

// State is a sprint lifecycle state as reported by Jira.
// The backend owns the vocabulary; unknown values pass through unchanged.
type State string

const (
	StateActive State = "active"
	StateFuture State = "future"
	StateClosed State = "closed"
	StateAll    State = "all" // filter value only, never a sprint state
)

// Sprint is an immutable snapshot of a Jira Agile sprint.
// Timestamps are kept as the raw backend strings; Window() parses them.
type Sprint struct {
	ID            int    `json:"id"`
	Self          string `json:"self,omitempty"`
	State         State  `json:"state,omitempty"`
	Name          string `json:"name,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	CompleteDate  string `json:"completeDate,omitempty"`
	OriginBoardID int    `json:"originBoardId,omitempty"`
	Goal          string `json:"goal,omitempty"`
}

// Window derives the sprint's effective time span.
func (s Sprint) Window() Window {
	return Window{
		Start:    ParseJiraTime(s.StartDate),
		End:      ParseJiraTime(s.EndDate),
		Complete: ParseJiraTime(s.CompleteDate),
	}
}
