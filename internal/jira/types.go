package jira

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/vilaca/sprint-api/internal/domain"
)

// SprintsPage is one page of a board's sprint listing.
type SprintsPage struct {
	Values     []domain.Sprint `json:"values"`
	IsLast     bool            `json:"isLast"`
	StartAt    int             `json:"startAt"`
	MaxResults int             `json:"maxResults"`
}

// Field is an entry of the Jira field catalog. Only the bits needed to
// locate the sprint custom field are kept.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SprintRef is one element of a decoded sprint custom field: either a
// structured sprint object, or a sprint id extracted from one of Jira's
// encoded "...,id=123,..." strings.
type SprintRef struct {
	Sprint *domain.Sprint
	ID     int
}

// IssueSprintField is an issue's sprint custom field decoded at the gateway
// boundary. The field is loosely typed upstream (absent, a single object, a
// single encoded string, or a heterogeneous list); decoding it here keeps
// type-shape branching out of the resolver. Elements matching neither shape
// are dropped, and element order is preserved.
type IssueSprintField []SprintRef

// Empty reports whether the field yielded nothing usable.
func (f IssueSprintField) Empty() bool {
	return len(f) == 0
}

var encodedSprintID = regexp.MustCompile(`\bid=(\d+)\b`)

// decodeSprintField turns the raw field payload into an IssueSprintField.
func decodeSprintField(raw json.RawMessage) IssueSprintField {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		// Not a list: a single object or a single encoded string.
		items = []json.RawMessage{raw}
	}

	var refs IssueSprintField
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if id, ok := extractSprintID(s); ok {
				refs = append(refs, SprintRef{ID: id})
			}
			continue
		}
		var sprint domain.Sprint
		if err := json.Unmarshal(item, &sprint); err == nil && sprint.ID != 0 {
			refs = append(refs, SprintRef{Sprint: &sprint})
		}
	}
	return refs
}

func extractSprintID(s string) (int, bool) {
	m := encodedSprintID.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
