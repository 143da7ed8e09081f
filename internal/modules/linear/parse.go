package linear

import (
	"linearmcp/server/pkg/linearapi"
)

// =============================================================================
// Entity records
// =============================================================================
// Field shapes mirror what the GraphQL queries select. Optional strings stay
// *string so absent API fields serialize as absent, not "".

// Team is a Linear team.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// User is a workspace member.
type User struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

// WorkflowState is one status column of a team's workflow.
type WorkflowState struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Color    *string `json:"color,omitempty"`
	Position float64 `json:"position"`
}

// Label is an issue label.
type Label struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}

// Issue is a Linear issue with relations flattened to names.
type Issue struct {
	ID          string   `json:"id"`
	Identifier  string   `json:"identifier"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	State       *string  `json:"state,omitempty"`
	Priority    int      `json:"priority"`
	Assignee    *string  `json:"assignee,omitempty"`
	Labels      []string `json:"labels"`
	CreatedAt   *string  `json:"created_at,omitempty"`
	UpdatedAt   *string  `json:"updated_at,omitempty"`
}

// Comment is one entry of an issue's comment thread.
type Comment struct {
	ID        string  `json:"id"`
	Body      string  `json:"body"`
	User      *string `json:"user,omitempty"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// Project is a Linear project.
type Project struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	State      *string `json:"state,omitempty"`
	Progress   float64 `json:"progress"`
	TargetDate *string `json:"target_date,omitempty"`
}

// Cycle is a team iteration.
type Cycle struct {
	ID       string  `json:"id"`
	Number   int     `json:"number"`
	Name     *string `json:"name,omitempty"`
	StartsAt *string `json:"starts_at,omitempty"`
	EndsAt   *string `json:"ends_at,omitempty"`
	Progress float64 `json:"progress"`
}

// Attachment links an external URL to an issue.
type Attachment struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Title    *string `json:"title,omitempty"`
	Subtitle *string `json:"subtitle,omitempty"`
}

// IssueContext bundles an issue with its comment thread and the team's
// workflow states, the starting point for an agent picking up an issue.
type IssueContext struct {
	Issue    Issue           `json:"issue"`
	Comments []Comment       `json:"comments"`
	States   []WorkflowState `json:"states"`
}

// =============================================================================
// Node parsers
// =============================================================================
// Every parser is total over map[string]any: missing or malformed fields
// coerce to defaults instead of failing the whole response.

func parseTeam(raw map[string]any) Team {
	return Team{
		ID:   linearapi.Str(raw["id"], ""),
		Name: linearapi.Str(raw["name"], ""),
		Key:  linearapi.Str(raw["key"], ""),
	}
}

func parseUser(raw map[string]any) User {
	return User{
		ID:    linearapi.Str(raw["id"], ""),
		Name:  linearapi.Str(raw["name"], ""),
		Email: linearapi.OptStr(raw["email"]),
	}
}

func parseState(raw map[string]any) WorkflowState {
	return WorkflowState{
		ID:       linearapi.Str(raw["id"], ""),
		Name:     linearapi.Str(raw["name"], ""),
		Type:     linearapi.Str(raw["type"], ""),
		Color:    linearapi.OptStr(raw["color"]),
		Position: linearapi.Float(raw["position"], 0),
	}
}

func parseLabel(raw map[string]any) Label {
	return Label{
		ID:    linearapi.Str(raw["id"], ""),
		Name:  linearapi.Str(raw["name"], ""),
		Color: linearapi.OptStr(raw["color"]),
	}
}

// parseLabelNames flattens a labels connection ({nodes: [{name}, ...]}) into
// name strings, keeping server order and dropping malformed entries.
func parseLabelNames(container any) []string {
	labels := []string{}
	c, ok := container.(map[string]any)
	if !ok {
		return labels
	}
	nodes, ok := c["nodes"].([]any)
	if !ok {
		return labels
	}
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}
		name := linearapi.Str(node["name"], "")
		if name == "" {
			continue
		}
		labels = append(labels, name)
	}
	return labels
}

func parseIssue(raw map[string]any) Issue {
	return Issue{
		ID:          linearapi.Str(raw["id"], ""),
		Identifier:  linearapi.Str(raw["identifier"], ""),
		Title:       linearapi.Str(raw["title"], ""),
		Description: linearapi.OptStr(raw["description"]),
		State:       linearapi.NestedStr(raw["state"], "name"),
		Priority:    linearapi.Int(raw["priority"], 0),
		Assignee:    linearapi.NestedStr(raw["assignee"], "name"),
		Labels:      parseLabelNames(raw["labels"]),
		CreatedAt:   linearapi.OptStr(raw["createdAt"]),
		UpdatedAt:   linearapi.OptStr(raw["updatedAt"]),
	}
}

func parseComment(raw map[string]any) Comment {
	return Comment{
		ID:        linearapi.Str(raw["id"], ""),
		Body:      linearapi.Str(raw["body"], ""),
		User:      linearapi.NestedStr(raw["user"], "name"),
		CreatedAt: linearapi.OptStr(raw["createdAt"]),
	}
}

func parseProject(raw map[string]any) Project {
	return Project{
		ID:         linearapi.Str(raw["id"], ""),
		Name:       linearapi.Str(raw["name"], ""),
		State:      linearapi.OptStr(raw["state"]),
		Progress:   linearapi.Float(raw["progress"], 0),
		TargetDate: linearapi.OptStr(raw["targetDate"]),
	}
}

func parseCycle(raw map[string]any) Cycle {
	return Cycle{
		ID:       linearapi.Str(raw["id"], ""),
		Number:   linearapi.Int(raw["number"], 0),
		Name:     linearapi.OptStr(raw["name"]),
		StartsAt: linearapi.OptStr(raw["startsAt"]),
		EndsAt:   linearapi.OptStr(raw["endsAt"]),
		Progress: linearapi.Float(raw["progress"], 0),
	}
}

func parseAttachment(raw map[string]any) Attachment {
	return Attachment{
		ID:       linearapi.Str(raw["id"], ""),
		URL:      linearapi.Str(raw["url"], ""),
		Title:    linearapi.OptStr(raw["title"]),
		Subtitle: linearapi.OptStr(raw["subtitle"]),
	}
}

// =============================================================================
// Connection helpers
// =============================================================================

// nodeList extracts the nodes array from a connection container.
// The bool reports whether nodes had the expected list shape; an absent
// nodes key on a well-formed container counts as an empty page.
func nodeList(container map[string]any) ([]any, bool) {
	nodes, ok := container["nodes"].([]any)
	if !ok {
		if _, has := container["nodes"]; !has {
			return []any{}, true
		}
		return nil, false
	}
	return nodes, true
}

// pageInfo extracts the raw pageInfo object from a connection container.
// The core never interprets it; it is passed through to the caller.
func pageInfo(container map[string]any) any {
	return container["pageInfo"]
}

// objectNodes filters a nodes array down to its mapping entries.
func objectNodes(nodes []any) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if m, ok := n.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
