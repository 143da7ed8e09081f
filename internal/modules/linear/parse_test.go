package linear

import (
	"reflect"
	"testing"
)

func TestParseIssueFullNode(t *testing.T) {
	raw := map[string]any{
		"id":          "abc-123",
		"identifier":  "ENG-42",
		"title":       "Fix login flow",
		"description": "Steps to reproduce...",
		"priority":    float64(2),
		"state":       map[string]any{"name": "In Progress"},
		"assignee":    map[string]any{"name": "Ada"},
		"labels": map[string]any{
			"nodes": []any{
				map[string]any{"name": "bug"},
				map[string]any{"name": "auth"},
			},
		},
		"createdAt": "2026-01-01T00:00:00.000Z",
		"updatedAt": "2026-02-01T00:00:00.000Z",
	}

	issue := parseIssue(raw)

	if issue.ID != "abc-123" || issue.Identifier != "ENG-42" || issue.Title != "Fix login flow" {
		t.Errorf("scalar fields wrong: %+v", issue)
	}
	if issue.Priority != 2 {
		t.Errorf("Priority = %d, want 2", issue.Priority)
	}
	if issue.State == nil || *issue.State != "In Progress" {
		t.Errorf("State = %v, want In Progress", issue.State)
	}
	if issue.Assignee == nil || *issue.Assignee != "Ada" {
		t.Errorf("Assignee = %v, want Ada", issue.Assignee)
	}
	if !reflect.DeepEqual(issue.Labels, []string{"bug", "auth"}) {
		t.Errorf("Labels = %v, want [bug auth]", issue.Labels)
	}
	if issue.Description == nil || *issue.Description != "Steps to reproduce..." {
		t.Errorf("Description = %v", issue.Description)
	}
}

func TestParseIssueEmptyNode(t *testing.T) {
	issue := parseIssue(map[string]any{})

	if issue.ID != "" || issue.Identifier != "" || issue.Title != "" {
		t.Errorf("scalar defaults wrong: %+v", issue)
	}
	if issue.Priority != 0 {
		t.Errorf("Priority = %d, want 0", issue.Priority)
	}
	if issue.State != nil || issue.Assignee != nil || issue.Description != nil {
		t.Errorf("optional fields should stay nil: %+v", issue)
	}
	if issue.Labels == nil || len(issue.Labels) != 0 {
		t.Errorf("Labels should be empty non-nil slice, got %v", issue.Labels)
	}
}

func TestParseIssueMalformedRelations(t *testing.T) {
	raw := map[string]any{
		"id":       "x",
		"state":    "not an object",
		"assignee": []any{"wrong"},
		"labels":   "also wrong",
		"priority": "high", // non-numeric text
	}

	issue := parseIssue(raw)

	if issue.State != nil {
		t.Errorf("State from malformed relation = %q, want nil", *issue.State)
	}
	if issue.Assignee != nil {
		t.Errorf("Assignee from malformed relation = %q, want nil", *issue.Assignee)
	}
	if len(issue.Labels) != 0 {
		t.Errorf("Labels = %v, want empty", issue.Labels)
	}
	if issue.Priority != 0 {
		t.Errorf("Priority = %d, want default 0", issue.Priority)
	}
}

func TestParseLabelNames(t *testing.T) {
	tests := []struct {
		name      string
		container any
		want      []string
	}{
		{
			"preserves server order",
			map[string]any{"nodes": []any{
				map[string]any{"name": "zeta"},
				map[string]any{"name": "alpha"},
				map[string]any{"name": "mid"},
			}},
			[]string{"zeta", "alpha", "mid"},
		},
		{
			"drops malformed and empty entries",
			map[string]any{"nodes": []any{
				map[string]any{"name": "keep"},
				"not an object",
				map[string]any{"name": ""},
				map[string]any{"id": "no-name"},
				map[string]any{"name": "also keep"},
			}},
			[]string{"keep", "also keep"},
		},
		{"nil container", nil, []string{}},
		{"wrong container shape", []any{}, []string{}},
		{"missing nodes", map[string]any{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLabelNames(tt.container); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseLabelNames = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	state := parseState(map[string]any{
		"id":       "s1",
		"name":     "Done",
		"type":     "completed",
		"color":    "#00ff00",
		"position": 4.5,
	})
	if state.ID != "s1" || state.Name != "Done" || state.Type != "completed" {
		t.Errorf("fields wrong: %+v", state)
	}
	if state.Color == nil || *state.Color != "#00ff00" {
		t.Errorf("Color = %v", state.Color)
	}
	if state.Position != 4.5 {
		t.Errorf("Position = %v, want 4.5", state.Position)
	}

	empty := parseState(map[string]any{})
	if empty.Position != 0 || empty.Color != nil {
		t.Errorf("empty defaults wrong: %+v", empty)
	}
}

func TestParseCycle(t *testing.T) {
	cycle := parseCycle(map[string]any{
		"id":       "c1",
		"number":   float64(7),
		"name":     "Sprint 7",
		"startsAt": "2026-02-01",
		"endsAt":   "2026-02-14",
		"progress": 0.66,
	})
	if cycle.Number != 7 || cycle.Progress != 0.66 {
		t.Errorf("numeric fields wrong: %+v", cycle)
	}
	if cycle.Name == nil || *cycle.Name != "Sprint 7" {
		t.Errorf("Name = %v", cycle.Name)
	}

	// Unnamed cycles are common; name stays nil.
	unnamed := parseCycle(map[string]any{"id": "c2", "number": float64(8)})
	if unnamed.Name != nil {
		t.Errorf("Name = %q, want nil", *unnamed.Name)
	}
}

func TestParseProject(t *testing.T) {
	p := parseProject(map[string]any{
		"id":         "p1",
		"name":       "Roadmap",
		"state":      "started",
		"progress":   0.25,
		"targetDate": "2026-06-01",
	})
	if p.State == nil || *p.State != "started" || p.Progress != 0.25 {
		t.Errorf("fields wrong: %+v", p)
	}
	if p.TargetDate == nil || *p.TargetDate != "2026-06-01" {
		t.Errorf("TargetDate = %v", p.TargetDate)
	}
}

func TestParseComment(t *testing.T) {
	c := parseComment(map[string]any{
		"id":        "cm1",
		"body":      "LGTM",
		"user":      map[string]any{"name": "Grace"},
		"createdAt": "2026-03-01T10:00:00.000Z",
	})
	if c.User == nil || *c.User != "Grace" {
		t.Errorf("User = %v, want Grace", c.User)
	}

	// Deleted users leave the relation null.
	orphan := parseComment(map[string]any{"id": "cm2", "body": "hi", "user": nil})
	if orphan.User != nil {
		t.Errorf("User = %q, want nil", *orphan.User)
	}
}

func TestNodeList(t *testing.T) {
	if nodes, ok := nodeList(map[string]any{"nodes": []any{1, 2}}); !ok || len(nodes) != 2 {
		t.Errorf("nodeList = %v, %v", nodes, ok)
	}
	// Absent nodes key means an empty page, not a malformed response.
	if nodes, ok := nodeList(map[string]any{"pageInfo": map[string]any{}}); !ok || len(nodes) != 0 {
		t.Errorf("absent nodes: %v, %v", nodes, ok)
	}
	if _, ok := nodeList(map[string]any{"nodes": "wrong"}); ok {
		t.Error("non-list nodes should report malformed")
	}
}
