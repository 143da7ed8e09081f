package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Compound tools: issue_context, my_issues
// =============================================================================
// Single-call versions of the multi-step workflows agents run constantly:
// "read everything about this issue" and "what is assigned to me".

var contextTools = []modules.Tool{
	{
		ID:          "linear:issue_context",
		Name:        "issue_context",
		Description: "Get full context for an issue in one round-trip: details with description, the comment thread, and the team's workflow states.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issue_id": {Type: "string", Description: "Issue UUID or human-readable identifier (e.g. 'ENG-123')"},
			},
			Required: []string{"issue_id"},
		},
	},
	{
		ID:          "linear:my_issues",
		Name:        "my_issues",
		Description: "List issues assigned to the authenticated user (viewer.assignedIssues).",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"first":            {Type: "number", Description: "Maximum number of issues to return. Default: 50"},
				"after":            {Type: "string", Description: "Cursor for pagination (from a previous response)"},
				"include_archived": {Type: "boolean", Description: "Include archived issues. Default: false"},
			},
		},
	},
}

var contextHandlers = map[string]toolHandler{
	"issue_context": issueContext,
	"my_issues":     myIssues,
}

func issueContext(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query IssueContext($id: String!) {
        issue(id: $id) {
            id identifier title description priority createdAt updatedAt
            state { name }
            assignee { name }
            labels { nodes { name } }
            comments(first: 50) {
                nodes {
                    id body createdAt
                    user { name }
                }
            }
            team {
                states {
                    nodes { id name type color position }
                }
            }
        }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "issue_id")})
	data, err := dataObject(res, "Failed to fetch issue context")
	if err != nil {
		return "", err
	}
	issueData, ok := data["issue"].(map[string]any)
	if !ok {
		return "", errors.New("Issue not found")
	}

	// Missing branches degrade to empty slices, never failures: the issue
	// itself is the required part of the bundle.
	result := IssueContext{
		Issue:    parseIssue(issueData),
		Comments: []Comment{},
		States:   []WorkflowState{},
	}

	if commentsData, ok := issueData["comments"].(map[string]any); ok {
		if nodes, ok := nodeList(commentsData); ok {
			for _, node := range objectNodes(nodes) {
				result.Comments = append(result.Comments, parseComment(node))
			}
		}
	}

	if teamData, ok := issueData["team"].(map[string]any); ok {
		if statesData, ok := teamData["states"].(map[string]any); ok {
			if nodes, ok := nodeList(statesData); ok {
				for _, node := range objectNodes(nodes) {
					result.States = append(result.States, parseState(node))
				}
			}
		}
	}

	return toJSON(result)
}

func myIssues(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query MyIssues($first: Int, $after: String, $includeArchived: Boolean) {
        viewer {
            assignedIssues(
                first: $first,
                after: $after,
                includeArchived: $includeArchived
            ) {
                nodes { ` + issueFields + ` }
                pageInfo { hasNextPage endCursor }
            }
        }
    }`
	variables := map[string]any{
		"first":           intParam(params, "first", 50),
		"after":           params["after"],
		"includeArchived": boolParam(params, "include_archived"),
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to fetch assigned issues")
	if err != nil {
		return "", err
	}
	viewer, ok := data["viewer"].(map[string]any)
	if !ok {
		return "", errors.New("Viewer not found")
	}
	assigned, ok := viewer["assignedIssues"].(map[string]any)
	if !ok {
		return "", errors.New("No assigned issues data")
	}
	nodes, ok := nodeList(assigned)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	issues := make([]Issue, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		issues = append(issues, parseIssue(node))
	}
	return toJSON(issueList{Issues: issues, PageInfo: pageInfo(assigned)})
}
