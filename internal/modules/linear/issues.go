package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Issue tools: get_issue, list_issues, create_issue, update_issue
// =============================================================================

// issueFields is the shared selection for issue nodes. Description is only
// fetched on single-issue reads to keep list payloads small.
const issueFields = `
    id identifier title priority createdAt updatedAt
    state { name }
    assignee { name }
    labels { nodes { name } }
`

var issueTools = []modules.Tool{
	{
		ID:          "linear:get_issue",
		Name:        "get_issue",
		Description: "Get a Linear issue by UUID or identifier (e.g. 'ENG-123'). Returns full detail including description.",
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
		ID:          "linear:list_issues",
		Name:        "list_issues",
		Description: "List issues with an optional Linear IssueFilter passthrough, e.g. {\"assignee\": {\"email\": {\"eq\": \"me@co.com\"}}, \"priority\": {\"lte\": 2}}.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"filter":           {Type: "object", Description: "Raw GraphQL IssueFilter object, passed through as-is. See https://linear.app/developers/filtering"},
				"first":            {Type: "number", Description: "Maximum number of issues to return. Default: 50"},
				"after":            {Type: "string", Description: "Cursor for pagination (from a previous response)"},
				"order_by":         {Type: "string", Description: "Sort field", Enum: []string{"createdAt", "updatedAt"}},
				"include_archived": {Type: "boolean", Description: "Include archived issues. Default: false"},
			},
		},
	},
	{
		ID:          "linear:create_issue",
		Name:        "create_issue",
		Description: "Create a new issue. If state_id is omitted, Linear defaults to the team's first Backlog state.",
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"team_id":          {Type: "string", Description: "Team UUID that owns the issue"},
				"title":            {Type: "string", Description: "Issue title"},
				"description":      {Type: "string", Description: "Markdown body"},
				"assignee_id":      {Type: "string", Description: "User UUID to assign"},
				"state_id":         {Type: "string", Description: "Workflow state UUID"},
				"priority":         {Type: "number", Description: "Priority level (0=none, 1=urgent, 2=high, 3=medium, 4=low)"},
				"label_ids":        {Type: "array", Description: "Label UUIDs to attach", Items: &modules.Property{Type: "string"}},
				"cycle_id":         {Type: "string", Description: "Cycle UUID to assign to"},
				"project_id":       {Type: "string", Description: "Project UUID to assign to"},
				"estimate":         {Type: "number", Description: "Point estimate"},
				"create_as_user":   {Type: "string", Description: "Display name for the acting user (actor=app tokens only)"},
				"display_icon_url": {Type: "string", Description: "Avatar URL for the acting user (actor=app tokens only)"},
			},
			Required: []string{"team_id", "title"},
		},
	},
	{
		ID:          "linear:update_issue",
		Name:        "update_issue",
		Description: "Update an existing issue. Only provided fields are modified.",
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issue_id":    {Type: "string", Description: "Issue UUID or identifier (e.g. 'ENG-123')"},
				"title":       {Type: "string", Description: "New title"},
				"description": {Type: "string", Description: "New markdown body"},
				"state_id":    {Type: "string", Description: "New workflow state UUID"},
				"assignee_id": {Type: "string", Description: "New assignee UUID"},
				"priority":    {Type: "number", Description: "New priority (0=none, 1=urgent, 2=high, 3=medium, 4=low)"},
				"label_ids":   {Type: "array", Description: "Replacement label UUIDs (replaces all)", Items: &modules.Property{Type: "string"}},
				"cycle_id":    {Type: "string", Description: "New cycle UUID"},
				"project_id":  {Type: "string", Description: "New project UUID"},
				"estimate":    {Type: "number", Description: "New point estimate"},
			},
			Required: []string{"issue_id"},
		},
	},
}

var issueHandlers = map[string]toolHandler{
	"get_issue":    getIssue,
	"list_issues":  listIssues,
	"create_issue": createIssue,
	"update_issue": updateIssue,
}

// issueList is the list-tool response envelope. pageInfo is the raw
// GraphQL object, passed through uninterpreted.
type issueList struct {
	Issues   []Issue `json:"issues"`
	PageInfo any     `json:"pageInfo,omitempty"`
}

func getIssue(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query GetIssue($id: String!) {
        issue(id: $id) { ` + issueFields + ` description }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "issue_id")})
	data, err := dataObject(res, "Failed to fetch issue")
	if err != nil {
		return "", err
	}
	issueData, ok := data["issue"].(map[string]any)
	if !ok {
		return "", errors.New("Issue not found")
	}
	return toJSON(parseIssue(issueData))
}

func listIssues(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}
	filter, err := filterParam(params, "filter")
	if err != nil {
		return "", err
	}

	query := `
    query Issues(
        $filter: IssueFilter,
        $first: Int,
        $after: String,
        $orderBy: PaginationOrderBy,
        $includeArchived: Boolean
    ) {
        issues(
            filter: $filter,
            first: $first,
            after: $after,
            orderBy: $orderBy,
            includeArchived: $includeArchived
        ) {
            nodes { ` + issueFields + ` }
            pageInfo { hasNextPage endCursor }
        }
    }`
	orderBy := strParam(params, "order_by")
	if orderBy == "" {
		orderBy = "createdAt"
	}
	variables := map[string]any{
		"filter":          filter,
		"first":           intParam(params, "first", 50),
		"after":           params["after"],
		"orderBy":         orderBy,
		"includeArchived": boolParam(params, "include_archived"),
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to list issues")
	if err != nil {
		return "", err
	}
	issuesData, ok := data["issues"].(map[string]any)
	if !ok {
		return "", errors.New("No issues data")
	}
	nodes, ok := nodeList(issuesData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	issues := make([]Issue, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		issues = append(issues, parseIssue(node))
	}
	return toJSON(issueList{Issues: issues, PageInfo: pageInfo(issuesData)})
}

func createIssue(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation IssueCreate($input: IssueCreateInput!) {
        issueCreate(input: $input) {
            success
            issue { ` + issueFields + ` }
        }
    }`
	input := map[string]any{
		"teamId": strParam(params, "team_id"),
		"title":  strParam(params, "title"),
	}
	setOptStr(input, params, "description", "description")
	setOptStr(input, params, "assignee_id", "assigneeId")
	setOptStr(input, params, "state_id", "stateId")
	setOptInt(input, params, "priority", "priority")
	if v, ok := optParam(params, "label_ids"); ok {
		if list, ok := v.([]any); ok {
			input["labelIds"] = modules.ToStringSlice(list)
		}
	}
	setOptStr(input, params, "cycle_id", "cycleId")
	setOptStr(input, params, "project_id", "projectId")
	setOptInt(input, params, "estimate", "estimate")
	setOptStr(input, params, "create_as_user", "createAsUser")
	setOptStr(input, params, "display_icon_url", "displayIconUrl")

	res := client.Dispatch(ctx, query, map[string]any{"input": input})
	data, err := dataObject(res, "Failed to create issue")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "issueCreate", "Issue creation failed")
	if err != nil {
		return "", err
	}
	issueData, ok := payload["issue"].(map[string]any)
	if !ok {
		return "", errors.New("No issue in response")
	}
	return toJSON(parseIssue(issueData))
}

func updateIssue(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation IssueUpdate($id: String!, $input: IssueUpdateInput!) {
        issueUpdate(id: $id, input: $input) {
            success
            issue { ` + issueFields + ` }
        }
    }`
	input := map[string]any{}
	setOptStr(input, params, "title", "title")
	setOptStr(input, params, "description", "description")
	setOptStr(input, params, "state_id", "stateId")
	setOptStr(input, params, "assignee_id", "assigneeId")
	setOptInt(input, params, "priority", "priority")
	if v, ok := optParam(params, "label_ids"); ok {
		if list, ok := v.([]any); ok {
			input["labelIds"] = modules.ToStringSlice(list)
		}
	}
	setOptStr(input, params, "cycle_id", "cycleId")
	setOptStr(input, params, "project_id", "projectId")
	setOptInt(input, params, "estimate", "estimate")

	if len(input) == 0 {
		return "", errors.New("No fields to update")
	}

	res := client.Dispatch(ctx, query, map[string]any{
		"id":    strParam(params, "issue_id"),
		"input": input,
	})
	data, err := dataObject(res, "Failed to update issue")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "issueUpdate", "Issue update failed")
	if err != nil {
		return "", err
	}
	issueData, ok := payload["issue"].(map[string]any)
	if !ok {
		return "", errors.New("No issue in response")
	}
	return toJSON(parseIssue(issueData))
}
