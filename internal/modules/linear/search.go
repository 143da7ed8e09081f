package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Search tools: search_issues
// =============================================================================

var searchTools = []modules.Tool{
	{
		ID:          "linear:search_issues",
		Name:        "search_issues",
		Description: "Full-text search across issues using Linear's issueSearch endpoint. Supports free-form natural language queries.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"query":            {Type: "string", Description: "Search query string (natural language supported)"},
				"first":            {Type: "number", Description: "Maximum number of results to return. Default: 25"},
				"after":            {Type: "string", Description: "Cursor for pagination (from a previous response)"},
				"include_archived": {Type: "boolean", Description: "Include archived issues. Default: false"},
			},
			Required: []string{"query"},
		},
	},
}

var searchHandlers = map[string]toolHandler{
	"search_issues": searchIssues,
}

func searchIssues(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query SearchIssues(
        $query: String!,
        $first: Int,
        $after: String,
        $includeArchived: Boolean
    ) {
        issueSearch(
            query: $query,
            first: $first,
            after: $after,
            includeArchived: $includeArchived
        ) {
            nodes { ` + issueFields + ` }
            pageInfo { hasNextPage endCursor }
        }
    }`
	variables := map[string]any{
		"query":           strParam(params, "query"),
		"first":           intParam(params, "first", 25),
		"after":           params["after"],
		"includeArchived": boolParam(params, "include_archived"),
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to search issues")
	if err != nil {
		return "", err
	}
	searchData, ok := data["issueSearch"].(map[string]any)
	if !ok {
		return "", errors.New("No search results")
	}
	nodes, ok := nodeList(searchData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	issues := make([]Issue, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		issues = append(issues, parseIssue(node))
	}
	return toJSON(issueList{Issues: issues, PageInfo: pageInfo(searchData)})
}
