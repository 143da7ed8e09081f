package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Comment tools: list_comments, create_comment
// =============================================================================

var commentTools = []modules.Tool{
	{
		ID:          "linear:list_comments",
		Name:        "list_comments",
		Description: "List comments on an issue.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issue_id": {Type: "string", Description: "UUID or identifier of the parent issue"},
				"first":    {Type: "number", Description: "Maximum number of comments to return. Default: 50"},
				"after":    {Type: "string", Description: "Cursor for pagination (from a previous response)"},
			},
			Required: []string{"issue_id"},
		},
	},
	{
		ID:          "linear:create_comment",
		Name:        "create_comment",
		Description: "Add a markdown comment to an issue. Mentions work via plain Linear URLs (e.g. https://linear.app/team/issue/ENG-123).",
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issue_id":         {Type: "string", Description: "UUID or identifier of the parent issue"},
				"body":             {Type: "string", Description: "Comment body in markdown"},
				"create_as_user":   {Type: "string", Description: "Display name for the acting user (actor=app tokens only)"},
				"display_icon_url": {Type: "string", Description: "Avatar URL for the acting user (actor=app tokens only)"},
			},
			Required: []string{"issue_id", "body"},
		},
	},
}

var commentHandlers = map[string]toolHandler{
	"list_comments":  listComments,
	"create_comment": createComment,
}

type commentList struct {
	Comments []Comment `json:"comments"`
	PageInfo any       `json:"pageInfo,omitempty"`
}

func listComments(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query IssueComments($id: String!, $first: Int, $after: String) {
        issue(id: $id) {
            comments(first: $first, after: $after) {
                nodes {
                    id body createdAt
                    user { name }
                }
                pageInfo { hasNextPage endCursor }
            }
        }
    }`
	variables := map[string]any{
		"id":    strParam(params, "issue_id"),
		"first": intParam(params, "first", 50),
		"after": params["after"],
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to list comments")
	if err != nil {
		return "", err
	}
	issueData, ok := data["issue"].(map[string]any)
	if !ok {
		return "", errors.New("Issue not found")
	}
	commentsData, ok := issueData["comments"].(map[string]any)
	if !ok {
		return "", errors.New("No comments data")
	}
	nodes, ok := nodeList(commentsData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	comments := make([]Comment, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		comments = append(comments, parseComment(node))
	}
	return toJSON(commentList{Comments: comments, PageInfo: pageInfo(commentsData)})
}

func createComment(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation CommentCreate($input: CommentCreateInput!) {
        commentCreate(input: $input) {
            success
            comment {
                id body createdAt
                user { name }
            }
        }
    }`
	input := map[string]any{
		"issueId": strParam(params, "issue_id"),
		"body":    strParam(params, "body"),
	}
	setOptStr(input, params, "create_as_user", "createAsUser")
	setOptStr(input, params, "display_icon_url", "displayIconUrl")

	res := client.Dispatch(ctx, query, map[string]any{"input": input})
	data, err := dataObject(res, "Failed to create comment")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "commentCreate", "Comment creation failed")
	if err != nil {
		return "", err
	}
	commentData, ok := payload["comment"].(map[string]any)
	if !ok {
		return "", errors.New("No comment in response")
	}
	return toJSON(parseComment(commentData))
}
