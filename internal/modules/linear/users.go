package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// User tools: whoami, list_users
// =============================================================================

var userTools = []modules.Tool{
	{
		ID:          "linear:whoami",
		Name:        "whoami",
		Description: "Get the authenticated user's profile (the API viewer).",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type:       "object",
			Properties: map[string]modules.Property{},
		},
	},
	{
		ID:          "linear:list_users",
		Name:        "list_users",
		Description: "List workspace members.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"first":            {Type: "number", Description: "Maximum number of users to return. Default: 50"},
				"after":            {Type: "string", Description: "Cursor for pagination (from a previous response)"},
				"include_archived": {Type: "boolean", Description: "Include deactivated users. Default: false"},
			},
		},
	},
}

var userHandlers = map[string]toolHandler{
	"whoami":     whoami,
	"list_users": listUsers,
}

type userList struct {
	Users    []User `json:"users"`
	PageInfo any    `json:"pageInfo,omitempty"`
}

func whoami(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Viewer {
        viewer { id name email }
    }`
	res := client.Dispatch(ctx, query, nil)
	data, err := dataObject(res, "Failed to fetch viewer")
	if err != nil {
		return "", err
	}
	viewer, ok := data["viewer"].(map[string]any)
	if !ok {
		return "", errors.New("Viewer not found")
	}
	return toJSON(parseUser(viewer))
}

func listUsers(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Users($first: Int, $after: String, $includeArchived: Boolean) {
        users(first: $first, after: $after, includeArchived: $includeArchived) {
            nodes { id name email }
            pageInfo { hasNextPage endCursor }
        }
    }`
	variables := map[string]any{
		"first":           intParam(params, "first", 50),
		"after":           params["after"],
		"includeArchived": boolParam(params, "include_archived"),
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to list users")
	if err != nil {
		return "", err
	}
	usersData, ok := data["users"].(map[string]any)
	if !ok {
		return "", errors.New("No users data")
	}
	nodes, ok := nodeList(usersData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	users := make([]User, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		users = append(users, parseUser(node))
	}
	return toJSON(userList{Users: users, PageInfo: pageInfo(usersData)})
}
