package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Label tools: list_labels, create_label
// =============================================================================

var labelTools = []modules.Tool{
	{
		ID:          "linear:list_labels",
		Name:        "list_labels",
		Description: "List labels for the workspace, or for one team when team_id is given.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"team_id": {Type: "string", Description: "Team UUID to scope results. Omit for workspace labels"},
				"first":   {Type: "number", Description: "Maximum number of labels to return. Default: 50"},
				"after":   {Type: "string", Description: "Cursor for pagination (from a previous response)"},
			},
		},
	},
	{
		ID:          "linear:create_label",
		Name:        "create_label",
		Description: "Create a new label. Without team_id the label is created at workspace scope.",
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"name":    {Type: "string", Description: "Label name"},
				"team_id": {Type: "string", Description: "Team UUID to scope the label to"},
				"color":   {Type: "string", Description: "Hex color string (e.g. '#ff0000')"},
			},
			Required: []string{"name"},
		},
	},
}

var labelHandlers = map[string]toolHandler{
	"list_labels":  listLabels,
	"create_label": createLabel,
}

type labelList struct {
	Labels   []Label `json:"labels"`
	PageInfo any     `json:"pageInfo,omitempty"`
}

func listLabels(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	// Team scope reads team.labels; workspace scope reads issueLabels.
	var labelsData map[string]any
	if teamID := strParam(params, "team_id"); teamID != "" {
		query := `
    query TeamLabels($id: String!, $first: Int, $after: String) {
        team(id: $id) {
            labels(first: $first, after: $after) {
                nodes { id name color }
                pageInfo { hasNextPage endCursor }
            }
        }
    }`
		variables := map[string]any{
			"id":    teamID,
			"first": intParam(params, "first", 50),
			"after": params["after"],
		}
		res := client.Dispatch(ctx, query, variables)
		data, err := dataObject(res, "Failed to list labels")
		if err != nil {
			return "", err
		}
		teamData, ok := data["team"].(map[string]any)
		if !ok {
			return "", errors.New("Team not found")
		}
		labelsData, _ = teamData["labels"].(map[string]any)
	} else {
		query := `
    query Labels($first: Int, $after: String) {
        issueLabels(first: $first, after: $after) {
            nodes { id name color }
            pageInfo { hasNextPage endCursor }
        }
    }`
		variables := map[string]any{
			"first": intParam(params, "first", 50),
			"after": params["after"],
		}
		res := client.Dispatch(ctx, query, variables)
		data, err := dataObject(res, "Failed to list labels")
		if err != nil {
			return "", err
		}
		labelsData, _ = data["issueLabels"].(map[string]any)
	}

	if labelsData == nil {
		return "", errors.New("No labels data")
	}
	nodes, ok := nodeList(labelsData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	labels := make([]Label, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		labels = append(labels, parseLabel(node))
	}
	return toJSON(labelList{Labels: labels, PageInfo: pageInfo(labelsData)})
}

func createLabel(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation LabelCreate($input: IssueLabelCreateInput!) {
        issueLabelCreate(input: $input) {
            success
            issueLabel { id name color }
        }
    }`
	input := map[string]any{"name": strParam(params, "name")}
	setOptStr(input, params, "team_id", "teamId")
	setOptStr(input, params, "color", "color")

	res := client.Dispatch(ctx, query, map[string]any{"input": input})
	data, err := dataObject(res, "Failed to create label")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "issueLabelCreate", "Label creation failed")
	if err != nil {
		return "", err
	}
	labelData, ok := payload["issueLabel"].(map[string]any)
	if !ok {
		return "", errors.New("No label in response")
	}
	return toJSON(parseLabel(labelData))
}
