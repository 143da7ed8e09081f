package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Team tools: list_teams, get_team, list_team_states
// =============================================================================

var teamTools = []modules.Tool{
	{
		ID:          "linear:list_teams",
		Name:        "list_teams",
		Description: "List all teams in the workspace.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"first": {Type: "number", Description: "Maximum number of teams to return. Default: 50"},
				"after": {Type: "string", Description: "Cursor for pagination (from a previous response)"},
			},
		},
	},
	{
		ID:          "linear:get_team",
		Name:        "get_team",
		Description: "Get a team by UUID.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"team_id": {Type: "string", Description: "Team UUID"},
			},
			Required: []string{"team_id"},
		},
	},
	{
		ID:          "linear:list_team_states",
		Name:        "list_team_states",
		Description: "List workflow states for a team. Issue mutations require a valid state UUID, not a free-text status.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"team_id": {Type: "string", Description: "Team UUID"},
			},
			Required: []string{"team_id"},
		},
	},
}

var teamHandlers = map[string]toolHandler{
	"list_teams":       listTeams,
	"get_team":         getTeam,
	"list_team_states": listTeamStates,
}

type teamList struct {
	Teams    []Team `json:"teams"`
	PageInfo any    `json:"pageInfo,omitempty"`
}

type stateList struct {
	States []WorkflowState `json:"states"`
}

func listTeams(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Teams($first: Int, $after: String) {
        teams(first: $first, after: $after) {
            nodes { id name key }
            pageInfo { hasNextPage endCursor }
        }
    }`
	variables := map[string]any{
		"first": intParam(params, "first", 50),
		"after": params["after"],
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to list teams")
	if err != nil {
		return "", err
	}
	teamsData, ok := data["teams"].(map[string]any)
	if !ok {
		return "", errors.New("No teams data")
	}
	nodes, ok := nodeList(teamsData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	teams := make([]Team, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		teams = append(teams, parseTeam(node))
	}
	return toJSON(teamList{Teams: teams, PageInfo: pageInfo(teamsData)})
}

func getTeam(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Team($id: String!) {
        team(id: $id) { id name key }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "team_id")})
	data, err := dataObject(res, "Failed to fetch team")
	if err != nil {
		return "", err
	}
	teamData, ok := data["team"].(map[string]any)
	if !ok {
		return "", errors.New("Team not found")
	}
	return toJSON(parseTeam(teamData))
}

func listTeamStates(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query TeamStates($id: String!) {
        team(id: $id) {
            states {
                nodes { id name type color position }
            }
        }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "team_id")})
	data, err := dataObject(res, "Failed to fetch team states")
	if err != nil {
		return "", err
	}
	teamData, ok := data["team"].(map[string]any)
	if !ok {
		return "", errors.New("Team not found")
	}
	statesData, ok := teamData["states"].(map[string]any)
	if !ok {
		return "", errors.New("No states data")
	}
	nodes, ok := nodeList(statesData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	states := make([]WorkflowState, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		states = append(states, parseState(node))
	}
	return toJSON(stateList{States: states})
}
