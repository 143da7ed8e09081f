package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Cycle tools: list_cycles, get_cycle, active_cycle
// =============================================================================

const cycleFields = `
    id number name startsAt endsAt progress
`

var cycleTools = []modules.Tool{
	{
		ID:          "linear:list_cycles",
		Name:        "list_cycles",
		Description: "List cycles (iterations) for a team.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"team_id":          {Type: "string", Description: "Team UUID"},
				"first":            {Type: "number", Description: "Maximum number of cycles to return. Default: 25"},
				"after":            {Type: "string", Description: "Cursor for pagination (from a previous response)"},
				"include_archived": {Type: "boolean", Description: "Include archived cycles. Default: false"},
			},
			Required: []string{"team_id"},
		},
	},
	{
		ID:          "linear:get_cycle",
		Name:        "get_cycle",
		Description: "Get a cycle by UUID.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"cycle_id": {Type: "string", Description: "Cycle UUID"},
			},
			Required: []string{"cycle_id"},
		},
	},
	{
		ID:          "linear:active_cycle",
		Name:        "active_cycle",
		Description: "Get the current active cycle for a team, if one exists.",
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

var cycleHandlers = map[string]toolHandler{
	"list_cycles":  listCycles,
	"get_cycle":    getCycle,
	"active_cycle": activeCycle,
}

type cycleList struct {
	Cycles   []Cycle `json:"cycles"`
	PageInfo any     `json:"pageInfo,omitempty"`
}

func listCycles(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query TeamCycles($id: String!, $first: Int, $after: String, $includeArchived: Boolean) {
        team(id: $id) {
            cycles(first: $first, after: $after, includeArchived: $includeArchived) {
                nodes { ` + cycleFields + ` }
                pageInfo { hasNextPage endCursor }
            }
        }
    }`
	variables := map[string]any{
		"id":              strParam(params, "team_id"),
		"first":           intParam(params, "first", 25),
		"after":           params["after"],
		"includeArchived": boolParam(params, "include_archived"),
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to list cycles")
	if err != nil {
		return "", err
	}
	teamData, ok := data["team"].(map[string]any)
	if !ok {
		return "", errors.New("Team not found")
	}
	cyclesData, ok := teamData["cycles"].(map[string]any)
	if !ok {
		return "", errors.New("No cycles data")
	}
	nodes, ok := nodeList(cyclesData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	cycles := make([]Cycle, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		cycles = append(cycles, parseCycle(node))
	}
	return toJSON(cycleList{Cycles: cycles, PageInfo: pageInfo(cyclesData)})
}

func getCycle(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Cycle($id: String!) {
        cycle(id: $id) { ` + cycleFields + ` }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "cycle_id")})
	data, err := dataObject(res, "Failed to fetch cycle")
	if err != nil {
		return "", err
	}
	cycleData, ok := data["cycle"].(map[string]any)
	if !ok {
		return "", errors.New("Cycle not found")
	}
	return toJSON(parseCycle(cycleData))
}

func activeCycle(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query ActiveCycle($id: String!) {
        team(id: $id) {
            activeCycle { ` + cycleFields + ` }
        }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "team_id")})
	data, err := dataObject(res, "Failed to fetch active cycle")
	if err != nil {
		return "", err
	}
	teamData, ok := data["team"].(map[string]any)
	if !ok {
		return "", errors.New("Team not found")
	}
	cycleData, ok := teamData["activeCycle"].(map[string]any)
	if !ok {
		return "", errors.New("No active cycle")
	}
	return toJSON(parseCycle(cycleData))
}
