package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
)

// =============================================================================
// Project tools: get_project, list_projects, create_project, update_project
// =============================================================================

const projectFields = `
    id name state progress targetDate
`

var projectTools = []modules.Tool{
	{
		ID:          "linear:get_project",
		Name:        "get_project",
		Description: "Get a project by UUID.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"project_id": {Type: "string", Description: "Project UUID"},
			},
			Required: []string{"project_id"},
		},
	},
	{
		ID:          "linear:list_projects",
		Name:        "list_projects",
		Description: "List projects with an optional Linear ProjectFilter passthrough.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"filter":           {Type: "object", Description: "Raw GraphQL ProjectFilter object, passed through as-is"},
				"first":            {Type: "number", Description: "Maximum number of projects to return. Default: 50"},
				"after":            {Type: "string", Description: "Cursor for pagination (from a previous response)"},
				"include_archived": {Type: "boolean", Description: "Include archived projects. Default: false"},
			},
		},
	},
	{
		ID:          "linear:create_project",
		Name:        "create_project",
		Description: "Create a new project.",
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"name":        {Type: "string", Description: "Project name"},
				"team_ids":    {Type: "array", Description: "Team UUIDs to associate with the project", Items: &modules.Property{Type: "string"}},
				"description": {Type: "string", Description: "Markdown description"},
				"state":       {Type: "string", Description: "Initial state", Enum: []string{"planned", "started", "paused", "completed", "cancelled"}},
				"target_date": {Type: "string", Description: "ISO-8601 target completion date"},
			},
			Required: []string{"name"},
		},
	},
	{
		ID:          "linear:update_project",
		Name:        "update_project",
		Description: "Update an existing project. Only provided fields are modified.",
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"project_id":  {Type: "string", Description: "Project UUID"},
				"name":        {Type: "string", Description: "New name"},
				"description": {Type: "string", Description: "New markdown description"},
				"state":       {Type: "string", Description: "New state", Enum: []string{"planned", "started", "paused", "completed", "cancelled"}},
				"target_date": {Type: "string", Description: "New ISO-8601 target date"},
			},
			Required: []string{"project_id"},
		},
	},
}

var projectHandlers = map[string]toolHandler{
	"get_project":    getProject,
	"list_projects":  listProjects,
	"create_project": createProject,
	"update_project": updateProject,
}

type projectList struct {
	Projects []Project `json:"projects"`
	PageInfo any       `json:"pageInfo,omitempty"`
}

func getProject(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Project($id: String!) {
        project(id: $id) { ` + projectFields + ` }
    }`
	res := client.Dispatch(ctx, query, map[string]any{"id": strParam(params, "project_id")})
	data, err := dataObject(res, "Failed to fetch project")
	if err != nil {
		return "", err
	}
	projectData, ok := data["project"].(map[string]any)
	if !ok {
		return "", errors.New("Project not found")
	}
	return toJSON(parseProject(projectData))
}

func listProjects(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}
	filter, err := filterParam(params, "filter")
	if err != nil {
		return "", err
	}

	query := `
    query Projects(
        $filter: ProjectFilter,
        $first: Int,
        $after: String,
        $includeArchived: Boolean
    ) {
        projects(
            filter: $filter,
            first: $first,
            after: $after,
            includeArchived: $includeArchived
        ) {
            nodes { ` + projectFields + ` }
            pageInfo { hasNextPage endCursor }
        }
    }`
	variables := map[string]any{
		"filter":          filter,
		"first":           intParam(params, "first", 50),
		"after":           params["after"],
		"includeArchived": boolParam(params, "include_archived"),
	}
	res := client.Dispatch(ctx, query, variables)
	data, err := dataObject(res, "Failed to list projects")
	if err != nil {
		return "", err
	}
	projectsData, ok := data["projects"].(map[string]any)
	if !ok {
		return "", errors.New("No projects data")
	}
	nodes, ok := nodeList(projectsData)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	projects := make([]Project, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		projects = append(projects, parseProject(node))
	}
	return toJSON(projectList{Projects: projects, PageInfo: pageInfo(projectsData)})
}

func createProject(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation ProjectCreate($input: ProjectCreateInput!) {
        projectCreate(input: $input) {
            success
            project { ` + projectFields + ` }
        }
    }`
	input := map[string]any{"name": strParam(params, "name")}
	if v, ok := optParam(params, "team_ids"); ok {
		if list, ok := v.([]any); ok {
			input["teamIds"] = modules.ToStringSlice(list)
		}
	}
	setOptStr(input, params, "description", "description")
	setOptStr(input, params, "state", "state")
	setOptStr(input, params, "target_date", "targetDate")

	res := client.Dispatch(ctx, query, map[string]any{"input": input})
	data, err := dataObject(res, "Failed to create project")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "projectCreate", "Project creation failed")
	if err != nil {
		return "", err
	}
	projectData, ok := payload["project"].(map[string]any)
	if !ok {
		return "", errors.New("No project in response")
	}
	return toJSON(parseProject(projectData))
}

func updateProject(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation ProjectUpdate($id: String!, $input: ProjectUpdateInput!) {
        projectUpdate(id: $id, input: $input) {
            success
            project { ` + projectFields + ` }
        }
    }`
	input := map[string]any{}
	setOptStr(input, params, "name", "name")
	setOptStr(input, params, "description", "description")
	setOptStr(input, params, "state", "state")
	setOptStr(input, params, "target_date", "targetDate")

	if len(input) == 0 {
		return "", errors.New("No fields to update")
	}

	res := client.Dispatch(ctx, query, map[string]any{
		"id":    strParam(params, "project_id"),
		"input": input,
	})
	data, err := dataObject(res, "Failed to update project")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "projectUpdate", "Project update failed")
	if err != nil {
		return "", err
	}
	projectData, ok := payload["project"].(map[string]any)
	if !ok {
		return "", errors.New("No project in response")
	}
	return toJSON(parseProject(projectData))
}
