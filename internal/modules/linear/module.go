// Package linear exposes Linear's GraphQL API as typed MCP tools.
//
// Tool handlers follow a value-or-error-text convention inherited from the
// GraphQL layer: API failures surface as error strings (tool results with
// isError), never as protocol-level faults.
package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"linearmcp/server/internal/broker"
	"linearmcp/server/internal/middleware"
	"linearmcp/server/internal/modules"
	"linearmcp/server/pkg/linearapi"
)

const linearAPIVersion = "2024-05"

// LinearModule implements the Module interface for the Linear GraphQL API
type LinearModule struct{}

// New creates a new LinearModule instance
func New() *LinearModule {
	return &LinearModule{}
}

// Name returns the module name
func (m *LinearModule) Name() string {
	return "linear"
}

// Description returns the module description
func (m *LinearModule) Description() string {
	return "Linear API - Issue tracking (issues, comments, projects, cycles, teams, labels, attachments)"
}

// APIVersion returns the Linear API version
func (m *LinearModule) APIVersion() string {
	return linearAPIVersion
}

// Tools returns all available tools
func (m *LinearModule) Tools() []modules.Tool {
	return toolDefinitions
}

// ExecuteTool executes a tool by name and returns JSON response
func (m *LinearModule) ExecuteTool(ctx context.Context, name string, params map[string]any) (string, error) {
	handler, ok := toolHandlers[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return handler(ctx, params)
}

// ToCompact converts JSON result to compact format.
// Implements modules.CompactConverter interface
func (m *LinearModule) ToCompact(toolName string, jsonResult string) string {
	return formatCompact(toolName, jsonResult)
}

// Resources returns all available resources (none for Linear)
func (m *LinearModule) Resources() []modules.Resource {
	return nil
}

// ReadResource reads a resource by URI (not implemented)
func (m *LinearModule) ReadResource(ctx context.Context, uri string) (string, error) {
	return "", fmt.Errorf("resources not supported")
}

// =============================================================================
// Client helper
// =============================================================================

// newClient builds a Linear client for the current request.
// Overridable so handler tests can point at a local server.
var newClient = clientFromContext

// clientFromContext resolves credentials for the current request. Hosted mode
// resolves the user's OAuth token through the broker; single-user
// deployments fall back to LINEAR_ACCESS_TOKEN.
func clientFromContext(ctx context.Context) (*linearapi.Client, error) {
	if authCtx := middleware.GetAuthContext(ctx); authCtx != nil {
		creds, err := broker.GetTokenBroker().GetModuleToken(ctx, authCtx.UserID, "linear")
		if err == nil && creds != nil && creds.AccessToken != "" {
			return linearapi.NewClient(creds.AccessToken), nil
		}
	}
	if token := os.Getenv("LINEAR_ACCESS_TOKEN"); token != "" {
		return linearapi.NewClient(token), nil
	}
	return nil, errors.New("no Linear credentials available")
}

var toJSON = modules.ToJSON

// =============================================================================
// Param helpers
// =============================================================================
// MCP params arrive as decoded JSON, so the same coercion kit that handles
// GraphQL responses handles tool inputs.

func strParam(params map[string]any, key string) string {
	return linearapi.Str(params[key], "")
}

func intParam(params map[string]any, key string, def int) int {
	return linearapi.Int(params[key], def)
}

func boolParam(params map[string]any, key string) bool {
	return linearapi.Bool(params[key], false)
}

// optParam reports whether an optional param was provided (present, non-nil).
func optParam(params map[string]any, key string) (any, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// setOptStr copies an optional string param into a mutation input under the
// GraphQL field name.
func setOptStr(input map[string]any, params map[string]any, param, field string) {
	if v, ok := optParam(params, param); ok {
		input[field] = linearapi.Str(v, "")
	}
}

// setOptInt copies an optional integer param into a mutation input.
func setOptInt(input map[string]any, params map[string]any, param, field string) {
	if v, ok := optParam(params, param); ok {
		input[field] = linearapi.Int(v, 0)
	}
}

// filterParam reads the opaque GraphQL filter argument. Objects pass through
// untouched; stringified JSON (common from LLM callers) is checked with jx
// and decoded. The filter is never interpreted, only forwarded.
func filterParam(params map[string]any, key string) (map[string]any, error) {
	v, ok := optParam(params, key)
	if !ok {
		return nil, nil
	}
	switch f := v.(type) {
	case map[string]any:
		return f, nil
	case string:
		if !jx.Valid([]byte(f)) {
			return nil, errors.Errorf("parameter %q is not valid JSON", key)
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(f), &out); err != nil {
			return nil, errors.Wrapf(err, "parameter %q", key)
		}
		return out, nil
	default:
		return nil, errors.Errorf("parameter %q must be an object or a JSON string", key)
	}
}

// dataObject unwraps a successful dispatch into its top-level object.
func dataObject(res linearapi.Result, failMsg string) (map[string]any, error) {
	if !res.Success {
		if res.Error != "" {
			return nil, errors.New(res.Error)
		}
		return nil, errors.New(failMsg)
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		return nil, errors.New("Unexpected response")
	}
	return data, nil
}

// mutationPayload unwraps a mutation payload and checks its success flag.
func mutationPayload(data map[string]any, field, failMsg string) (map[string]any, error) {
	payload, ok := data[field].(map[string]any)
	if !ok || !linearapi.Bool(payload["success"], false) {
		return nil, errors.New(failMsg)
	}
	return payload, nil
}

// =============================================================================
// Tool registry
// =============================================================================

type toolHandler func(ctx context.Context, params map[string]any) (string, error)

// Definitions and handlers live next to their queries in the per-entity
// files; this is the merged surface the Module interface serves.

var toolDefinitions = concatTools(
	issueTools,
	commentTools,
	projectTools,
	cycleTools,
	teamTools,
	userTools,
	labelTools,
	searchTools,
	attachmentTools,
	contextTools,
)

var toolHandlers = mergeHandlers(
	issueHandlers,
	commentHandlers,
	projectHandlers,
	cycleHandlers,
	teamHandlers,
	userHandlers,
	labelHandlers,
	searchHandlers,
	attachmentHandlers,
	contextHandlers,
)

func concatTools(groups ...[]modules.Tool) []modules.Tool {
	var out []modules.Tool
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func mergeHandlers(groups ...map[string]toolHandler) map[string]toolHandler {
	out := make(map[string]toolHandler)
	for _, g := range groups {
		for name, h := range g {
			out[name] = h
		}
	}
	return out
}
