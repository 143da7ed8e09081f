package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linearmcp/server/internal/middleware"
	"linearmcp/server/internal/observability"
)

// =============================================================================
// Registry
// =============================================================================

// registry holds all registered modules
var registry = make(map[string]Module)

// RegisterModule adds a module to the registry
func RegisterModule(m Module) {
	registry[m.Name()] = m
}

// GetModule returns a module by name
func GetModule(name string) (Module, bool) {
	m, ok := registry[name]
	return m, ok
}

// ListModules returns all registered module names
func ListModules() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// =============================================================================
// Flat Tool Exposure
// =============================================================================
// Tools are published to MCP clients under "<module>_<tool>" names
// (linear_get_issue, linear_create_comment, ...) so agents call typed tools
// directly instead of going through a generic run meta-tool.

// ExposedName returns the MCP-visible name for a module tool.
func ExposedName(moduleName, toolName string) string {
	return moduleName + "_" + toolName
}

// ResolveTool splits an MCP tool name back into module and tool.
// Returns false when no registered module owns the name.
func ResolveTool(mcpName string) (moduleName, toolName string, ok bool) {
	for name := range registry {
		prefix := name + "_"
		if strings.HasPrefix(mcpName, prefix) && len(mcpName) > len(prefix) {
			return name, mcpName[len(prefix):], true
		}
	}
	return "", "", false
}

// AllTools returns every registered tool with its MCP-visible name,
// filtered by the user's enabled tools when a whitelist is present.
func AllTools(enabledTools map[string][]string) []Tool {
	var out []Tool
	for name, m := range registry {
		for _, t := range filterTools(name, m.Tools(), enabledTools) {
			t.Name = ExposedName(name, t.Name)
			out = append(out, t)
		}
	}
	return out
}

// filterTools returns tools that are enabled for a given module (whitelist approach).
// If enabledTools is nil (no auth context), all tools are returned.
func filterTools(moduleName string, tools []Tool, enabledTools map[string][]string) []Tool {
	if enabledTools == nil {
		return tools
	}
	enabled, ok := enabledTools[moduleName]
	if !ok {
		return nil // No tools enabled for this module
	}
	enabledSet := make(map[string]bool, len(enabled))
	for _, t := range enabled {
		enabledSet[t] = true
	}
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if enabledSet[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// =============================================================================
// Tool Execution
// =============================================================================

// toolTimeout is the maximum duration for a single tool execution.
const toolTimeout = 30 * time.Second

// Run executes a single tool in a module
func Run(ctx context.Context, moduleName, toolName string, params map[string]interface{}) (*ToolCallResult, error) {
	start := time.Now()

	m, ok := registry[moduleName]
	if !ok {
		return &ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Unknown module: %s", moduleName)}},
			IsError: true,
		}, nil
	}

	// Validate params against tool's InputSchema
	if tool, found := findTool(m.Tools(), toolName); found {
		validated, err := ValidateParams(tool.InputSchema, params)
		if err != nil {
			return &ToolCallResult{
				Content: []ContentBlock{{Type: "text", Text: err.Error()}},
				IsError: true,
			}, nil
		}
		params = validated
	}

	// Apply timeout to prevent external API calls from hanging indefinitely
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	result, err := m.ExecuteTool(ctx, toolName, params)
	durationMs := time.Since(start).Milliseconds()
	requestID := middleware.GetRequestID(ctx)
	authCtx := middleware.GetAuthContext(ctx)
	userID := ""
	if authCtx != nil {
		userID = authCtx.UserID
	}

	if err != nil {
		errMsg := err.Error()
		if ctx.Err() == context.DeadlineExceeded {
			errMsg = fmt.Sprintf("Request to %s timed out after %s. The external service did not respond in time.", moduleName, toolTimeout)
		}
		observability.LogToolCall(requestID, userID, moduleName, toolName, durationMs, "error", errMsg)
		observability.RecordToolCall(ctx, moduleName, toolName, "error", durationMs)
		return &ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: errMsg}},
			IsError: true,
		}, nil
	}

	observability.LogToolCall(requestID, userID, moduleName, toolName, durationMs, "success", "")
	observability.RecordToolCall(ctx, moduleName, toolName, "success", durationMs)
	return &ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: result}},
	}, nil
}

// ApplyCompact converts a JSON result to compact format for a given module and tool.
// Returns the original JSON if the module has no CompactConverter.
func ApplyCompact(moduleName, toolName, jsonResult string) string {
	m, ok := registry[moduleName]
	if !ok {
		return jsonResult
	}
	if converter, ok := m.(CompactConverter); ok {
		return converter.ToCompact(toolName, jsonResult)
	}
	return jsonResult
}
