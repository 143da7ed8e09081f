package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"linearmcp/server/internal/broker"
	"linearmcp/server/internal/jsonrpc"
	"linearmcp/server/internal/middleware"
	"linearmcp/server/internal/modules"
	"linearmcp/server/internal/observability"
)

type Handler struct {
	userStore *broker.UserBroker
}

func NewHandler(userStore *broker.UserBroker) *Handler {
	return &Handler{
		userStore: userStore,
	}
}

// ProcessRequest routes a JSON-RPC request to the appropriate handler.
// Called by the transport middleware.
func (h *Handler) ProcessRequest(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(req), nil
	case "initialized", "notifications/initialized":
		return nil, nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return h.handleToolsList(ctx)
	case "tools/call":
		return h.handleToolCall(ctx, req)
	default:
		return nil, &jsonrpc.Error{Code: MethodNotFound, Message: "Method not found"}
	}
}

func (h *Handler) handleInitialize(req *jsonrpc.Request) *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: "2025-03-26",
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    "linear-mcp",
			Version: "0.1.0",
		},
	}
}

// handleToolsList returns the flattened tool surface. Each module tool is
// exposed under its prefixed MCP name, filtered by the user's whitelist.
func (h *Handler) handleToolsList(ctx context.Context) (*ToolsListResult, *jsonrpc.Error) {
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		return nil, &jsonrpc.Error{Code: InternalError, Message: "auth context missing"}
	}
	return &ToolsListResult{Tools: modules.AllTools(authCtx.EnabledTools)}, nil
}

func (h *Handler) handleToolCall(ctx context.Context, req *jsonrpc.Request) (*ToolCallResult, *jsonrpc.Error) {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "Invalid params"}
	}

	var params ToolCallParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "Invalid params structure"}
	}

	moduleName, toolName, ok := modules.ResolveTool(params.Name)
	if !ok {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: fmt.Sprintf("Unknown tool: %s", params.Name)}
	}

	args := params.Arguments
	if args == nil {
		args = make(map[string]interface{})
	}

	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		return nil, &jsonrpc.Error{Code: InternalError, Message: "auth context missing"}
	}

	if err := authCtx.CanAccessTool(moduleName, toolName, 1); err != nil {
		observability.LogSecurityEvent(middleware.GetRequestID(ctx), authCtx.UserID, "tool_permission_denied", map[string]any{
			"module": moduleName,
			"tool":   toolName,
			"reason": err.Error(),
		})
		return nil, authErrorToRPC(err)
	}

	result, err := modules.Run(ctx, moduleName, toolName, args)
	if err != nil {
		return nil, &jsonrpc.Error{Code: InternalError, Message: err.Error()}
	}

	// Apply compact format unless format=json is explicitly requested
	if !result.IsError {
		if f, _ := args["format"].(string); f != "json" {
			result.Content[0].Text = modules.ApplyCompact(moduleName, toolName, result.Content[0].Text)
		}
	}

	// Record usage asynchronously (fire-and-forget)
	h.userStore.RecordUsage(
		authCtx.UserID,
		"tools/call",
		middleware.GetRequestID(ctx),
		[]broker.ToolDetail{{Module: moduleName, Tool: toolName}},
	)

	return result, nil
}

// authErrorToRPC maps middleware.AuthError to the appropriate JSON-RPC error code.
func authErrorToRPC(err error) *jsonrpc.Error {
	authErr, ok := err.(*middleware.AuthError)
	if !ok {
		return &jsonrpc.Error{Code: InternalError, Message: err.Error()}
	}
	switch authErr.Code {
	case "USAGE_LIMIT_EXCEEDED":
		return &jsonrpc.Error{Code: ErrUsageLimitExceeded, Message: authErr.Message}
	case "MODULE_NOT_ENABLED", "TOOL_DISABLED":
		return &jsonrpc.Error{Code: ErrPermissionDenied, Message: authErr.Message}
	default:
		return &jsonrpc.Error{Code: InternalError, Message: authErr.Message}
	}
}
