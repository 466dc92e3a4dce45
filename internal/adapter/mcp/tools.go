package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "sqlops-editdata"

// Tool descriptions
const (
	descStartSession = "Open an edit-data session for a single table and load the first page of rows. " +
		"Returns the session id needed by refresh_edit_session and set_row_count. " +
		"Only tables the operator policy marks editable can be opened."

	descStartSessionTable  = "Name of the table to edit"
	descStartSessionSchema = "Schema name (optional, defaults to the connection's search path)"

	descRefresh = "Re-run an edit session's query and replace the grid contents. " +
		"Pass sql to override the default query; the override must stay a single-table, " +
		"non-aggregated SELECT over the session's table or the refresh is rejected. " +
		"An empty sql reverts to the default SELECT * query."

	descRefreshSession = "Session id returned by start_edit_session"
	descRefreshSQL     = "Override SELECT statement (optional)"

	descSetRowCount = "Change how many rows the next refresh loads. " +
		"The value must be one of the configured row-count options (the grid's dropdown values)."

	descSetRowCountSession = "Session id returned by start_edit_session"
	descSetRowCountValue   = "New row count; must be one of the configured options"

	descValidate = "Check whether a SELECT statement has the restricted shape an edit session supports " +
		"(single table, no joins, no aggregation) without executing it. " +
		"Returns the violation kind and the user-facing message when the statement is rejected."

	descValidateSQL   = "Statement to check"
	descValidateTable = "Table the edit session is bound to"

	descEndSession = "Close an edit-data session and discard its grid contents."

	descEndSessionParam = "Session id returned by start_edit_session"
)

func RegisterTools(s *server.MCPServer, editData *service.EditDataService) {
	s.AddTool(
		mcp.NewTool("start_edit_session",
			mcp.WithDescription(descStartSession),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description(descStartSessionTable),
			),
			mcp.WithString("schema",
				mcp.Description(descStartSessionSchema),
			),
		),
		startSessionHandler(editData),
	)

	s.AddTool(
		mcp.NewTool("refresh_edit_session",
			mcp.WithDescription(descRefresh),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description(descRefreshSession),
			),
			mcp.WithString("sql",
				mcp.Description(descRefreshSQL),
			),
		),
		refreshHandler(editData),
	)

	s.AddTool(
		mcp.NewTool("set_row_count",
			mcp.WithDescription(descSetRowCount),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description(descSetRowCountSession),
			),
			mcp.WithNumber("row_count",
				mcp.Required(),
				mcp.Description(descSetRowCountValue),
			),
		),
		setRowCountHandler(editData),
	)

	s.AddTool(
		mcp.NewTool("validate_statement",
			mcp.WithDescription(descValidate),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descValidateSQL),
			),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description(descValidateTable),
			),
		),
		validateHandler(editData),
	)

	s.AddTool(
		mcp.NewTool("end_edit_session",
			mcp.WithDescription(descEndSession),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description(descEndSessionParam),
			),
		),
		endSessionHandler(editData),
	)
}

// startResult bundles the session info with its first refresh.
type startResult struct {
	Session *service.SessionInfo   `json:"session"`
	Refresh *service.RefreshResult `json:"refresh"`
}

func startSessionHandler(editData *service.EditDataService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, ok := request.GetArguments()["table"].(string)
		if !ok || table == "" {
			return mcp.NewToolResultError("table is required"), nil
		}

		schema, _ := request.GetArguments()["schema"].(string)

		info, refresh, err := editData.Start(ctx, schema, table)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to start edit session: %v", err)), nil
		}

		data, err := json.Marshal(startResult{Session: info, Refresh: refresh})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func refreshHandler(editData *service.EditDataService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, ok := request.GetArguments()["session"].(string)
		if !ok || session == "" {
			return mcp.NewToolResultError("session is required"), nil
		}

		sql, _ := request.GetArguments()["sql"].(string)

		result, err := editData.Refresh(ctx, session, sql)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func setRowCountHandler(editData *service.EditDataService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, ok := request.GetArguments()["session"].(string)
		if !ok || session == "" {
			return mcp.NewToolResultError("session is required"), nil
		}

		rowCount, ok := request.GetArguments()["row_count"].(float64)
		if !ok || rowCount <= 0 {
			return mcp.NewToolResultError("row_count is required and must be positive"), nil
		}

		info, err := editData.SetRowCount(ctx, session, int(rowCount))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set row count: %v", err)), nil
		}

		data, err := json.Marshal(info)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

// validateResult is the JSON shape of a validate_statement response.
type validateResult struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func validateHandler(editData *service.EditDataService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok {
			return mcp.NewToolResultError("sql is required"), nil
		}

		table, ok := request.GetArguments()["table"].(string)
		if !ok || table == "" {
			return mcp.NewToolResultError("table is required"), nil
		}

		res := editData.Validate(sql, table)
		out := validateResult{
			Valid:   res.Valid(),
			Reason:  string(res.Reason),
			Message: res.Reason.Message(),
		}

		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func endSessionHandler(editData *service.EditDataService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, ok := request.GetArguments()["session"].(string)
		if !ok || session == "" {
			return mcp.NewToolResultError("session is required"), nil
		}

		if err := editData.End(ctx, session); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to end edit session: %v", err)), nil
		}

		return mcp.NewToolResultText(`{"ended":true}`), nil
	}
}
