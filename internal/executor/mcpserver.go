package executor

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// taskToolName is the single tool every executor's MCP server exposes.
// A peer's call to `mcp__<agent>.task` becomes a prompt sent to that
// agent's executor, which is what makes delegation work.
const taskToolName = "task"

// NewMCPServer builds the stdio MCP server for exec: a single `task`
// tool with input schema { prompt: string } that forwards to
// exec.Execute and returns its text payload.
func NewMCPServer(name string, exec Executor) *server.MCPServer {
	s := server.NewMCPServer(name, "1.0.0")

	tool := mcp.NewTool(taskToolName,
		mcp.WithDescription("Delegate a task to agent "+name+"."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The prompt to send to this agent."),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := request.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := exec.Execute(ctx, prompt, CallOptions{})
		if err != nil {
			// ExecutionError is logged by the executor itself; surface it as
			// a tool error so the caller agent can react, never silently
			// swallowed.
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(result.Text), nil
	}

	s.AddTool(tool, handler)
	return s
}

// ServeStdio serves s on stdin/stdout until ctx is cancelled.
func ServeStdio(ctx context.Context, s *server.MCPServer) error {
	stdioSrv := server.NewStdioServer(s)
	return stdioSrv.Listen(ctx, os.Stdin, os.Stdout)
}
