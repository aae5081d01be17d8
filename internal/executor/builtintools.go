package executor

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewBuiltinToolboxServer builds the stdio MCP server a foreign-provider
// agent's manifest points its sibling llm-connections entry at: the
// platform's own read/write/bash toolbox, exposed over MCP so a provider
// that cannot speak the native tool protocol still gets a working
// toolset instead of none at all.
func NewBuiltinToolboxServer() *server.MCPServer {
	s := server.NewMCPServer("anthropic-native-tools", "1.0.0")

	s.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read the contents of a file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the file, absolute or relative to the current working directory.")),
	), readFileHandler)

	s.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Write content to a file, creating or overwriting it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the file, absolute or relative to the current working directory.")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The full content to write.")),
	), writeFileHandler)

	s.AddTool(mcp.NewTool("bash",
		mcp.WithDescription("Run a shell command and return its combined stdout/stderr."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The command to run via `sh -c`.")),
		mcp.WithNumber("timeout_seconds", mcp.Description("Maximum time to allow the command to run. Defaults to 120.")),
	), bashHandler)

	return s
}

func readFileHandler(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func writeFileHandler(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("wrote " + path), nil
}

func bashHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timeout := 120 * time.Second
	if v, ok := request.GetArguments()["timeout_seconds"].(float64); ok && v > 0 {
		timeout = time.Duration(v) * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return mcp.NewToolResultError(err.Error() + "\n" + string(out)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
