package executor

import (
	"context"
	"fmt"

	gomcp "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// TaskClient is a thin stdio MCP client bound to one child agent process,
// used by the foreign-provider bridge (which cannot speak the native tool
// protocol) to invoke a connected agent's `task` tool directly.
type TaskClient struct {
	client *gomcp.Client
}

// DialTaskServer launches command as a child process and completes the
// MCP initialize handshake against its stdio transport.
func DialTaskServer(ctx context.Context, command string, args []string, env map[string]string) (*TaskClient, error) {
	envPairs := make([]string, 0, len(env))
	for k, v := range env {
		envPairs = append(envPairs, k+"="+v)
	}

	trans := transport.NewStdio(command, envPairs, args...)
	c := gomcp.NewClient(trans)

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start task server %s: %w", command, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "swarm-executor", Version: "1.0.0"}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize task server %s: %w", command, err)
	}

	return &TaskClient{client: c}, nil
}

// Task invokes the peer's `task` tool with prompt and returns its text
// payload.
func (t *TaskClient) Task(ctx context.Context, prompt string) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = taskToolName
	req.Params.Arguments = map[string]interface{}{"prompt": prompt}

	result, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("task call failed: %w", err)
	}
	if result.IsError {
		return "", fmt.Errorf("task call returned an error result")
	}

	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text, nil
		}
	}
	return "", fmt.Errorf("task call returned no text content")
}

// Close terminates the child process and its transport.
func (t *TaskClient) Close() error {
	return t.client.Close()
}
