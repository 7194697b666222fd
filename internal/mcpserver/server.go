package mcpserver

import (
	"context"
	"log/slog"

	"llm-chat-client/internal/processor"
	"llm-chat-client/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolInvoke is the name of the single tool this server exposes
const ToolInvoke = "invoke"

// InvokeInput is the argument of the invoke tool
type InvokeInput struct {
	Prompt string `json:"prompt" jsonschema:"the prompt to send to the model"`
}

// InvokeOutput is the structured result of the invoke tool
type InvokeOutput struct {
	Text  string `json:"text" jsonschema:"the model's reply"`
	Model string `json:"model" jsonschema:"the model that produced the reply"`
}

// New builds an MCP server exposing the chat client as a tool
func New(proc *processor.Processor, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "llm-chat-client", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolInvoke,
		Description: "Send a single prompt to the configured chat model and return its reply",
	}, invokeHandler(proc))

	return server
}

func invokeHandler(proc *processor.Processor) mcp.ToolHandlerFor[InvokeInput, InvokeOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in InvokeInput) (*mcp.CallToolResult, InvokeOutput, error) {
		resp, err := proc.Process(ctx, in.Prompt)
		if err != nil {
			slog.Info("mcp invoke failed", "kind", types.Kind(err), "error", err)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: types.Describe(err)}},
			}, InvokeOutput{}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: resp.Text}},
		}, InvokeOutput{Text: resp.Text, Model: resp.Model}, nil
	}
}

// ServeStdio runs the server over stdin/stdout until ctx is done or the client disconnects
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	slog.Info("mcp server starting", "transport", "stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}
