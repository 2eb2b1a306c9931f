package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewBuilder lists the tools exposed by client and returns a builder whose
// group holds one capability per tool. The tool list is fetched once; the
// runtime context is not used by remote tools.
func NewBuilder[C any](ctx context.Context, desc capability.Descriptor, client *Client) (capability.Builder[C], error) {
	tools, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	caps := make([]*capability.Capability, 0, len(tools))
	for _, tool := range tools {
		c, err := toCapability(client, tool)
		if err != nil {
			return nil, fmt.Errorf("mcp: convert tool %q: %w", tool.Name, err)
		}
		caps = append(caps, c)
	}
	return capability.BuilderFunc[C](func(C) (*capability.Group, error) {
		return capability.NewGroup(desc, caps...), nil
	}), nil
}

func toCapability(client *Client, tool *mcp.Tool) (*capability.Capability, error) {
	schema, err := convertSchema(tool.InputSchema)
	if err != nil {
		return nil, err
	}
	name := tool.Name
	return &capability.Capability{
		Name:        name,
		Description: tool.Description,
		Parameters:  schema,
		Handler: capability.HandleFunc(func(ctx context.Context, args string) capability.Result {
			result, err := client.CallTool(ctx, name, json.RawMessage(args))
			if err != nil {
				return capability.Failure(err.Error())
			}
			return toResult(result)
		}),
	}, nil
}

// convertSchema converts an MCP input schema to a jsonschema.Schema.
func convertSchema(mcpSchema any) (*jsonschema.Schema, error) {
	if mcpSchema == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	b, err := json.Marshal(mcpSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &schema, nil
}

// toResult maps an MCP tool result to a capability result.
func toResult(result *mcp.CallToolResult) capability.Result {
	var text strings.Builder
	for _, content := range result.Content {
		if v, ok := content.(*mcp.TextContent); ok {
			text.WriteString(v.Text)
		}
	}
	if result.IsError {
		if text.Len() == 0 {
			return capability.Failure(ErrToolFailed.Error())
		}
		return capability.Failuref("%s: %s", ErrToolFailed, text.String())
	}
	if result.StructuredContent != nil {
		return capability.Success(result.StructuredContent)
	}
	return capability.Success(text.String())
}
