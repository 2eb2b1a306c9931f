package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync"

	"github.com/go-kratos/aikit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client wraps the official MCP SDK client for a single server connection.
type Client struct {
	config  ClientConfig
	client  *mcp.Client
	mu      sync.Mutex
	session *mcp.ClientSession
}

// NewClient creates a new MCP client.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "aikit",
		Version: aikit.Version,
	}, nil)
	return &Client{
		config: config,
		client: client,
	}, nil
}

// Connect establishes the connection to the MCP server. It is a no-op when
// already connected.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.connect(ctx)
	return err
}

func (c *Client) connect(ctx context.Context) (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	session, err := c.client.Connect(ctx, c.transport(), nil)
	if err != nil {
		return nil, fmt.Errorf("mcp [%s] connect: %w", c.config.Name, err)
	}
	c.session = session
	return session, nil
}

func (c *Client) transport() mcp.Transport {
	if c.config.Conn != nil {
		return c.config.Conn
	}
	if c.config.Transport == TransportStdio {
		cmd := exec.Command(c.config.Command, c.config.Args...)
		if len(c.config.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range c.config.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}
		cmd.Dir = c.config.WorkDir
		return &mcp.CommandTransport{Command: cmd}
	}
	transport := &mcp.StreamableClientTransport{Endpoint: c.config.Endpoint}
	if len(c.config.Headers) > 0 {
		transport.HTTPClient = &http.Client{
			Transport: withHeaders(http.DefaultTransport, c.config.Headers),
		}
	}
	return transport
}

// ListTools lists all available tools from the server.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	result, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp [%s] list_tools: %w", c.config.Name, err)
	}
	return result.Tools, nil
}

// CallTool calls a tool on the server with raw JSON arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	if len(arguments) == 0 {
		arguments = json.RawMessage("{}")
	}
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp [%s] call_tool: %w", c.config.Name, err)
	}
	return result, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	if err != nil {
		return fmt.Errorf("mcp [%s] close: %w", c.config.Name, err)
	}
	return nil
}
