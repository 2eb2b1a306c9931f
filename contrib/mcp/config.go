package mcp

import (
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TransportType defines the communication method for MCP servers.
type TransportType string

const (
	// TransportStdio uses standard input/output for communication.
	TransportStdio TransportType = "stdio"
	// TransportHTTP uses streamable HTTP for communication.
	TransportHTTP TransportType = "http"
)

// DefaultTimeout bounds every MCP request when ClientConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// ClientConfig configures an MCP server connection.
type ClientConfig struct {
	// Name is the unique identifier for the MCP server.
	Name string `mapstructure:"name" yaml:"name"`
	// Transport specifies the communication method.
	Transport TransportType `mapstructure:"transport" yaml:"transport"`
	// Command is the executable to run for stdio servers.
	Command string `mapstructure:"command" yaml:"command"`
	// Args are the command arguments.
	Args []string `mapstructure:"args" yaml:"args"`
	// Env contains environment variables for the subprocess.
	Env map[string]string `mapstructure:"env" yaml:"env"`
	// WorkDir is the working directory for the subprocess.
	WorkDir string `mapstructure:"workdir" yaml:"workdir"`
	// Endpoint is the MCP server URL for HTTP servers.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
	// Timeout is the request timeout duration.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Conn, when set, is used as the transport as-is.
	Conn mcp.Transport `mapstructure:"-" yaml:"-"`
}

// validate checks if the configuration is valid.
func (c *ClientConfig) validate() error {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Conn != nil {
		return nil
	}
	switch c.Transport {
	case TransportStdio:
		if c.Command == "" {
			return fmt.Errorf("%w: command is required for stdio transport", ErrInvalidConfig)
		}
	case TransportHTTP:
		if c.Endpoint == "" {
			return fmt.Errorf("%w: endpoint is required for http transport", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported transport type: %q", ErrInvalidConfig, c.Transport)
	}
	return nil
}
