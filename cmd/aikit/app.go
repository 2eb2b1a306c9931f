package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
	"github.com/go-kratos/aikit/contrib/google"
	"github.com/go-kratos/aikit/contrib/mcp"
	"github.com/go-kratos/aikit/contrib/openai"
	"github.com/go-kratos/aikit/contrib/otel"
	"github.com/go-kratos/aikit/internal/config"
	"github.com/go-kratos/aikit/middleware"
	"github.com/go-kratos/aikit/sola"
	"github.com/go-kratos/kit/retry"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// capabilityTimeout bounds a single capability execution.
const capabilityTimeout = 60 * time.Second

type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	engine  *aikit.Engine[sola.Context]
	context sola.Context
	clients []*mcp.Client
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, newLogger(cfg.Log.Level, cfg.Log.Format), nil
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	client, err := sola.NewClient(cfg.Sola.Config, sola.WithLogger(logger.With().Str("component", "sola").Logger()))
	if err != nil {
		return nil, err
	}
	a.context = sola.Context{
		WalletPublicKey: cfg.Sola.WalletPublicKey,
		AuthToken:       cfg.Sola.AuthToken,
		Client:          client,
	}

	builders := sola.Builders()
	for _, server := range cfg.MCP {
		b, err := a.connect(ctx, server)
		if err != nil {
			a.Close()
			return nil, err
		}
		builders = append(builders, b)
	}

	model, err := newModel(ctx, cfg.Provider, cfg.Provider.Model)
	if err != nil {
		a.Close()
		return nil, err
	}
	middlewares := []capability.Middleware{capability.Recover(), capability.Timeout(capabilityTimeout)}
	if cfg.Engine.Tracing {
		model = otel.Model(model, otel.WithSystem(cfg.Provider.Name))
		middlewares = append(middlewares, otel.Capability(otel.WithSystem(cfg.Provider.Name)))
	}
	opts := []aikit.Option{
		aikit.WithModel(model),
		aikit.WithInstructions(cfg.Engine.Instructions),
		aikit.WithManifest(cfg.Engine.Manifest),
		aikit.WithMaxRoundTrips(cfg.Engine.MaxRoundTrips),
		aikit.WithCapabilityMiddleware(middlewares...),
		aikit.WithLogger(logger),
	}
	if cfg.Engine.Orchestrate {
		var orchestration []aikit.OrchestratorOption
		if cfg.Engine.OrchestratorModel != "" {
			om, err := newModel(ctx, cfg.Provider, cfg.Engine.OrchestratorModel)
			if err != nil {
				a.Close()
				return nil, err
			}
			orchestration = append(orchestration, aikit.WithOrchestratorModel(om))
		}
		if cfg.Engine.OrchestratorPrompt != "" {
			orchestration = append(orchestration, aikit.WithOrchestratorPrompt(cfg.Engine.OrchestratorPrompt))
		}
		opts = append(opts, aikit.WithOrchestration(orchestration...))
	}
	a.engine, err = aikit.NewEngine(builders, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// connect exposes the tools of an MCP server as a capability group.
func (a *app) connect(ctx context.Context, server config.MCPServer) (capability.Builder[sola.Context], error) {
	client, err := mcp.NewClient(server.ClientConfig)
	if err != nil {
		return nil, fmt.Errorf("mcp server %s: %w", server.Name, err)
	}
	a.clients = append(a.clients, client)
	desc := capability.Descriptor{
		ID:          server.Name,
		Name:        server.Name,
		Description: server.Description,
	}
	if desc.Description == "" {
		desc.Description = fmt.Sprintf("Tools provided by the %s MCP server.", server.Name)
	}
	b, err := mcp.NewBuilder[sola.Context](ctx, desc, client)
	if err != nil {
		return nil, fmt.Errorf("mcp server %s: %w", server.Name, err)
	}
	a.logger.Debug().Str("server", server.Name).Msg("connected mcp server")
	return b, nil
}

// Close releases MCP sessions.
func (a *app) Close() {
	var errs []error
	for _, c := range a.clients {
		errs = append(errs, c.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close mcp clients")
	}
}

func newModel(ctx context.Context, cfg config.ProviderConfig, name string) (aikit.ModelProvider, error) {
	model, err := providerModel(ctx, cfg, name)
	if err != nil {
		return nil, err
	}
	return middleware.Retry(model, cfg.Attempts, retry.WithBackoff(retry.NewExponentialBackoff())), nil
}

func providerModel(ctx context.Context, cfg config.ProviderConfig, name string) (aikit.ModelProvider, error) {
	switch cfg.Name {
	case config.ProviderOpenAI:
		var reqOpts []option.RequestOption
		if cfg.APIKey != "" {
			reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
		}
		return openai.NewChatProvider(name,
			openai.WithTemperature(cfg.Temperature),
			openai.WithChatOptions(reqOpts...),
		), nil
	case config.ProviderGoogle:
		clientConfig := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
		if cfg.Project != "" {
			var err error
			clientConfig, err = google.VertexConfig(cfg.Project, cfg.Location, cfg.CredentialsFile)
			if err != nil {
				return nil, err
			}
		}
		return google.NewModel(ctx, name, clientConfig, google.WithTemperature(float32(cfg.Temperature)))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}
}
