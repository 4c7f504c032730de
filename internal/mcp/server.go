// Package mcp provides an MCP (Model Context Protocol) server exposing
// wcimg analyses of cluster graph files as tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/wcimg/internal/config"
	"github.com/nvandessel/wcimg/internal/logging"
	"github.com/nvandessel/wcimg/internal/metrics"
	"github.com/nvandessel/wcimg/internal/ratelimit"
)

// Server wraps the MCP SDK server and the analysis parameters.
type Server struct {
	server      *sdk.Server
	params      *config.Params
	roots       []string
	logger      *slog.Logger
	decisions   *logging.DecisionLogger
	metrics     *metrics.Registry
	auditLogger *AuditLogger
	limits      ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "wcimg")
	Version string // Server version
	// Roots are the directories tool calls may read from. Relative tool
	// paths resolve against Roots[0].
	Roots  []string
	Params *config.Params
	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir  string
	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
	Metrics   *metrics.Registry
	// Limits throttles tool calls. Nil uses ratelimit.NewToolLimiters;
	// an empty map disables throttling.
	Limits ratelimit.ToolLimiters
}

// NewServer creates a new MCP server with wcimg tools.
func NewServer(cfg *Config) (*Server, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("at least one data root is required")
	}
	if cfg.Params == nil {
		return nil, fmt.Errorf("analysis parameters are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:    mcpServer,
		params:    cfg.Params,
		roots:     cfg.Roots,
		logger:    logger,
		decisions: cfg.Decisions,
		metrics:   cfg.Metrics,
		limits:    cfg.Limits,
	}
	if s.limits == nil {
		s.limits = ratelimit.NewToolLimiters()
	}
	if cfg.AuditDir != "" {
		audit, err := NewAuditLogger(cfg.AuditDir)
		if err != nil {
			logger.Warn("audit log disabled", "error", err)
		}
		s.auditLogger = audit
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log. It is safe to call more than once.
func (s *Server) Close() error {
	err := s.auditLogger.Close()
	s.auditLogger = nil
	return err
}
