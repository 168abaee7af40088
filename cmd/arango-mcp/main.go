// cmd/arango-mcp is the entry point for the ArangoDB MCP (Model Context
// Protocol) server.
//
// Startup sequence:
//  1. Load configuration from environment variables (plus optional YAML file).
//  2. Register the tool set; a duplicate tool name aborts startup.
//  3. Try to connect to ArangoDB with the bounded retry loop. Exhaustion is
//     absorbed: the server starts degraded and reconnects on demand.
//  4. Create the MCP server over the registry and connection manager.
//  5. Serve JSON-RPC 2.0 over stdio (default) or HTTP, per configuration.
//
// CRITICAL: ALL logging MUST go to stderr.  Any bytes written to stdout that
// are not valid JSON-RPC 2.0 response frames will corrupt the protocol.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
	"github.com/PCfVW/mcp-arangodb-async/internal/arango"
	"github.com/PCfVW/mcp-arangodb-async/internal/audit"
	"github.com/PCfVW/mcp-arangodb-async/internal/config"
	"github.com/PCfVW/mcp-arangodb-async/internal/tools"
)

func main() {
	// Redirect the default logger to stderr so that any incidental log calls
	// (e.g. from imported packages) never pollute the stdout JSON-RPC stream.
	log.SetOutput(os.Stderr)
	log.SetPrefix("arango-mcp: ")
	log.SetFlags(log.LstdFlags)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Populate the tool registry. A duplicate name is a programming error
	// and must never reach the serving phase.
	registry := mcp.NewRegistry()
	if err := tools.RegisterAll(registry, cfg.Backup); err != nil {
		log.Fatalf("failed to register tools: %v", err)
	}
	log.Printf("registered %d tools", registry.Len())

	// Set up a root context that is cancelled on SIGINT / SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	// Connect to ArangoDB. Exhausting the retry loop does not kill the
	// process: discovery still works and database-backed tools report
	// DatabaseUnavailable until a later reconnect succeeds.
	manager := arango.NewManager(cfg.Arango, cfg.Reconnect)
	if err := manager.Initialize(ctx); err != nil {
		log.Printf("starting degraded: %v", err)
	}
	defer manager.Shutdown()

	srvOpts := []mcp.ServerOption{
		mcp.WithConnection(manager),
	}
	if len(cfg.Tools.Allowed) > 0 {
		srvOpts = append(srvOpts, mcp.WithAllowedTools(cfg.Tools.Allowed))
		log.Printf("tool allow-list active: %d of %d tools exposed", len(cfg.Tools.Allowed), registry.Len())
	}
	if cfg.Audit.Enabled {
		trail, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			log.Fatalf("failed to open audit database at %q: %v", cfg.Audit.Path, err)
		}
		defer trail.Close()
		srvOpts = append(srvOpts, mcp.WithAuditRecorder(trail))
		log.Printf("audit trail: %s", cfg.Audit.Path)
	}
	srv := mcp.NewServer(registry, srvOpts...)

	switch cfg.Server.Transport {
	case "http":
		transport := mcp.NewHTTPTransport(srv, cfg.Server.HTTPAddr,
			mcp.WithHealthStatus(func() (bool, interface{}) {
				status := manager.Status()
				return status.Connected, status
			}))
		if err := transport.Serve(ctx); err != nil {
			log.Printf("transport stopped: %v", err)
		}
	default:
		transport := mcp.NewStdioTransport(srv, os.Stdin, os.Stdout)
		log.Println("ready: serving JSON-RPC 2.0 on stdin/stdout")
		if err := transport.Serve(ctx); err != nil {
			// A non-nil error here is normal (context cancellation) or
			// indicates a fatal stdin/stdout problem.  Either way it is
			// informational only.
			log.Printf("transport stopped: %v", err)
		}
	}
}
