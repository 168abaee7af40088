// cmd/arango-mcp-audit prints the newest entries of the local tool-call
// audit trail. It reads the same database the MCP server writes when
// auditing is enabled, so operators can review what a client did without
// touching the server process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/PCfVW/mcp-arangodb-async/internal/audit"
	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("arango-mcp-audit: ")
	log.SetFlags(log.LstdFlags)

	var (
		dbPath = flag.String("db", "", "audit database file (default from config)")
		limit  = flag.Int("limit", 50, "maximum number of entries to print")
		asJSON = flag.Bool("json", false, "print entries as a JSON array")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	path := cfg.Audit.Path
	if *dbPath != "" {
		path = *dbPath
	}
	if _, err := os.Stat(path); err != nil {
		log.Fatalf("audit database %s is not readable: %v", path, err)
	}

	logger, err := audit.Open(path)
	if err != nil {
		log.Fatalf("failed to open audit trail: %v", err)
	}
	defer logger.Close()

	records, err := logger.Recent(context.Background(), *limit)
	if err != nil {
		log.Fatalf("failed to read audit trail: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			log.Fatalf("failed to encode records: %v", err)
		}
		return
	}

	for _, r := range records {
		status := "ok"
		if !r.OK {
			status = "error"
			if r.ErrorKind != "" {
				status = "error/" + r.ErrorKind
			}
		}
		fmt.Printf("%s  %-30s %-24s %6dms\n",
			r.CalledAt.Format("2006-01-02 15:04:05"), r.Tool, status, r.Duration)
	}
}
