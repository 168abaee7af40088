// cmd/arango-mcp-backup is a one-shot CLI that exports collections from the
// configured ArangoDB database into a timestamped directory of JSON files.
// It shares the connection settings and backup service with the MCP server,
// so a backup taken here is identical to one taken through the
// arango_backup tool.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PCfVW/mcp-arangodb-async/internal/arango"
	"github.com/PCfVW/mcp-arangodb-async/internal/backup"
	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("arango-mcp-backup: ")
	log.SetFlags(log.LstdFlags)

	var (
		outputDir   = flag.String("output", "", "base output directory (default from config)")
		collections = flag.String("collections", "", "comma-separated collection names; empty means all non-system")
		docLimit    = flag.Int("limit", 0, "per-collection document cap, 0 means unlimited")
		timeout     = flag.Duration("timeout", 10*time.Minute, "overall timeout for the backup run")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	_, db, err := arango.Connect(ctx, cfg.Arango)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}

	opts := backup.Options{
		OutputDir: cfg.Backup.OutputDir,
		DocLimit:  cfg.Backup.DocLimit,
	}
	if *outputDir != "" {
		opts.OutputDir = *outputDir
	}
	if *docLimit > 0 {
		opts.DocLimit = *docLimit
	}
	if *collections != "" {
		for _, name := range strings.Split(*collections, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Collections = append(opts.Collections, name)
			}
		}
	}

	svc := backup.NewService(backup.NewArangoSource(db))
	report, err := svc.Run(ctx, opts)
	if err != nil {
		log.Fatalf("backup failed: %v", err)
	}

	log.Printf("backup %s complete: %d collections, %d documents -> %s",
		report.ID, len(report.Collections), report.TotalDocs, report.Directory)
}
