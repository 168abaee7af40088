package tools

import (
	"context"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
	"github.com/PCfVW/mcp-arangodb-async/internal/backup"
	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

func backupTools(bcfg config.BackupConfig) []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_backup",
			Description: "Export collections as JSON files into a timestamped directory and return a report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Base directory for the backup (parent references are rejected)",
					},
					"collections": map[string]interface{}{
						"type":        "array",
						"description": "Collections to export; empty means every non-system collection",
					},
					"doc_limit": map[string]interface{}{
						"type":        "integer",
						"description": "Per-collection document cap, 0 means unlimited",
						"default":     0,
					},
				},
			},
			Handler:            backupHandler(bcfg),
			RequiresConnection: true,
		},
	}
}

func backupHandler(bcfg config.BackupConfig) mcp.Handler {
	return func(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
		outputDir := stringArg(args, "output_dir")
		if outputDir == "" {
			outputDir = bcfg.OutputDir
		}
		docLimit := intArg(args, "doc_limit", bcfg.DocLimit)

		svc := backup.NewService(backup.NewArangoSource(db))
		report, err := svc.Run(ctx, backup.Options{
			OutputDir:   outputDir,
			Collections: stringSliceArg(args, "collections"),
			DocLimit:    docLimit,
		})
		if err != nil {
			return nil, err
		}
		return report, nil
	}
}
