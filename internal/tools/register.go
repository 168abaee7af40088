package tools

import (
	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

// All returns every tool in its canonical registration order. The backup
// config supplies defaults for the arango_backup tool.
func All(bcfg config.BackupConfig) []mcp.Tool {
	var out []mcp.Tool
	out = append(out, queryTools()...)
	out = append(out, collectionTools()...)
	out = append(out, documentTools()...)
	out = append(out, schemaTools()...)
	out = append(out, indexTools()...)
	out = append(out, graphTools()...)
	out = append(out, bulkTools()...)
	out = append(out, backupTools(bcfg)...)
	return out
}

// RegisterAll registers the full tool set on reg. It fails on the first
// duplicate name, which startup code treats as fatal.
func RegisterAll(reg *mcp.Registry, bcfg config.BackupConfig) error {
	for _, t := range All(bcfg) {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
