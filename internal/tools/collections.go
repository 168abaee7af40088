package tools

import (
	"context"
	"strings"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func collectionTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_list_collections",
			Description: "List collections in the database. System collections are hidden unless requested.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_system": map[string]interface{}{
						"type":        "boolean",
						"description": "Include system collections (names starting with _)",
						"default":     false,
					},
				},
			},
			Handler:            handleListCollections,
			RequiresConnection: true,
		},
		{
			Name:        "arango_create_collection",
			Description: "Create a document or edge collection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Collection name",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Collection kind",
						"enum":        []interface{}{"document", "edge"},
						"default":     "document",
					},
					"wait_for_sync": map[string]interface{}{
						"type":        "boolean",
						"description": "Force synchronization to disk on every write",
						"default":     false,
					},
				},
				"required": []string{"name"},
			},
			Handler:            handleCreateCollection,
			RequiresConnection: true,
		},
	}
}

func handleListCollections(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	includeSystem := boolArg(args, "include_system")

	cols, err := db.Collections(ctx)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, c := range cols {
		if !includeSystem && strings.HasPrefix(c.Name(), "_") {
			continue
		}
		names = append(names, c.Name())
	}

	return map[string]interface{}{
		"collections": names,
		"count":       len(names),
	}, nil
}

func handleCreateCollection(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	name := stringArg(args, "name")
	kind := stringArg(args, "type")

	exists, err := db.CollectionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return map[string]interface{}{
			"name":    name,
			"created": false,
		}, nil
	}

	opts := &driver.CreateCollectionOptions{
		WaitForSync: boolArg(args, "wait_for_sync"),
	}
	if kind == "edge" {
		opts.Type = driver.CollectionTypeEdge
	}

	if _, err := db.CreateCollection(ctx, name, opts); err != nil {
		return nil, err
	}

	if kind == "" {
		kind = "document"
	}
	return map[string]interface{}{
		"name":    name,
		"type":    kind,
		"created": true,
	}, nil
}
