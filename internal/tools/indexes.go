package tools

import (
	"context"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func indexTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_list_indexes",
			Description: "List the indexes of a collection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection name",
					},
				},
				"required": []string{"collection"},
			},
			Handler:            handleListIndexes,
			RequiresConnection: true,
		},
		{
			Name:        "arango_create_index",
			Description: "Create an index on a collection. Supports persistent, ttl, geo and fulltext indexes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection name",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Index kind",
						"enum":        []interface{}{"persistent", "ttl", "geo", "fulltext"},
					},
					"fields": map[string]interface{}{
						"type":        "array",
						"description": "Document fields covered by the index",
					},
					"unique": map[string]interface{}{
						"type":        "boolean",
						"description": "Enforce uniqueness (persistent only)",
						"default":     false,
					},
					"sparse": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip documents missing the indexed fields (persistent only)",
						"default":     false,
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Optional index name",
					},
					"expire_after": map[string]interface{}{
						"type":        "integer",
						"description": "Seconds until expiry (ttl only)",
						"default":     0,
					},
					"min_length": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum word length (fulltext only)",
						"default":     0,
					},
				},
				"required": []string{"collection", "type", "fields"},
			},
			Handler:            handleCreateIndex,
			RequiresConnection: true,
		},
		{
			Name:        "arango_delete_index",
			Description: "Delete an index from a collection by name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection name",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Index name",
					},
				},
				"required": []string{"collection", "name"},
			},
			Handler:            handleDeleteIndex,
			RequiresConnection: true,
		},
	}
}

func handleListIndexes(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	indexes, err := col.Indexes(ctx)
	if err != nil {
		return nil, err
	}

	out := []map[string]interface{}{}
	for _, idx := range indexes {
		out = append(out, map[string]interface{}{
			"name":   idx.UserName(),
			"id":     idx.Name(),
			"type":   string(idx.Type()),
			"fields": idx.Fields(),
			"unique": idx.Unique(),
			"sparse": idx.Sparse(),
		})
	}

	return map[string]interface{}{
		"indexes": out,
		"count":   len(out),
	}, nil
}

func handleCreateIndex(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	fields := stringSliceArg(args, "fields")
	if len(fields) == 0 {
		return nil, mcp.NewToolError(mcp.KindValidation, "fields must contain at least one field name")
	}
	name := stringArg(args, "name")

	var (
		idx     driver.Index
		created bool
	)
	switch kind := stringArg(args, "type"); kind {
	case "persistent":
		idx, created, err = col.EnsurePersistentIndex(ctx, fields, &driver.EnsurePersistentIndexOptions{
			Unique: boolArg(args, "unique"),
			Sparse: boolArg(args, "sparse"),
			Name:   name,
		})
	case "ttl":
		idx, created, err = col.EnsureTTLIndex(ctx, fields[0], intArg(args, "expire_after", 0), &driver.EnsureTTLIndexOptions{
			Name: name,
		})
	case "geo":
		idx, created, err = col.EnsureGeoIndex(ctx, fields, &driver.EnsureGeoIndexOptions{
			Name: name,
		})
	case "fulltext":
		idx, created, err = col.EnsureFullTextIndex(ctx, fields, &driver.EnsureFullTextIndexOptions{
			MinLength: intArg(args, "min_length", 0),
			Name:      name,
		})
	default:
		return nil, mcp.Errorf(mcp.KindValidation, "unsupported index type %q", kind)
	}
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"name":    idx.UserName(),
		"id":      idx.Name(),
		"type":    string(idx.Type()),
		"created": created,
	}, nil
}

func handleDeleteIndex(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	idx, err := col.Index(ctx, stringArg(args, "name"))
	if err != nil {
		return nil, err
	}
	if err := idx.Remove(ctx); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"deleted": true,
		"name":    stringArg(args, "name"),
	}, nil
}
