package tools

import (
	"context"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func bulkTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_bulk_insert",
			Description: "Insert many documents into a collection in one round trip.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Target collection name",
					},
					"documents": map[string]interface{}{
						"type":        "array",
						"description": "Document bodies",
					},
				},
				"required": []string{"collection", "documents"},
			},
			Handler:            handleBulkInsert,
			RequiresConnection: true,
		},
		{
			Name:        "arango_bulk_update",
			Description: "Update many documents in one round trip. Each update must carry its _key.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Target collection name",
					},
					"updates": map[string]interface{}{
						"type":        "array",
						"description": "Update bodies, each including _key",
					},
				},
				"required": []string{"collection", "updates"},
			},
			Handler:            handleBulkUpdate,
			RequiresConnection: true,
		},
	}
}

func handleBulkInsert(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	docs := docSliceArg(args, "documents")
	if len(docs) == 0 {
		return nil, mcp.NewToolError(mcp.KindValidation, "documents must contain at least one object")
	}

	metas, errs, err := col.CreateDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	failures := []string{}
	for i, meta := range metas {
		if i < len(errs) && errs[i] != nil {
			failures = append(failures, errs[i].Error())
			continue
		}
		keys = append(keys, meta.Key)
	}

	return map[string]interface{}{
		"inserted": len(keys),
		"failed":   len(failures),
		"keys":     keys,
		"errors":   failures,
	}, nil
}

func handleBulkUpdate(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	updates := docSliceArg(args, "updates")
	if len(updates) == 0 {
		return nil, mcp.NewToolError(mcp.KindValidation, "updates must contain at least one object")
	}

	keys := make([]string, len(updates))
	for i, u := range updates {
		key, _ := u["_key"].(string)
		if key == "" {
			return nil, mcp.Errorf(mcp.KindValidation, "updates[%d] is missing _key", i)
		}
		keys[i] = key
	}

	metas, errs, err := col.UpdateDocuments(ctx, keys, updates)
	if err != nil {
		return nil, err
	}

	updated := 0
	failures := []string{}
	for i := range metas {
		if i < len(errs) && errs[i] != nil {
			failures = append(failures, errs[i].Error())
			continue
		}
		updated++
	}

	return map[string]interface{}{
		"updated": updated,
		"failed":  len(failures),
		"errors":  failures,
	}, nil
}
