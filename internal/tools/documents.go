package tools

import (
	"context"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func documentTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_insert",
			Description: "Insert a document into a collection and return its _id, _key and _rev.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Target collection name",
					},
					"document": map[string]interface{}{
						"type":        "object",
						"description": "Document body",
					},
					"return_new": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the stored document in the response",
						"default":     false,
					},
				},
				"required": []string{"collection", "document"},
			},
			Handler:            handleInsert,
			RequiresConnection: true,
		},
		{
			Name:        "arango_update",
			Description: "Partially update a document identified by its key.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Target collection name",
					},
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Document _key",
					},
					"update": map[string]interface{}{
						"type":        "object",
						"description": "Fields to merge into the document",
					},
					"return_new": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the updated document in the response",
						"default":     false,
					},
				},
				"required": []string{"collection", "key", "update"},
			},
			Handler:            handleUpdate,
			RequiresConnection: true,
		},
		{
			Name:        "arango_remove",
			Description: "Remove a document identified by its key.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Target collection name",
					},
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Document _key",
					},
				},
				"required": []string{"collection", "key"},
			},
			Handler:            handleRemove,
			RequiresConnection: true,
		},
	}
}

func handleInsert(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	doc := mapArg(args, "document")

	var newDoc map[string]interface{}
	callCtx := ctx
	if boolArg(args, "return_new") {
		callCtx = driver.WithReturnNew(ctx, &newDoc)
	}

	meta, err := col.CreateDocument(callCtx, doc)
	if err != nil {
		return nil, err
	}

	result := metaResult(meta)
	if newDoc != nil {
		result["new"] = newDoc
	}
	return result, nil
}

func handleUpdate(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	key := stringArg(args, "key")
	update := mapArg(args, "update")

	var newDoc map[string]interface{}
	callCtx := ctx
	if boolArg(args, "return_new") {
		callCtx = driver.WithReturnNew(ctx, &newDoc)
	}

	meta, err := col.UpdateDocument(callCtx, key, update)
	if err != nil {
		return nil, err
	}

	result := metaResult(meta)
	if newDoc != nil {
		result["new"] = newDoc
	}
	return result, nil
}

func handleRemove(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	key := stringArg(args, "key")
	meta, err := col.RemoveDocument(ctx, key)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"removed": true,
		"_id":     string(meta.ID),
		"_key":    meta.Key,
	}, nil
}
