package tools

import (
	"context"
	"fmt"

	driver "github.com/arangodb/go-driver"
	"github.com/xeipuuv/gojsonschema"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

// schemaCollection stores the named JSON Schemas, one document per schema
// keyed "<collection>:<name>". It is created on first use.
const schemaCollection = "mcp_schemas"

func schemaTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_create_schema",
			Description: "Store a named JSON Schema for a collection, creating or replacing it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Schema name, unique per collection",
					},
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection the schema describes",
					},
					"schema": map[string]interface{}{
						"type":        "object",
						"description": "JSON Schema definition",
					},
				},
				"required": []string{"name", "collection", "schema"},
			},
			Handler:            handleCreateSchema,
			RequiresConnection: true,
		},
		{
			Name:        "arango_validate_document",
			Description: "Validate a document against a stored or inline JSON Schema without writing anything.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection the document belongs to",
					},
					"document": map[string]interface{}{
						"type":        "object",
						"description": "Document to validate",
					},
					"schema": map[string]interface{}{
						"type":        "object",
						"description": "Inline JSON Schema (or supply schema_name)",
					},
					"schema_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of a stored schema (or supply schema)",
					},
				},
				"required": []string{"collection", "document"},
			},
			Handler:            handleValidateDocument,
			RequiresConnection: true,
		},
		{
			Name:        "arango_insert_with_validation",
			Description: "Insert a document after checking that its reference fields point at existing documents.",
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
					"reference_fields": map[string]interface{}{
						"type":        "array",
						"description": "Fields holding _id references that must resolve",
					},
				},
				"required": []string{"collection", "document"},
			},
			Handler:            handleInsertWithValidation,
			RequiresConnection: true,
		},
		{
			Name:        "arango_validate_references",
			Description: "Scan a collection for documents whose reference fields point at missing documents.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection to scan",
					},
					"reference_fields": map[string]interface{}{
						"type":        "array",
						"description": "Fields holding _id references",
					},
					"fix_invalid": map[string]interface{}{
						"type":        "boolean",
						"description": "Remove documents carrying invalid references",
						"default":     false,
					},
				},
				"required": []string{"collection", "reference_fields"},
			},
			Handler:            handleValidateReferences,
			RequiresConnection: true,
		},
	}
}

// compileSchema turns a schema argument into a validator, reporting an
// unusable schema as a validation error.
func compileSchema(schema map[string]interface{}) (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, mcp.Errorf(mcp.KindValidation, "schema does not compile: %v", err)
	}
	return compiled, nil
}

func handleCreateSchema(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	name := stringArg(args, "name")
	collection := stringArg(args, "collection")
	schema := mapArg(args, "schema")

	// Reject schemas that do not compile before anything is stored.
	if _, err := compileSchema(schema); err != nil {
		return nil, err
	}

	col, err := ensureSchemaCollection(ctx, db)
	if err != nil {
		return nil, err
	}

	key := schemaKey(collection, name)
	doc := map[string]interface{}{
		"_key":       key,
		"collection": collection,
		"name":       name,
		"schema":     schema,
	}

	exists, err := col.DocumentExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		if _, err := col.ReplaceDocument(ctx, key, doc); err != nil {
			return nil, err
		}
	} else {
		if _, err := col.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"created": true,
		"key":     key,
	}, nil
}

func handleValidateDocument(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	schema := mapArg(args, "schema")
	if schema == nil {
		name := stringArg(args, "schema_name")
		if name == "" {
			return nil, mcp.NewToolError(mcp.KindValidation, "either schema or schema_name is required")
		}
		stored, err := loadStoredSchema(ctx, db, stringArg(args, "collection"), name)
		if err != nil {
			return nil, err
		}
		schema = stored
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, err
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(mapArg(args, "document")))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return map[string]interface{}{"valid": true}, nil
	}

	violations := []map[string]interface{}{}
	for _, re := range result.Errors() {
		violations = append(violations, map[string]interface{}{
			"message":   re.Description(),
			"path":      re.Field(),
			"validator": re.Type(),
		})
	}
	return map[string]interface{}{
		"valid":  false,
		"errors": violations,
	}, nil
}

func handleInsertWithValidation(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	doc := mapArg(args, "document")

	if fields := stringSliceArg(args, "reference_fields"); len(fields) > 0 {
		invalid, err := invalidDocumentRefs(ctx, db, doc, fields)
		if err != nil {
			return nil, err
		}
		if len(invalid) > 0 {
			return nil, &mcp.ToolError{
				Kind:    mcp.KindValidation,
				Message: "document references missing targets",
				Details: map[string]interface{}{"invalid_references": invalid},
			}
		}
	}

	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}
	meta, err := col.CreateDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	return metaResult(meta), nil
}

func handleValidateReferences(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	collection := stringArg(args, "collection")
	fields := stringSliceArg(args, "reference_fields")
	if len(fields) == 0 {
		return nil, mcp.NewToolError(mcp.KindValidation, "reference_fields must contain at least one field name")
	}

	col, err := db.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	query := `
	FOR doc IN @@collection
	  LET invalid_refs = (
	    FOR field IN @fields
	      LET ref = DOCUMENT(doc[field])
	      FILTER ref == null AND doc[field] != null
	      RETURN {field: field, value: doc[field]}
	  )
	  FILTER LENGTH(invalid_refs) > 0
	  RETURN {_id: doc._id, _key: doc._key, invalid_references: invalid_refs}`
	cursor, err := db.Query(ctx, query, map[string]interface{}{
		"@collection": collection,
		"fields":      fields,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	invalid := []map[string]interface{}{}
	for {
		var doc map[string]interface{}
		_, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		invalid = append(invalid, doc)
	}

	total, err := col.Count(ctx)
	if err != nil {
		return nil, err
	}

	reported := invalid
	if len(reported) > 100 {
		reported = reported[:100]
	}
	result := map[string]interface{}{
		"total_checked":     total,
		"invalid_count":     len(invalid),
		"invalid_documents": reported,
		"validation_passed": len(invalid) == 0,
	}

	if boolArg(args, "fix_invalid") && len(invalid) > 0 {
		keys := make([]string, 0, len(invalid))
		for _, doc := range invalid {
			if key, ok := doc["_key"].(string); ok {
				keys = append(keys, key)
			}
		}
		_, errs, err := col.RemoveDocuments(ctx, keys)
		if err != nil {
			return nil, err
		}
		removed := 0
		for _, e := range errs {
			if e == nil {
				removed++
			}
		}
		result["removed_count"] = removed
	}
	return result, nil
}

// invalidDocumentRefs checks one document's reference fields through
// DOCUMENT() and returns the fields whose targets do not exist.
func invalidDocumentRefs(ctx context.Context, db driver.Database, doc map[string]interface{}, fields []string) ([]map[string]interface{}, error) {
	query := `
	LET d = @doc
	LET invalid_refs = (
	  FOR field IN @fields
	    LET ref = DOCUMENT(d[field])
	    FILTER ref == null AND d[field] != null
	    RETURN {field: field, value: d[field]}
	)
	RETURN invalid_refs`
	cursor, err := db.Query(ctx, query, map[string]interface{}{
		"doc":    doc,
		"fields": fields,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var invalid []map[string]interface{}
	if _, err := cursor.ReadDocument(ctx, &invalid); err != nil {
		return nil, err
	}
	return invalid, nil
}

func schemaKey(collection, name string) string {
	return fmt.Sprintf("%s:%s", collection, name)
}

func ensureSchemaCollection(ctx context.Context, db driver.Database) (driver.Collection, error) {
	exists, err := db.CollectionExists(ctx, schemaCollection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return db.CreateCollection(ctx, schemaCollection, nil)
	}
	return db.Collection(ctx, schemaCollection)
}

func loadStoredSchema(ctx context.Context, db driver.Database, collection, name string) (map[string]interface{}, error) {
	exists, err := db.CollectionExists(ctx, schemaCollection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, mcp.Errorf(mcp.KindValidation, "no stored schemas: collection %s is missing", schemaCollection)
	}

	col, err := db.Collection(ctx, schemaCollection)
	if err != nil {
		return nil, err
	}

	key := schemaKey(collection, name)
	var stored struct {
		Schema map[string]interface{} `json:"schema"`
	}
	if _, err := col.ReadDocument(ctx, key, &stored); err != nil {
		if driver.IsNotFoundGeneral(err) {
			return nil, mcp.Errorf(mcp.KindValidation, "stored schema not found: %s", key)
		}
		return nil, err
	}
	return stored.Schema, nil
}
