package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func queryTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_query",
			Description: "Execute an AQL query with optional bind variables and return the matching documents.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "AQL query string",
					},
					"bind_vars": map[string]interface{}{
						"type":        "object",
						"description": "Bind variables referenced by the query",
					},
				},
				"required":             []string{"query"},
				"additionalProperties": false,
			},
			Handler:            handleQuery,
			RequiresConnection: true,
		},
		{
			Name:        "arango_explain_query",
			Description: "Explain an AQL query's execution plan without running it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "AQL query string",
					},
					"bind_vars": map[string]interface{}{
						"type":        "object",
						"description": "Bind variables referenced by the query",
					},
					"all_plans": map[string]interface{}{
						"type":        "boolean",
						"description": "Return all candidate plans instead of the optimal one",
						"default":     false,
					},
				},
				"required": []string{"query"},
			},
			Handler:            handleExplainQuery,
			RequiresConnection: true,
		},
		{
			Name:        "arango_query_builder",
			Description: "Build and run a filtered AQL query from structured filters, sort and limit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Collection to query",
					},
					"filters": map[string]interface{}{
						"type":        "array",
						"description": "Filter conditions: objects with field, op and value",
					},
					"sort": map[string]interface{}{
						"type":        "array",
						"description": "Sort specs: objects with field and direction (ASC or DESC)",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of documents to return",
						"default":     0,
					},
					"return_fields": map[string]interface{}{
						"type":        "array",
						"description": "Projection fields; empty returns full documents",
					},
				},
				"required": []string{"collection"},
			},
			Handler:            handleQueryBuilder,
			RequiresConnection: true,
		},
		{
			Name:        "arango_query_profile",
			Description: "Profile an AQL query: explain plans, optimizer warnings and stats without running it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "AQL query string",
					},
					"bind_vars": map[string]interface{}{
						"type":        "object",
						"description": "Bind variables referenced by the query",
					},
					"max_plans": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of candidate plans to return",
						"default":     1,
					},
				},
				"required": []string{"query"},
			},
			Handler:            handleQueryProfile,
			RequiresConnection: true,
		},
	}
}

func handleQuery(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	query := stringArg(args, "query")
	bindVars := mapArg(args, "bind_vars")

	cursor, err := db.Query(ctx, query, bindVars)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	results := []interface{}{}
	for {
		var doc interface{}
		_, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}

	return map[string]interface{}{
		"results": results,
		"count":   len(results),
	}, nil
}

func handleExplainQuery(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	query := stringArg(args, "query")
	bindVars := mapArg(args, "bind_vars")

	var opts *driver.ExplainQueryOptions
	if boolArg(args, "all_plans") {
		opts = &driver.ExplainQueryOptions{AllPlans: true}
	}

	explained, err := db.ExplainQuery(ctx, query, bindVars, opts)
	if err != nil {
		return nil, err
	}
	return explained, nil
}

// aqlIdentifier restricts interpolated names (collections, document fields,
// possibly dotted) to a safe character set. Values never get interpolated;
// they travel as bind variables.
var aqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

var builderOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"IN": true, "LIKE": true,
}

// buildFilterQuery assembles the AQL for arango_query_builder. Field names
// and sort directions are checked against allow-lists; filter values are
// passed through bind variables.
func buildFilterQuery(args map[string]interface{}) (string, map[string]interface{}, error) {
	bindVars := map[string]interface{}{"@collection": stringArg(args, "collection")}

	var filterClauses []string
	for i, f := range docSliceArg(args, "filters") {
		field := stringArg(f, "field")
		op := stringArg(f, "op")
		if !aqlIdentifier.MatchString(field) {
			return "", nil, mcp.Errorf(mcp.KindValidation, "filters[%d] has an invalid field name %q", i, field)
		}
		if !builderOps[op] {
			return "", nil, mcp.Errorf(mcp.KindValidation, "filters[%d] has an unsupported operator %q", i, op)
		}
		bind := fmt.Sprintf("v%d", i)
		bindVars[bind] = f["value"]
		if op == "LIKE" {
			filterClauses = append(filterClauses, fmt.Sprintf("LIKE(doc.%s, @%s)", field, bind))
		} else {
			filterClauses = append(filterClauses, fmt.Sprintf("doc.%s %s @%s", field, op, bind))
		}
	}

	var sortExprs []string
	for i, s := range docSliceArg(args, "sort") {
		field := stringArg(s, "field")
		if !aqlIdentifier.MatchString(field) {
			return "", nil, mcp.Errorf(mcp.KindValidation, "sort[%d] has an invalid field name %q", i, field)
		}
		direction := strings.ToUpper(stringArg(s, "direction"))
		if direction == "" {
			direction = "ASC"
		}
		if direction != "ASC" && direction != "DESC" {
			return "", nil, mcp.Errorf(mcp.KindValidation, "sort[%d] direction must be ASC or DESC", i)
		}
		sortExprs = append(sortExprs, fmt.Sprintf("doc.%s %s", field, direction))
	}

	ret := "doc"
	if fields := stringSliceArg(args, "return_fields"); len(fields) > 0 {
		var pairs []string
		for _, field := range fields {
			if !aqlIdentifier.MatchString(field) {
				return "", nil, mcp.Errorf(mcp.KindValidation, "return_fields has an invalid field name %q", field)
			}
			pairs = append(pairs, fmt.Sprintf("%s: doc.%s", field, field))
		}
		ret = "{" + strings.Join(pairs, ", ") + "}"
	}

	var b strings.Builder
	b.WriteString("FOR doc IN @@collection")
	if len(filterClauses) > 0 {
		b.WriteString(" FILTER " + strings.Join(filterClauses, " AND "))
	}
	if len(sortExprs) > 0 {
		b.WriteString(" SORT " + strings.Join(sortExprs, ", "))
	}
	if limit := intArg(args, "limit", 0); limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}
	b.WriteString(" RETURN " + ret)
	return b.String(), bindVars, nil
}

func handleQueryBuilder(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	query, bindVars, err := buildFilterQuery(args)
	if err != nil {
		return nil, err
	}

	cursor, err := db.Query(ctx, query, bindVars)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	results := []interface{}{}
	for {
		var doc interface{}
		_, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}

	return map[string]interface{}{
		"results": results,
		"count":   len(results),
	}, nil
}

func handleQueryProfile(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	query := stringArg(args, "query")
	bindVars := mapArg(args, "bind_vars")
	maxPlans := intArg(args, "max_plans", 1)
	if maxPlans < 1 {
		return nil, mcp.NewToolError(mcp.KindValidation, "max_plans must be at least 1")
	}

	opts := &driver.ExplainQueryOptions{}
	if maxPlans > 1 {
		opts.AllPlans = true
		opts.MaxNumberOfPlans = &maxPlans
	}

	explained, err := db.ExplainQuery(ctx, query, bindVars, opts)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"warnings": explained.Warnings,
		"stats":    explained.Stats,
	}
	if len(explained.Plans) > 0 {
		result["plans"] = explained.Plans
	} else {
		result["plans"] = []interface{}{explained.Plan}
	}
	return result, nil
}
