package tools

import (
	"context"
	"fmt"

	driver "github.com/arangodb/go-driver"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func graphTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "arango_list_graphs",
			Description: "List the named graphs in the database.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler:            handleListGraphs,
			RequiresConnection: true,
		},
		{
			Name:        "arango_create_graph",
			Description: "Create a named graph from edge definitions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Graph name",
					},
					"edge_definitions": map[string]interface{}{
						"type":        "array",
						"description": "Edge definitions: objects with collection, from and to",
					},
				},
				"required": []string{"name", "edge_definitions"},
			},
			Handler:            handleCreateGraph,
			RequiresConnection: true,
		},
		{
			Name:        "arango_add_edge",
			Description: "Insert an edge document linking two vertices.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Edge collection name",
					},
					"from": map[string]interface{}{
						"type":        "string",
						"description": "Source vertex _id",
					},
					"to": map[string]interface{}{
						"type":        "string",
						"description": "Target vertex _id",
					},
					"data": map[string]interface{}{
						"type":        "object",
						"description": "Additional edge attributes",
					},
				},
				"required": []string{"collection", "from", "to"},
			},
			Handler:            handleAddEdge,
			RequiresConnection: true,
		},
		{
			Name:        "arango_traverse",
			Description: "Traverse a graph from a start vertex and return the visited vertices and edges.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"start_vertex": map[string]interface{}{
						"type":        "string",
						"description": "Start vertex _id",
					},
					"graph": map[string]interface{}{
						"type":        "string",
						"description": "Named graph to traverse (or supply edge_collection)",
					},
					"edge_collection": map[string]interface{}{
						"type":        "string",
						"description": "Edge collection to traverse (or supply graph)",
					},
					"direction": map[string]interface{}{
						"type":        "string",
						"description": "Traversal direction",
						"enum":        []interface{}{"OUTBOUND", "INBOUND", "ANY"},
						"default":     "OUTBOUND",
					},
					"min_depth": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum traversal depth",
						"default":     1,
					},
					"max_depth": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum traversal depth",
						"default":     1,
					},
				},
				"required": []string{"start_vertex"},
			},
			Handler:            handleTraverse,
			RequiresConnection: true,
		},
		{
			Name:        "arango_shortest_path",
			Description: "Find the shortest path between two vertices.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"from": map[string]interface{}{
						"type":        "string",
						"description": "Source vertex _id",
					},
					"to": map[string]interface{}{
						"type":        "string",
						"description": "Target vertex _id",
					},
					"graph": map[string]interface{}{
						"type":        "string",
						"description": "Named graph to search (or supply edge_collection)",
					},
					"edge_collection": map[string]interface{}{
						"type":        "string",
						"description": "Edge collection to search (or supply graph)",
					},
					"direction": map[string]interface{}{
						"type":        "string",
						"description": "Edge direction",
						"enum":        []interface{}{"OUTBOUND", "INBOUND", "ANY"},
						"default":     "OUTBOUND",
					},
				},
				"required": []string{"from", "to"},
			},
			Handler:            handleShortestPath,
			RequiresConnection: true,
		},
		{
			Name:        "arango_add_vertex_collection",
			Description: "Add a vertex collection to a named graph.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"graph": map[string]interface{}{
						"type":        "string",
						"description": "Graph name",
					},
					"collection": map[string]interface{}{
						"type":        "string",
						"description": "Vertex collection to add",
					},
				},
				"required": []string{"graph", "collection"},
			},
			Handler:            handleAddVertexCollection,
			RequiresConnection: true,
		},
		{
			Name:        "arango_add_edge_definition",
			Description: "Add an edge definition to a named graph.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"graph": map[string]interface{}{
						"type":        "string",
						"description": "Graph name",
					},
					"edge_collection": map[string]interface{}{
						"type":        "string",
						"description": "Edge collection of the new definition",
					},
					"from_collections": map[string]interface{}{
						"type":        "array",
						"description": "Allowed source vertex collections",
					},
					"to_collections": map[string]interface{}{
						"type":        "array",
						"description": "Allowed target vertex collections",
					},
				},
				"required": []string{"graph", "edge_collection", "from_collections", "to_collections"},
			},
			Handler:            handleAddEdgeDefinition,
			RequiresConnection: true,
		},
	}
}

func handleListGraphs(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	graphs, err := db.Graphs(ctx)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, g := range graphs {
		names = append(names, g.Name())
	}
	return map[string]interface{}{
		"graphs": names,
		"count":  len(names),
	}, nil
}

func handleCreateGraph(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	name := stringArg(args, "name")

	raw := docSliceArg(args, "edge_definitions")
	if len(raw) == 0 {
		return nil, mcp.NewToolError(mcp.KindValidation, "edge_definitions must contain at least one definition")
	}

	defs := make([]driver.EdgeDefinition, 0, len(raw))
	for i, d := range raw {
		def := driver.EdgeDefinition{
			Collection: stringArg(d, "collection"),
			From:       stringSliceArg(d, "from"),
			To:         stringSliceArg(d, "to"),
		}
		if def.Collection == "" || len(def.From) == 0 || len(def.To) == 0 {
			return nil, mcp.Errorf(mcp.KindValidation,
				"edge_definitions[%d] must declare collection, from and to", i)
		}
		defs = append(defs, def)
	}

	exists, err := db.GraphExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return map[string]interface{}{
			"name":    name,
			"created": false,
		}, nil
	}

	if _, err := db.CreateGraph(ctx, name, &driver.CreateGraphOptions{EdgeDefinitions: defs}); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"name":    name,
		"created": true,
	}, nil
}

func handleAddEdge(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	col, err := db.Collection(ctx, stringArg(args, "collection"))
	if err != nil {
		return nil, err
	}

	edge := map[string]interface{}{}
	for k, v := range mapArg(args, "data") {
		edge[k] = v
	}
	edge["_from"] = stringArg(args, "from")
	edge["_to"] = stringArg(args, "to")

	meta, err := col.CreateDocument(ctx, edge)
	if err != nil {
		return nil, err
	}
	return metaResult(meta), nil
}

// traversalScope builds the AQL fragment and bind variables selecting either
// a named graph or an explicit edge collection.
func traversalScope(args map[string]interface{}, bindVars map[string]interface{}) (string, error) {
	graph := stringArg(args, "graph")
	edgeCol := stringArg(args, "edge_collection")
	switch {
	case graph != "" && edgeCol != "":
		return "", mcp.NewToolError(mcp.KindValidation, "supply either graph or edge_collection, not both")
	case graph != "":
		bindVars["graph"] = graph
		return "GRAPH @graph", nil
	case edgeCol != "":
		bindVars["@edges"] = edgeCol
		return "@@edges", nil
	default:
		return "", mcp.NewToolError(mcp.KindValidation, "either graph or edge_collection is required")
	}
}

func handleTraverse(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	direction := stringArg(args, "direction")
	if direction == "" {
		direction = "OUTBOUND"
	}
	minDepth := intArg(args, "min_depth", 1)
	maxDepth := intArg(args, "max_depth", 1)
	if minDepth < 0 || maxDepth < minDepth {
		return nil, mcp.NewToolError(mcp.KindValidation, "depth range is invalid")
	}

	bindVars := map[string]interface{}{"start": stringArg(args, "start_vertex")}
	scope, err := traversalScope(args, bindVars)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"FOR v, e IN %d..%d %s @start %s RETURN {vertex: v, edge: e}",
		minDepth, maxDepth, direction, scope)

	return runPathQuery(ctx, db, query, bindVars)
}

func handleShortestPath(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	direction := stringArg(args, "direction")
	if direction == "" {
		direction = "OUTBOUND"
	}

	bindVars := map[string]interface{}{
		"from": stringArg(args, "from"),
		"to":   stringArg(args, "to"),
	}
	scope, err := traversalScope(args, bindVars)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"FOR v, e IN %s SHORTEST_PATH @from TO @to %s RETURN {vertex: v, edge: e}",
		direction, scope)

	return runPathQuery(ctx, db, query, bindVars)
}

func runPathQuery(ctx context.Context, db driver.Database, query string, bindVars map[string]interface{}) (interface{}, error) {
	cursor, err := db.Query(ctx, query, bindVars)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	results := []interface{}{}
	for {
		var step interface{}
		_, err := cursor.ReadDocument(ctx, &step)
		if driver.IsNoMoreDocuments(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		results = append(results, step)
	}

	return map[string]interface{}{
		"results": results,
		"count":   len(results),
	}, nil
}

func handleAddVertexCollection(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	g, err := db.Graph(ctx, stringArg(args, "graph"))
	if err != nil {
		return nil, err
	}

	collection := stringArg(args, "collection")
	exists, err := g.VertexCollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := g.CreateVertexCollection(ctx, collection); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"graph":      g.Name(),
		"collection": collection,
		"added":      !exists,
	}, nil
}

func handleAddEdgeDefinition(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	g, err := db.Graph(ctx, stringArg(args, "graph"))
	if err != nil {
		return nil, err
	}

	edgeCol := stringArg(args, "edge_collection")
	from := stringSliceArg(args, "from_collections")
	to := stringSliceArg(args, "to_collections")
	if len(from) == 0 || len(to) == 0 {
		return nil, mcp.NewToolError(mcp.KindValidation,
			"from_collections and to_collections must each name at least one collection")
	}

	if _, err := g.CreateEdgeCollection(ctx, edgeCol, driver.VertexConstraints{From: from, To: to}); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"graph": g.Name(),
		"edge_definition": map[string]interface{}{
			"edge_collection":  edgeCol,
			"from_collections": from,
			"to_collections":   to,
		},
	}, nil
}
