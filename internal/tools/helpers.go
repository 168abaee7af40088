// Package tools defines the ArangoDB tool set exposed over MCP: AQL
// queries, collection and document CRUD, index management, graph
// operations, bulk writes and backups. Each tool declares its input
// contract as a JSON schema; the dispatcher validates arguments against it
// before a handler ever runs, so handlers read arguments without
// re-checking presence or type.
package tools

import driver "github.com/arangodb/go-driver"

// stringArg reads an optional string argument.
func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads an optional integer argument. JSON numbers decode as
// float64, so both forms are accepted.
func intArg(args map[string]interface{}, key string, def int) int {
	switch n := args[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return def
	}
}

// boolArg reads an optional boolean argument.
func boolArg(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}

// mapArg reads an optional object argument.
func mapArg(args map[string]interface{}, key string) map[string]interface{} {
	m, _ := args[key].(map[string]interface{})
	return m
}

// stringSliceArg reads an optional array-of-strings argument.
func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// docSliceArg reads an optional array-of-objects argument.
func docSliceArg(args map[string]interface{}, key string) []map[string]interface{} {
	raw, _ := args[key].([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// metaResult is the standard response for single-document writes.
func metaResult(meta driver.DocumentMeta) map[string]interface{} {
	return map[string]interface{}{
		"_id":  string(meta.ID),
		"_key": meta.Key,
		"_rev": meta.Rev,
	}
}
