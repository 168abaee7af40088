// Package arango manages the connection to the target ArangoDB deployment:
// establishing it, retrying it at startup, and re-establishing it on demand
// once the server is already running.
package arango

import (
	"context"
	"fmt"

	driver "github.com/arangodb/go-driver"
	driverhttp "github.com/arangodb/go-driver/http"

	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

// ConnectFunc dials the database and returns a verified handle.
// The production implementation is Connect; tests substitute their own.
type ConnectFunc func(ctx context.Context, cfg config.ArangoConfig) (driver.Client, driver.Database, error)

// Connect establishes a connection to ArangoDB and opens the configured
// database. Opening the database doubles as a reachability check: it fails
// when the server is down, the credentials are wrong, or the database does
// not exist.
func Connect(ctx context.Context, cfg config.ArangoConfig) (driver.Client, driver.Database, error) {
	conn, err := driverhttp.NewConnection(driverhttp.ConnectionConfig{
		Endpoints: []string{cfg.URL},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("arango: create connection to %s: %w", cfg.RedactedURL(), err)
	}

	client, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(cfg.Username, cfg.Password),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("arango: create client: %w", err)
	}

	db, err := client.Database(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("arango: open database %q: %w", cfg.Database, err)
	}
	return client, db, nil
}
