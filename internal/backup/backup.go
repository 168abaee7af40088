// Package backup exports ArangoDB collections as JSON files on local disk.
// Each run writes into a fresh timestamped directory under the configured
// base and produces a report of what was written.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	driver "github.com/arangodb/go-driver"
	"github.com/google/uuid"
)

// Source supplies the documents to export. The production implementation is
// ArangoSource; tests substitute an in-memory one.
type Source interface {
	// Collections lists the exportable (non-system) collection names.
	Collections(ctx context.Context) ([]string, error)
	// Documents returns up to limit documents from a collection.
	// limit <= 0 means no cap.
	Documents(ctx context.Context, collection string, limit int) ([]map[string]interface{}, error)
}

// ArangoSource reads documents through an ArangoDB handle.
type ArangoSource struct {
	db driver.Database
}

// NewArangoSource wraps a database handle as a backup Source.
func NewArangoSource(db driver.Database) *ArangoSource {
	return &ArangoSource{db: db}
}

// Collections lists non-system collections.
func (s *ArangoSource) Collections(ctx context.Context) ([]string, error) {
	cols, err := s.db.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup: list collections: %w", err)
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if strings.HasPrefix(c.Name(), "_") {
			continue // system collection
		}
		names = append(names, c.Name())
	}
	return names, nil
}

// Documents streams a collection through a cursor into memory.
func (s *ArangoSource) Documents(ctx context.Context, collection string, limit int) ([]map[string]interface{}, error) {
	query := "FOR doc IN @@collection RETURN doc"
	bindVars := map[string]interface{}{"@collection": collection}
	if limit > 0 {
		query = "FOR doc IN @@collection LIMIT @limit RETURN doc"
		bindVars["limit"] = limit
	}

	cursor, err := s.db.Query(ctx, query, bindVars)
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %w", collection, err)
	}
	defer cursor.Close()

	var docs []map[string]interface{}
	for {
		var doc map[string]interface{}
		_, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("backup: read %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Options controls a single backup run.
type Options struct {
	OutputDir   string   // base directory; a timestamped subdirectory is created in it
	Collections []string // empty means every non-system collection
	DocLimit    int      // per-collection document cap, <= 0 means unlimited
}

// CollectionReport records the outcome for one collection.
type CollectionReport struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	File  string `json:"file"`
}

// Report summarizes a backup run. It is also written to report.json inside
// the backup directory.
type Report struct {
	ID          string             `json:"id"`
	Directory   string             `json:"directory"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Collections []CollectionReport `json:"collections"`
	TotalDocs   int                `json:"total_docs"`
}

// Service runs backups against a Source.
type Service struct {
	src    Source
	logger *log.Logger
}

// NewService creates a backup Service.
func NewService(src Source) *Service {
	return &Service{src: src, logger: log.Default()}
}

// SetLogger overrides the operator log destination.
func (s *Service) SetLogger(l *log.Logger) {
	s.logger = l
}

// Run exports the selected collections and returns the report.
func (s *Service) Run(ctx context.Context, opts Options) (*Report, error) {
	base, err := ResolveOutputDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(base, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create directory %s: %w", dir, err)
	}

	names := opts.Collections
	if len(names) == 0 {
		names, err = s.src.Collections(ctx)
		if err != nil {
			return nil, err
		}
	}

	report := &Report{
		ID:        uuid.New().String(),
		Directory: dir,
		StartedAt: time.Now().UTC(),
	}

	for _, name := range names {
		docs, err := s.src.Documents(ctx, name, opts.DocLimit)
		if err != nil {
			return nil, err
		}
		if docs == nil {
			docs = []map[string]interface{}{}
		}

		file := filepath.Join(dir, name+".json")
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("backup: encode %s: %w", name, err)
		}
		if err := os.WriteFile(file, data, 0o644); err != nil {
			return nil, fmt.Errorf("backup: write %s: %w", file, err)
		}

		report.Collections = append(report.Collections, CollectionReport{
			Name:  name,
			Count: len(docs),
			File:  file,
		})
		report.TotalDocs += len(docs)
		s.logger.Printf("backed up %s: %d documents", name, len(docs))
	}

	report.FinishedAt = time.Now().UTC()

	reportData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("backup: encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.json"), reportData, 0o644); err != nil {
		return nil, fmt.Errorf("backup: write report: %w", err)
	}
	return report, nil
}

// ResolveOutputDir validates and normalizes the base output directory.
// Parent-directory elements are rejected so a caller-supplied path can
// never climb out of its stated base.
func ResolveOutputDir(dir string) (string, error) {
	if dir == "" {
		dir = "./backups"
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return "", fmt.Errorf("backup: output directory %q must not contain parent references", dir)
		}
	}
	abs, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return "", fmt.Errorf("backup: resolve output directory %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("backup: create output directory %s: %w", abs, err)
	}
	return abs, nil
}
