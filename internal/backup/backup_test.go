package backup

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource serves canned documents keyed by collection name.
type memorySource struct {
	data map[string][]map[string]interface{}
}

func (m *memorySource) Collections(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.data))
	for _, n := range []string{"users", "orders", "empty"} {
		if _, ok := m.data[n]; ok {
			names = append(names, n)
		}
	}
	return names, nil
}

func (m *memorySource) Documents(ctx context.Context, collection string, limit int) ([]map[string]interface{}, error) {
	docs := m.data[collection]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func testSource() *memorySource {
	return &memorySource{data: map[string][]map[string]interface{}{
		"users": {
			{"_key": "1", "name": "ada"},
			{"_key": "2", "name": "grace"},
		},
		"orders": {
			{"_key": "o1", "total": 12.5},
		},
		"empty": {},
	}}
}

func newTestService(src Source) *Service {
	svc := NewService(src)
	svc.SetLogger(log.New(io.Discard, "", 0))
	return svc
}

func TestRunExportsAllCollections(t *testing.T) {
	svc := newTestService(testSource())

	report, err := svc.Run(context.Background(), Options{OutputDir: t.TempDir()})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.DirExists(t, report.Directory)
	require.Len(t, report.Collections, 3)
	assert.Equal(t, 3, report.TotalDocs)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	// Each collection file holds exactly its documents.
	var users []map[string]interface{}
	data, err := os.ReadFile(filepath.Join(report.Directory, "users.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &users))
	assert.Len(t, users, 2)

	// An empty collection still writes a valid empty array.
	data, err = os.ReadFile(filepath.Join(report.Directory, "empty.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestRunWritesReportFile(t *testing.T) {
	svc := newTestService(testSource())

	report, err := svc.Run(context.Background(), Options{OutputDir: t.TempDir()})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(report.Directory, "report.json"))
	require.NoError(t, err)

	var onDisk Report
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, report.ID, onDisk.ID)
	assert.Equal(t, report.TotalDocs, onDisk.TotalDocs)
}

func TestRunSelectedCollectionsAndLimit(t *testing.T) {
	svc := newTestService(testSource())

	report, err := svc.Run(context.Background(), Options{
		OutputDir:   t.TempDir(),
		Collections: []string{"users"},
		DocLimit:    1,
	})
	require.NoError(t, err)

	require.Len(t, report.Collections, 1)
	assert.Equal(t, "users", report.Collections[0].Name)
	assert.Equal(t, 1, report.Collections[0].Count)
	assert.NoFileExists(t, filepath.Join(report.Directory, "orders.json"))
}

func TestResolveOutputDirRejectsParentReferences(t *testing.T) {
	for _, dir := range []string{"..", "../escape", "backups/../../etc"} {
		_, err := ResolveOutputDir(dir)
		require.Error(t, err, "dir %q", dir)
	}
}

func TestResolveOutputDirCreatesBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "backups")

	abs, err := ResolveOutputDir(base)
	require.NoError(t, err)
	assert.DirExists(t, abs)
	assert.True(t, filepath.IsAbs(abs))
}
