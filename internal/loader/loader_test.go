package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSONLFieldMaps(t *testing.T) {
	path := writeFile(t, "docs.jsonl", `{"title": "One", "body": "first doc"}

{"title": "Two", "body": "second doc"}
`)
	docs, err := LoadJSONL(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "One", docs[0].Fields["title"])
	assert.Equal(t, uint64(0), docs[0].ID, "bare maps leave id assignment to the engine")
	assert.Equal(t, "second doc", docs[1].Fields["body"])
}

func TestLoadJSONLFullDocuments(t *testing.T) {
	path := writeFile(t, "docs.jsonl", `{"id": 7, "fields": {"body": "explicit id"}}
`)
	docs, err := LoadJSONL(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, uint64(7), docs[0].ID)
	assert.Equal(t, "explicit id", docs[0].Fields["body"])
}

func TestLoadJSONLMalformedLine(t *testing.T) {
	path := writeFile(t, "docs.jsonl", "{\"ok\": \"yes\"}\nnot json\n")
	_, err := LoadJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadCSVHeaderRow(t *testing.T) {
	path := writeFile(t, "docs.csv", "title,body\nOne,first doc\nTwo,\"second, quoted\"\n")
	docs, err := LoadCSV(path, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "One", docs[0].Fields["title"])
	assert.Equal(t, "second, quoted", docs[1].Fields["body"])
}

func TestLoadCSVExplicitColumns(t *testing.T) {
	path := writeFile(t, "docs.csv", "ignored,header\nv1,v2\n")
	docs, err := LoadCSV(path, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "v1", docs[0].Fields["alpha"])
	assert.Equal(t, "v2", docs[0].Fields["beta"])
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := LoadJSONL("/does/not/exist.jsonl")
	assert.Error(t, err)
	_, err = LoadCSV("/does/not/exist.csv", nil)
	assert.Error(t, err)
}
