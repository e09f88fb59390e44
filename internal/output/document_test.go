package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odysseus0/rssfeeder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() model.OutputDocument {
	return model.OutputDocument{
		Title:       "DRE Série 1",
		Description: "Diário <da> República & afins",
		Items: []model.NormalizedItem{
			{ID: "b", Title: "Segundo", Description: "<p>x</p>", Creator: "Assembleia", PubDate: "2024-01-12T00-00-00.000"},
			{ID: "a", Title: "Primeiro", Description: "", Creator: "", PubDate: "not-a-date"},
		},
	}
}

func TestWriteDocument_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serie1.json")
	doc := sampleDocument()

	require.NoError(t, WriteDocument(path, doc))
	got, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestWriteDocument_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serie1.json")
	doc := sampleDocument()
	doc.Items = doc.Items[:1]
	require.NoError(t, WriteDocument(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "title": "DRE Série 1",
  "description": "Diário <da> República & afins",
  "items": [
    {
      "id": "b",
      "title": "Segundo",
      "description": "<p>x</p>",
      "creator": "Assembleia",
      "pubDate": "2024-01-12T00-00-00.000"
    }
  ]
}`
	assert.Equal(t, want, string(data))
}

func TestWriteDocument_EmptyItemsIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteDocument(path, model.OutputDocument{Title: "t"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items": []`)
}

func TestWriteDocument_OverwritesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "serie1.json")
	require.NoError(t, WriteDocument(path, sampleDocument()))

	small := model.OutputDocument{Title: "x", Items: []model.NormalizedItem{}}
	require.NoError(t, WriteDocument(path, small))

	got, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, small, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteDocument_CreatesOutputDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "serie2.json")
	require.NoError(t, WriteDocument(path, sampleDocument()))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestWriteDocument_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteDocument(filepath.Join(blocker, "serie1.json"), sampleDocument())
	require.ErrorIs(t, err, ErrPersistence)
}
