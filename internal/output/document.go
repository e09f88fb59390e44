package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odysseus0/rssfeeder/internal/model"
)

var ErrPersistence = errors.New("persistence failed")

// WriteDocument replaces path with the JSON rendering of doc. The data is
// written to a temporary file in the same directory and renamed into place,
// so readers never observe a partial document.
func WriteDocument(path string, doc model.OutputDocument) error {
	if doc.Items == nil {
		doc.Items = []model.NormalizedItem{}
	}
	data, err := encodeJSON(doc)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, path, err)
	}
	data = bytes.TrimRight(data, "\n")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrPersistence, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	committed = true
	return nil
}

func ReadDocument(path string) (model.OutputDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.OutputDocument{}, err
	}
	var doc model.OutputDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.OutputDocument{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}
