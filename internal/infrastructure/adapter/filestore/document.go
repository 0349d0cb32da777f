package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/spf13/afero"
)

// ReadDocument loads a document from path. A missing file yields an empty document.
func ReadDocument(fs afero.Fs, path string) (*persistence.Snapshot, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("open %s: %w: %w", path, errs.ErrStorage, err)
	}
	defer f.Close()

	return DecodeDocument(f)
}

// DecodeDocument parses a document, filling in collections a legacy document may lack
func DecodeDocument(r io.Reader) (*persistence.Snapshot, error) {
	doc := persistence.NewSnapshot()
	dec := json.NewDecoder(r)
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return persistence.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("decode document: %w: %w", errs.ErrStorage, err)
	}

	if doc.Users == nil {
		doc.Users = map[string]persistence.SnapshotUser{}
	}
	if doc.Codes == nil {
		doc.Codes = []persistence.SnapshotCode{}
	}
	return doc, nil
}

// WriteDocument replaces path with doc atomically: the bytes go to a temp file in the same
// directory, are fsynced and then renamed over the target.
func WriteDocument(fs afero.Fs, path string, doc *persistence.Snapshot) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w: %w", errs.ErrStorage, err)
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w: %w", dir, errs.ErrStorage, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w: %w", errs.ErrStorage, err)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w: %w", path, errs.ErrStorage, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w: %w", errs.ErrStorage, err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("replace %s: %w: %w", path, errs.ErrStorage, err)
	}
	return nil
}
