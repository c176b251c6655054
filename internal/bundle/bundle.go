// Package bundle stores a document as a directory of named blobs with a
// small JSON manifest.
//
// Blob writes are atomic replaces (temp file + rename), so a crashed
// save never leaves a half-written blob behind. Absent blobs are not
// errors; callers layer their own defaults on top.
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// ManifestName is the reserved manifest file name inside a bundle.
const ManifestName = "manifest.json"

// FormatVersion is the bundle layout version this package reads and
// writes.
const FormatVersion = 1

const dirPerms = 0o750

// Bundle errors.
var (
	// ErrNotBundle indicates the directory has no readable manifest.
	ErrNotBundle = errors.New("not a document bundle")

	// ErrBundleExists indicates Create was pointed at an existing bundle.
	ErrBundleExists = errors.New("bundle already exists")

	// ErrInvalidKey indicates a blob key with path separators, a leading
	// dot, or a reserved name.
	ErrInvalidKey = errors.New("invalid blob key")
)

// Manifest identifies a bundle on disk.
type Manifest struct {
	FormatVersion int       `json:"format_version"`
	DocumentID    string    `json:"document_id"`
	Created       time.Time `json:"created"`
}

// Bundle is an open handle to a bundle directory.
type Bundle struct {
	dir      string
	manifest Manifest
}

// Create initializes a new bundle at dir, creating the directory if
// needed, and returns an open handle.
//
// Possible errors: [ErrBundleExists], filesystem errors.
func Create(dir string) (*Bundle, error) {
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); err == nil {
		return nil, fmt.Errorf("%s: %w", dir, ErrBundleExists)
	}

	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("creating bundle directory: %w", err)
	}

	manifest := Manifest{
		FormatVersion: FormatVersion,
		DocumentID:    uuid.NewString(),
		Created:       time.Now().UTC(),
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	data = append(data, '\n')

	if err := atomic.WriteFile(filepath.Join(dir, ManifestName), bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	return &Bundle{dir: dir, manifest: manifest}, nil
}

// Open opens an existing bundle at dir.
//
// Possible errors: [ErrNotBundle], filesystem errors.
func Open(dir string) (*Bundle, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotBundle)
		}

		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest Manifest

	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%s: corrupt manifest: %w", dir, ErrNotBundle)
	}

	if manifest.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%s: unsupported bundle format version %d: %w",
			dir, manifest.FormatVersion, ErrNotBundle)
	}

	return &Bundle{dir: dir, manifest: manifest}, nil
}

// Dir returns the bundle directory path.
func (b *Bundle) Dir() string {
	return b.dir
}

// DocumentID returns the stable document identifier from the manifest.
func (b *Bundle) DocumentID() string {
	return b.manifest.DocumentID
}

// ReadBlob returns the contents of the named blob.
//
// ok is false when the blob does not exist; absence is not an error.
func (b *Bundle) ReadBlob(key string) (data []byte, ok bool, err error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	data, err = os.ReadFile(filepath.Join(b.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("reading blob %s: %w", key, err)
	}

	return data, true, nil
}

// WriteBlob replaces the named blob atomically.
func (b *Bundle) WriteBlob(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := atomic.WriteFile(filepath.Join(b.dir, key), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}

	return nil
}

// RemoveBlob deletes the named blob. Removing an absent blob is a
// no-op.
func (b *Bundle) RemoveBlob(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(b.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob %s: %w", key, err)
	}

	return nil
}

// Keys lists the blob names in the bundle, sorted, excluding the
// manifest and anything that fails key validation (dotfiles,
// subdirectories).
func (b *Bundle) Keys() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("listing bundle: %w", err)
	}

	var keys []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if ValidateKey(name) != nil {
			continue
		}

		keys = append(keys, name)
	}

	sort.Strings(keys)

	return keys, nil
}

// ValidateKey reports whether key is usable as a blob name.
//
// Keys must be non-empty, must not contain path separators, must not
// start with a dot, and must not collide with the manifest.
func ValidateKey(key string) error {
	if key == "" || key == ManifestName {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}

	if strings.ContainsAny(key, "/\\") || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}

	return nil
}
