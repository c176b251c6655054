package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/calvinalkan/docprop/internal/bundle"
)

// Blob keys inside the bundle.
const (
	textBlobKey = "body.txt"
	metaBlobKey = "meta.json"

	// customPropPrefix namespaces free-form string properties so they
	// can never collide with the built-in blobs.
	customPropPrefix = "prop."
)

// ErrTextEncoding indicates a body blob that is not valid UTF-8.
var ErrTextEncoding = errors.New("body is not valid UTF-8")

// Meta is the document metadata record.
type Meta struct {
	Title    string    `json:"title,omitempty"`
	Author   string    `json:"author,omitempty"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Tags     []string  `json:"tags,omitempty"`
}

// textBinding stores the document body as a UTF-8 blob. An absent blob
// reads as the empty body.
type textBinding struct {
	bundle *bundle.Bundle
}

func (t textBinding) Read() (string, error) {
	data, ok, err := t.bundle.ReadBlob(textBlobKey)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", nil
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", textBlobKey, ErrTextEncoding)
	}

	return string(data), nil
}

func (t textBinding) Write(v string) error {
	return t.bundle.WriteBlob(textBlobKey, []byte(v))
}

// metaBinding stores the metadata record as JSON. An absent blob reads
// as the zero record.
type metaBinding struct {
	bundle *bundle.Bundle
}

func (m metaBinding) Read() (Meta, error) {
	data, ok, err := m.bundle.ReadBlob(metaBlobKey)
	if err != nil {
		return Meta{}, err
	}

	if !ok {
		return Meta{}, nil
	}

	var meta Meta

	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("%s: decoding metadata: %w", metaBlobKey, err)
	}

	return meta, nil
}

func (m metaBinding) Write(v Meta) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: encoding metadata: %w", metaBlobKey, err)
	}

	return m.bundle.WriteBlob(metaBlobKey, append(data, '\n'))
}

// stringBinding stores a free-form string property under its own
// namespaced blob. An absent blob reads as the empty string.
type stringBinding struct {
	bundle *bundle.Bundle
	blob   string
}

func (s stringBinding) Read() (string, error) {
	data, ok, err := s.bundle.ReadBlob(s.blob)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", nil
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", s.blob, ErrTextEncoding)
	}

	return string(data), nil
}

func (s stringBinding) Write(v string) error {
	return s.bundle.WriteBlob(s.blob, []byte(v))
}
