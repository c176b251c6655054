// Package document composes cached properties over a bundle into one
// editable document: a UTF-8 body, a JSON metadata record, and
// free-form keyed string properties.
//
// All property state lives in memory between saves; Save flushes every
// dirty property to the bundle in registration order.
package document

import (
	"slices"
	"time"

	"github.com/calvinalkan/docprop/internal/bundle"
	"github.com/calvinalkan/docprop/pkg/prop"
)

// Document owns the cached properties of one open bundle.
//
// A Document must be obtained via [Open]. It is exclusively owned by
// one caller and is not safe for concurrent use; its properties must
// not be shared with another Document.
type Document struct {
	bundle   *bundle.Bundle
	saver    prop.Saver
	registry *prop.Registry

	text *prop.Property[string]
	meta *prop.Property[Meta]

	// modified is the document-level unsaved-state flag, driven by the
	// shared property dirty-hook.
	modified bool

	undo []undoRecord

	now func() time.Time
}

// Open wires the built-in properties over b and returns the document.
// Panics if b is nil.
func Open(b *bundle.Bundle) *Document {
	if b == nil {
		panic("document: bundle is nil")
	}

	d := &Document{bundle: b, now: time.Now}
	d.registry = prop.NewRegistry(&d.saver)

	// Registration order is flush order: body first, metadata second,
	// custom properties in first-request order after that.
	d.text = prop.Get(d.registry, "text", func() *prop.Property[string] {
		return prop.New[string](textBinding{bundle: b}, d.propDidChange)
	})
	d.meta = prop.Get(d.registry, "meta", func() *prop.Property[Meta] {
		return prop.New[Meta](metaBinding{bundle: b}, d.propDidChange)
	})

	return d
}

// Bundle returns the backing bundle.
func (d *Document) Bundle() *bundle.Bundle {
	return d.bundle
}

// Text returns the body property.
func (d *Document) Text() *prop.Property[string] {
	return d.text
}

// Meta returns the metadata property.
func (d *Document) Meta() *prop.Property[Meta] {
	return d.meta
}

// Prop returns the free-form string property named key, constructing it
// on first request. The same key always returns the same instance for
// the lifetime of this document.
func (d *Document) Prop(key string) (*prop.Property[string], error) {
	blob := customPropPrefix + key

	if err := bundle.ValidateKey(blob); err != nil {
		return nil, err
	}

	p := prop.Get(d.registry, blob, func() *prop.Property[string] {
		return prop.New[string](stringBinding{bundle: d.bundle, blob: blob}, d.propDidChange)
	})

	return p, nil
}

// PropKeys lists the keys of custom properties persisted in the bundle.
func (d *Document) PropKeys() ([]string, error) {
	blobs, err := d.bundle.Keys()
	if err != nil {
		return nil, err
	}

	var keys []string

	for _, blob := range blobs {
		if len(blob) > len(customPropPrefix) && blob[:len(customPropPrefix)] == customPropPrefix {
			keys = append(keys, blob[len(customPropPrefix):])
		}
	}

	return keys, nil
}

// Modified reports whether the document has unsaved changes.
func (d *Document) Modified() bool {
	return d.modified
}

// SetText replaces the body and records an undo step.
func (d *Document) SetText(s string) {
	recordUndo(d, d.text)
	d.text.Set(s)
}

// AppendText appends s to the body and records an undo step.
func (d *Document) AppendText(s string) {
	recordUndo(d, d.text)
	d.text.Mutate(func(cur string) string { return cur + s })
}

// UpdateMeta applies f to the metadata record and records an undo step.
func (d *Document) UpdateMeta(f func(Meta) Meta) {
	recordUndo(d, d.meta)
	d.meta.Mutate(f)
}

// SetTitle sets the metadata title.
func (d *Document) SetTitle(title string) {
	d.UpdateMeta(func(m Meta) Meta {
		m.Title = title

		return m
	})
}

// SetAuthor sets the metadata author.
func (d *Document) SetAuthor(author string) {
	d.UpdateMeta(func(m Meta) Meta {
		m.Author = author

		return m
	})
}

// AddTag appends tag to the metadata tags if not already present.
func (d *Document) AddTag(tag string) {
	d.UpdateMeta(func(m Meta) Meta {
		if slices.Contains(m.Tags, tag) {
			return m
		}

		m.Tags = append(slices.Clone(m.Tags), tag)

		return m
	})
}

// RemoveTag removes tag from the metadata tags if present.
func (d *Document) RemoveTag(tag string) {
	d.UpdateMeta(func(m Meta) Meta {
		m.Tags = slices.DeleteFunc(slices.Clone(m.Tags), func(t string) bool {
			return t == tag
		})

		if len(m.Tags) == 0 {
			m.Tags = nil
		}

		return m
	})
}

// Save flushes every dirty property to the bundle in registration
// order. A document with no unsaved changes saves as a no-op.
//
// Before flushing, the metadata timestamps are stamped: Created on the
// first save, Modified on every save. On failure the save aborts at the
// failing property; properties not yet reached stay dirty and are
// retried by the next Save.
func (d *Document) Save() error {
	if !d.modified {
		return nil
	}

	stamp := d.now().UTC()

	d.meta.Mutate(func(m Meta) Meta {
		if m.Created.IsZero() {
			m.Created = stamp
		}

		m.Modified = stamp

		return m
	})

	if err := d.saver.FlushAll(); err != nil {
		return err
	}

	d.modified = false

	return nil
}

// Revert throws away all in-memory property state, including unsaved
// edits and memoized read failures, so the next access re-reads the
// bundle from disk. The undo stack is cleared: its records point at
// state that no longer exists.
func (d *Document) Revert() {
	d.registry.DiscardAll()
	d.undo = nil
	d.modified = false
}

// propDidChange is the dirty hook shared by every property of this
// document.
func (d *Document) propDidChange() {
	d.modified = true
}
