package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/docprop/internal/bundle"
	"github.com/calvinalkan/docprop/internal/document"
)

var (
	errDirRequired   = errors.New("directory argument is required")
	errKeyRequired   = errors.New("property key is required")
	errValueRequired = errors.New("property value is required")
	errTagsReadOnly  = errors.New(`"tags" cannot be set directly; use tags+<tag> / tags-<tag>`)
)

// Built-in property keys understood by get/set.
const (
	keyText   = "text"
	keyTitle  = "title"
	keyAuthor = "author"
	keyTags   = "tags"
)

// openDocument opens the configured bundle as a document.
func openDocument(cfg Config) (*document.Document, error) {
	b, err := bundle.Open(cfg.BundleAbs)
	if err != nil {
		return nil, err
	}

	return document.Open(b), nil
}

func cmdInit() *Command {
	return &Command{
		Usage: "init [dir]",
		Short: "Create a new document bundle",
		Long: "Create a new document bundle at dir.\n" +
			"Without an argument, the configured bundle path is used.",
		Exec: func(o *IO, cfg Config, args []string) error {
			dir := cfg.BundleAbs
			if len(args) > 0 {
				dir = args[0]
				if !filepath.IsAbs(dir) {
					dir = filepath.Join(cfg.EffectiveCwd, dir)
				}
			}

			if dir == "" {
				return errDirRequired
			}

			b, err := bundle.Create(dir)
			if err != nil {
				return err
			}

			o.Println("created", dir)
			o.Println("document", b.DocumentID())

			return nil
		},
	}
}

func cmdShow() *Command {
	return &Command{
		Usage: "show",
		Short: "Print the document body and metadata",
		Exec: func(o *IO, cfg Config, _ []string) error {
			d, err := openDocument(cfg)
			if err != nil {
				return err
			}

			meta, err := d.Meta().Value()
			if err != nil {
				return err
			}

			if meta.Title != "" {
				o.Println("title:", meta.Title)
			}

			if meta.Author != "" {
				o.Println("author:", meta.Author)
			}

			if len(meta.Tags) > 0 {
				o.Println("tags:", strings.Join(meta.Tags, ", "))
			}

			if !meta.Modified.IsZero() {
				o.Println("modified:", meta.Modified.Format("2006-01-02 15:04:05"))
			}

			text, err := d.Text().Value()
			if err != nil {
				return err
			}

			if text != "" {
				o.Println()
				o.Println(text)
			}

			return nil
		},
	}
}

func cmdGet() *Command {
	return &Command{
		Usage: "get <key>",
		Short: "Print one property value",
		Long: "Print one property value.\n" +
			"Keys: text, title, author, tags, or any custom property name.",
		Exec: func(o *IO, cfg Config, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			d, err := openDocument(cfg)
			if err != nil {
				return err
			}

			value, err := getProperty(d, args[0])
			if err != nil {
				return err
			}

			o.Println(value)

			return nil
		},
	}
}

func cmdSet() *Command {
	return &Command{
		Usage: "set <key> <value>",
		Short: "Set one property value and save",
		Long: "Set one property value and save the document.\n" +
			"Keys: text, title, author, tags+<tag>, tags-<tag>, or any\n" +
			"custom property name.",
		Exec: func(o *IO, cfg Config, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			if len(args) < 2 {
				return errValueRequired
			}

			d, err := openDocument(cfg)
			if err != nil {
				return err
			}

			if err := setProperty(d, args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}

			return d.Save()
		},
	}
}

func cmdProps() *Command {
	return &Command{
		Usage: "props",
		Short: "List custom property keys",
		Exec: func(o *IO, cfg Config, _ []string) error {
			d, err := openDocument(cfg)
			if err != nil {
				return err
			}

			keys, err := d.PropKeys()
			if err != nil {
				return err
			}

			for _, key := range keys {
				o.Println(key)
			}

			return nil
		},
	}
}

func cmdInfo() *Command {
	return &Command{
		Usage: "info",
		Short: "Print bundle details",
		Exec: func(o *IO, cfg Config, _ []string) error {
			b, err := bundle.Open(cfg.BundleAbs)
			if err != nil {
				return err
			}

			o.Println("bundle:", b.Dir())
			o.Println("document:", b.DocumentID())

			keys, err := b.Keys()
			if err != nil {
				return err
			}

			o.Println("blobs:", strings.Join(keys, ", "))

			return nil
		},
	}
}

// getProperty resolves key against the built-in properties, falling
// back to custom properties.
func getProperty(d *document.Document, key string) (string, error) {
	switch key {
	case keyText:
		return d.Text().Value()
	case keyTitle:
		meta, err := d.Meta().Value()
		if err != nil {
			return "", err
		}

		return meta.Title, nil
	case keyAuthor:
		meta, err := d.Meta().Value()
		if err != nil {
			return "", err
		}

		return meta.Author, nil
	case keyTags:
		meta, err := d.Meta().Value()
		if err != nil {
			return "", err
		}

		return strings.Join(meta.Tags, ", "), nil
	default:
		p, err := d.Prop(key)
		if err != nil {
			return "", err
		}

		return p.Value()
	}
}

// setProperty applies one edit to the document without saving.
func setProperty(d *document.Document, key, value string) error {
	// tags+x / tags-x add and remove a single tag.
	if tag, ok := strings.CutPrefix(key, keyTags+"+"); ok && tag != "" {
		d.AddTag(tag)

		return nil
	}

	if tag, ok := strings.CutPrefix(key, keyTags+"-"); ok && tag != "" {
		d.RemoveTag(tag)

		return nil
	}

	switch key {
	case keyText:
		d.SetText(value)
	case keyTitle:
		d.SetTitle(value)
	case keyAuthor:
		d.SetAuthor(value)
	case keyTags:
		return errTagsReadOnly
	default:
		p, err := d.Prop(key)
		if err != nil {
			return err
		}

		// Force the lazy read first so a corrupt blob surfaces as an
		// error instead of being silently overwritten.
		if _, err := p.Value(); err != nil {
			return fmt.Errorf("refusing to overwrite unreadable property %q: %w", key, err)
		}

		p.Set(value)
	}

	return nil
}
