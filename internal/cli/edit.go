package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/docprop/internal/document"
	"github.com/calvinalkan/docprop/pkg/prop"
)

func cmdEdit() *Command {
	return &Command{
		Usage: "edit",
		Short: "Edit the document interactively",
		Long: "Edit the document in an interactive session.\n" +
			"Changes accumulate in memory and reach the bundle on 'save'.\n" +
			"Type 'help' inside the session for the command list.",
		Exec: func(o *IO, cfg Config, _ []string) error {
			d, err := openDocument(cfg)
			if err != nil {
				return err
			}

			session := newEditSession(o, d)
			defer session.close()

			return session.run(cfg.History)
		},
	}
}

// editSession is the interactive command loop of "dp edit".
type editSession struct {
	o   *IO
	doc *document.Document

	// Watch subscriptions. Tokens are released on unwatch and,
	// unconditionally, on session close.
	watching  bool
	textToken prop.Token
	metaToken prop.Token
}

func newEditSession(o *IO, d *document.Document) *editSession {
	return &editSession{o: o, doc: d}
}

// run drives the prompt loop until quit or EOF.
func (s *editSession) run(historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil { //nolint:gosec // path comes from config
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	s.o.Println("editing", s.doc.Bundle().Dir())
	s.o.Println("Type 'help' for commands, 'save' to write, 'quit' to leave.")

	for {
		input, err := line.Prompt("dp> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.warnUnsaved()

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if quit := s.dispatch(input); quit {
			break
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil { //nolint:gosec // path comes from config
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}

	return nil
}

// dispatch executes one session command. Returns true when the session
// should end.
func (s *editSession) dispatch(input string) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		if s.doc.Modified() {
			s.o.Println("unsaved changes; 'save' first or 'quit!' to discard them")

			return false
		}

		return true

	case "quit!", "exit!":
		return true

	case "help", "?":
		s.printHelp()

	case "show":
		s.show()

	case "status":
		s.status()

	case "text":
		s.doc.SetText(rest)

	case "append":
		s.doc.AppendText(rest)

	case "title":
		s.doc.SetTitle(rest)

	case "author":
		s.doc.SetAuthor(rest)

	case "tag":
		if rest == "" {
			s.o.Println("usage: tag <name>")
		} else {
			s.doc.AddTag(rest)
		}

	case "untag":
		if rest == "" {
			s.o.Println("usage: untag <name>")
		} else {
			s.doc.RemoveTag(rest)
		}

	case "get":
		if rest == "" {
			s.o.Println("usage: get <key>")
		} else if value, err := getProperty(s.doc, rest); err != nil {
			s.o.ErrPrintln("error:", err)
		} else {
			s.o.Println(value)
		}

	case "set":
		key, value, _ := strings.Cut(rest, " ")
		if key == "" {
			s.o.Println("usage: set <key> <value>")
		} else if err := setProperty(s.doc, key, strings.TrimSpace(value)); err != nil {
			s.o.ErrPrintln("error:", err)
		}

	case "watch":
		s.watch()

	case "unwatch":
		s.unwatch()

	case "undo":
		if !s.doc.Undo() {
			s.o.Println("nothing to undo")
		}

	case "revert":
		s.doc.Revert()
		s.o.Println("reverted to last saved state")

	case "save":
		if err := s.doc.Save(); err != nil {
			s.o.ErrPrintln("error:", err)
		} else {
			s.o.Println("saved")
		}

	default:
		s.o.Printf("unknown command %q (type 'help' for commands)\n", cmd)
	}

	return false
}

// watch subscribes to the text and metadata properties; every change is
// printed as it happens, starting with the current state.
func (s *editSession) watch() {
	if s.watching {
		s.o.Println("already watching")

		return
	}

	s.textToken = s.doc.Text().Subscribe(func(st prop.State[string]) {
		if st.Err != nil {
			s.o.Printf("[%s] text: error: %v\n", st.Source, st.Err)

			return
		}

		s.o.Printf("[%s] text: %q\n", st.Source, st.Value)
	})

	s.metaToken = s.doc.Meta().Subscribe(func(st prop.State[document.Meta]) {
		if st.Err != nil {
			s.o.Printf("[%s] meta: error: %v\n", st.Source, st.Err)

			return
		}

		s.o.Printf("[%s] meta: title=%q author=%q tags=%v\n",
			st.Source, st.Value.Title, st.Value.Author, st.Value.Tags)
	})

	s.watching = true
}

func (s *editSession) unwatch() {
	if !s.watching {
		return
	}

	s.doc.Text().Unsubscribe(s.textToken)
	s.doc.Meta().Unsubscribe(s.metaToken)
	s.watching = false
}

// close releases the session's subscriptions. Safe to call after any
// exit path of run.
func (s *editSession) close() {
	s.unwatch()
}

func (s *editSession) warnUnsaved() {
	if s.doc.Modified() {
		s.o.Warn("session ended with unsaved changes; they are lost")
	}
}

func (s *editSession) show() {
	meta, err := s.doc.Meta().Value()
	if err != nil {
		s.o.ErrPrintln("error:", err)

		return
	}

	s.o.Printf("title: %s\nauthor: %s\ntags: %s\n",
		meta.Title, meta.Author, strings.Join(meta.Tags, ", "))

	text, err := s.doc.Text().Value()
	if err != nil {
		s.o.ErrPrintln("error:", err)

		return
	}

	s.o.Println()
	s.o.Println(text)
}

func (s *editSession) status() {
	state := "saved"
	if s.doc.Modified() {
		state = "unsaved changes"
	}

	s.o.Println("document:", s.doc.Bundle().DocumentID())
	s.o.Println("state:", state)

	if s.doc.CanUndo() {
		s.o.Println("undo: available")
	}
}

func (s *editSession) printHelp() {
	s.o.Println("Commands:")
	s.o.Println("  show                print body and metadata")
	s.o.Println("  status              document id and save state")
	s.o.Println("  text <body>         replace the body")
	s.o.Println("  append <s>          append to the body")
	s.o.Println("  title <s>           set the title")
	s.o.Println("  author <s>          set the author")
	s.o.Println("  tag <t> / untag <t> add or remove a tag")
	s.o.Println("  get <key>           print a property")
	s.o.Println("  set <key> <value>   set a property")
	s.o.Println("  watch / unwatch     print changes as they happen")
	s.o.Println("  undo                revert the last edit")
	s.o.Println("  revert              discard all unsaved changes")
	s.o.Println("  save                write dirty properties to the bundle")
	s.o.Println("  quit                leave (quit! discards unsaved changes)")
}
