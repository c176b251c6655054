package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/docprop/internal/bundle"
	"github.com/calvinalkan/docprop/internal/document"
)

// newTestSession builds an edit session over a fresh bundle and returns
// the session plus its output buffers.
func newTestSession(t *testing.T) (*editSession, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	b, err := bundle.Create(filepath.Join(t.TempDir(), "doc.bundle"))
	if err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer

	o := NewIO(strings.NewReader(""), &out, &errOut)

	return newEditSession(o, document.Open(b)), &out, &errOut
}

func Test_Edit_Session_Edits_Accumulate_Until_Save(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(t)
	defer s.close()

	s.dispatch("text hello")
	s.dispatch("title Greeting")

	if !s.doc.Modified() {
		t.Fatal("document not modified after edits")
	}

	// Nothing reached the bundle yet.
	if _, ok, _ := s.doc.Bundle().ReadBlob("body.txt"); ok {
		t.Fatal("body written before save")
	}

	s.dispatch("save")

	if s.doc.Modified() {
		t.Fatal("document still modified after save")
	}

	data, ok, err := s.doc.Bundle().ReadBlob("body.txt")
	if err != nil || !ok {
		t.Fatalf("body blob after save: ok=%v err=%v", ok, err)
	}

	if string(data) != "hello" {
		t.Fatalf("body blob = %q, want hello", data)
	}
}

func Test_Edit_Session_Quit_Refuses_With_Unsaved_Changes(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestSession(t)
	defer s.close()

	s.dispatch("text unsaved")

	if quit := s.dispatch("quit"); quit {
		t.Fatal("quit succeeded despite unsaved changes")
	}

	if !strings.Contains(out.String(), "unsaved changes") {
		t.Fatalf("output = %q, want unsaved changes warning", out.String())
	}

	if quit := s.dispatch("quit!"); !quit {
		t.Fatal("quit! did not end the session")
	}
}

func Test_Edit_Session_Watch_Prints_Changes(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestSession(t)
	defer s.close()

	s.dispatch("watch")

	out.Reset()

	s.dispatch("text hello")

	if !strings.Contains(out.String(), `text: "hello"`) {
		t.Fatalf("output = %q, want watch notification", out.String())
	}

	if !strings.Contains(out.String(), "[modified]") {
		t.Fatalf("output = %q, want modified source tag", out.String())
	}

	s.dispatch("unwatch")
	out.Reset()

	s.dispatch("text silent")

	if strings.Contains(out.String(), "silent") {
		t.Fatalf("output = %q, want no notification after unwatch", out.String())
	}
}

func Test_Edit_Session_Undo_And_Revert(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(t)
	defer s.close()

	s.dispatch("text first")
	s.dispatch("save")
	s.dispatch("text second")
	s.dispatch("undo")

	text, err := s.doc.Text().Value()
	if err != nil {
		t.Fatal(err)
	}

	if text != "first" {
		t.Fatalf("body after undo = %q, want first", text)
	}

	s.dispatch("text scratch")
	s.dispatch("revert")

	if s.doc.Modified() {
		t.Fatal("document modified after revert")
	}

	text, err = s.doc.Text().Value()
	if err != nil {
		t.Fatal(err)
	}

	if text != "first" {
		t.Fatalf("body after revert = %q, want first", text)
	}
}

func Test_Edit_Session_Reports_Unknown_Command(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestSession(t)
	defer s.close()

	s.dispatch("frobnicate now")

	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("output = %q, want unknown command message", out.String())
	}
}
