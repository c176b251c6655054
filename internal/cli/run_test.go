package cli_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/docprop/internal/cli"
)

// runCLI invokes the CLI with an isolated HOME so no real user config
// leaks into the test.
func runCLI(t *testing.T, workDir string, args ...string) (exitCode int, stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer

	argv := append([]string{"dp", "-C", workDir}, args...)
	env := map[string]string{"HOME": t.TempDir()}

	code := cli.Run(strings.NewReader(""), &out, &errOut, argv, env)

	return code, out.String(), errOut.String()
}

func Test_Run_Prints_Usage_Without_Arguments(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(strings.NewReader(""), &out, &errOut, []string{"dp"}, map[string]string{})

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(out.String(), "Usage: dp") {
		t.Fatalf("usage not printed, got:\n%s", out.String())
	}
}

func Test_Run_Rejects_Unknown_Command(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, t.TempDir(), "frobnicate")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(stderr, "unknown command") {
		t.Fatalf("stderr = %q, want unknown command error", stderr)
	}
}

func Test_Init_Then_Set_Then_Get_Round_Trips(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	code, stdout, stderr := runCLI(t, workDir, "init")
	if code != 0 {
		t.Fatalf("init failed: %s", stderr)
	}

	if !strings.Contains(stdout, "created") {
		t.Fatalf("init output = %q, want created line", stdout)
	}

	code, _, stderr = runCLI(t, workDir, "set", "text", "hello from the CLI")
	if code != 0 {
		t.Fatalf("set failed: %s", stderr)
	}

	code, stdout, stderr = runCLI(t, workDir, "get", "text")
	if code != 0 {
		t.Fatalf("get failed: %s", stderr)
	}

	if strings.TrimSpace(stdout) != "hello from the CLI" {
		t.Fatalf("get output = %q, want the stored text", stdout)
	}
}

func Test_Set_Updates_Metadata_And_Custom_Properties(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	if code, _, stderr := runCLI(t, workDir, "init"); code != 0 {
		t.Fatalf("init failed: %s", stderr)
	}

	steps := [][]string{
		{"set", "title", "My Document"},
		{"set", "tags+draft", "x"},
		{"set", "label", "urgent"},
	}

	for _, step := range steps {
		if code, _, stderr := runCLI(t, workDir, step...); code != 0 {
			t.Fatalf("%v failed: %s", step, stderr)
		}
	}

	code, stdout, _ := runCLI(t, workDir, "get", "title")
	if code != 0 || strings.TrimSpace(stdout) != "My Document" {
		t.Fatalf("get title = %q (code %d), want My Document", stdout, code)
	}

	code, stdout, _ = runCLI(t, workDir, "get", "tags")
	if code != 0 || strings.TrimSpace(stdout) != "draft" {
		t.Fatalf("get tags = %q (code %d), want draft", stdout, code)
	}

	code, stdout, _ = runCLI(t, workDir, "props")
	if code != 0 || strings.TrimSpace(stdout) != "label" {
		t.Fatalf("props = %q (code %d), want label", stdout, code)
	}
}

func Test_Get_Fails_When_Bundle_Missing(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, t.TempDir(), "get", "text")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(stderr, "not a document bundle") {
		t.Fatalf("stderr = %q, want bundle error", stderr)
	}
}

func Test_Bundle_Flag_Selects_Bundle_Outside_WorkDir(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	bundleDir := filepath.Join(t.TempDir(), "elsewhere.bundle")

	if code, _, stderr := runCLI(t, workDir, "-b", bundleDir, "init"); code != 0 {
		t.Fatalf("init failed: %s", stderr)
	}

	if code, _, stderr := runCLI(t, workDir, "-b", bundleDir, "set", "text", "x"); code != 0 {
		t.Fatalf("set failed: %s", stderr)
	}

	code, stdout, _ := runCLI(t, workDir, "-b", bundleDir, "get", "text")
	if code != 0 || strings.TrimSpace(stdout) != "x" {
		t.Fatalf("get = %q (code %d), want x", stdout, code)
	}
}

func Test_Command_Help_Flag_Prints_Command_Help(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI(t, t.TempDir(), "set", "--help")

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(stdout, "Usage: dp set") {
		t.Fatalf("help output = %q, want set usage", stdout)
	}
}
