package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWalkTree(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "b", "c"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"z.txt", "a.txt", "b/c/out.log"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tree, err := WalkTree(root)
	if err != nil {
		t.Fatalf("WalkTree failed: %v", err)
	}

	wantDirs := []string{root, filepath.Join(root, "b"), filepath.Join(root, "b", "c")}
	if strings.Join(tree.Dirs, ",") != strings.Join(wantDirs, ",") {
		t.Errorf("Dirs = %v; want %v", tree.Dirs, wantDirs)
	}
	wantFiles := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b", "c", "out.log"),
		filepath.Join(root, "z.txt"),
	}
	if strings.Join(tree.Files, ",") != strings.Join(wantFiles, ",") {
		t.Errorf("Files = %v; want %v", tree.Files, wantFiles)
	}
}

func TestWalkTreeMissingRoot(t *testing.T) {
	if _, err := WalkTree(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.queues", filepath.Join(home, ".queues")},
		{"/abs/path", "/abs/path"},
		{"relative/~x", "relative/~x"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x", "y")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !DirExists(dir) {
		t.Fatalf("expected %s to exist", dir)
	}
	if FileExists(dir) {
		t.Errorf("FileExists(%s) = true for a directory", dir)
	}
}

func TestPrintersRespectModes(t *testing.T) {
	var out, errOut bytes.Buffer
	origOut, origErr := stdout, stderr
	stdout, stderr = &out, &errOut
	defer func() { stdout, stderr = origOut, origErr }()

	origQuiet, origDebug := QuietMode, DebugMode
	defer func() { QuietMode, DebugMode = origQuiet, origDebug }()

	QuietMode = true
	DebugMode = false
	PrintMessage("hidden")
	PrintWarning("shown %d", 1)
	PrintDebug("hidden debug")

	if out.Len() != 0 {
		t.Errorf("quiet mode printed to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[QA]") || !strings.Contains(errOut.String(), "shown 1") {
		t.Errorf("warning missing from stderr: %q", errOut.String())
	}
	if strings.Contains(errOut.String(), "hidden debug") {
		t.Errorf("debug printed while DebugMode is off")
	}
}
