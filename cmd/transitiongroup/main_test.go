package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayCommand(t *testing.T) {
	out, err := execute(t, "replay", filepath.Join("testdata", "middle.toml"))
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	want := strings.Join([]string{
		"# middle removal",
		"pass 1: a b c",
		"pass 2: a [b] c",
		"pass 3: a [b] c",
		"pass 4: a c  (invalidated x1)",
		"",
	}, "\n")
	if out != want {
		t.Fatalf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestReplayCommand_BadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[[step]]\ntick = \"later\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "replay", path); err == nil || !strings.Contains(err.Error(), "E130") {
		t.Fatalf("replay error = %v, want E130", err)
	}
}

func TestReplayCommand_RequiresArg(t *testing.T) {
	if _, err := execute(t, "replay"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestConfigErrorsSurface(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "transitiongroup.json"), []byte(`{"dev": {"port": -1}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", dir, "version", "--short"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "E120") {
		t.Fatalf("error = %v, want E120", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if out != version+"\n" {
		t.Fatalf("output = %q", out)
	}
}
