package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCmdCreatesConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".empresascan")

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-o", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if !strings.Contains(string(content), "sites:") {
		t.Errorf("template missing sites section:\n%s", content)
	}
	if !strings.Contains(out.String(), "Created configuration file") {
		t.Errorf("missing confirmation output:\n%s", out.String())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestInitCmdRefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".empresascan")
	if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing file")
	}

	content, _ := os.ReadFile(path)
	if string(content) != "existing" {
		t.Error("existing file was modified")
	}
}

func TestInitCmdForceOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".empresascan")
	if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", path, "-f"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) == "existing" {
		t.Error("file was not overwritten")
	}
}

func TestInitCmdCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}
