package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCmdWritesSampleConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".sitemirror")

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "sites:") {
		t.Errorf("sample config missing the sites section:\n%s", data)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output = %q, want it to name the written path", out.String())
	}
}

func TestInitCmdRefusesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".sitemirror")
	if err := os.WriteFile(path, []byte("keep me"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := NewInitCmd()
	cmd.SetOut(bytes.NewBuffer(nil))
	cmd.SetArgs([]string{"--path", path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() on an existing file returned nil error")
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "keep me" {
		t.Errorf("existing file was modified: %q, %v", data, err)
	}
}
