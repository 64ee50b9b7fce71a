package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReplayJSONJournalOK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")
	content := "InsertOrder{\"order_id\":1,\"name\":\"A\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf := &bytes.Buffer{}
	opts := &RootOptions{Variant: "json"}
	cmd := newReplayCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "OK: 1 records") {
		t.Fatalf("expected OK summary, got %q", buf.String())
	}
}

func TestReplayJSONJournalRecoversTornTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")
	content := "InsertOrder{\"order_id\":1,\"name\":\"A\"}\nInsertOrder{\"order_id\":2,\"name\":\"B\""
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf := &bytes.Buffer{}
	opts := &RootOptions{Variant: "json"}
	cmd := newReplayCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "torn tail recovered") {
		t.Fatalf("expected torn tail message, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "OK: 1 records") {
		t.Fatalf("expected the one complete record to be counted, got %q", buf.String())
	}
}

func TestReplayDiskJournalRejectsHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.origo")
	header := make([]byte, 8)
	header[0] = 3
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf := &bytes.Buffer{}
	opts := &RootOptions{Variant: "disk"}
	cmd := newReplayCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a header count with no matching records")
	}
}
