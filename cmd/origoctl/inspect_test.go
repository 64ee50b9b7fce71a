package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInspectJSONJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")
	content := "InsertOrder{\"order_id\":1,\"name\":\"A\"}\nInsertOrder{\"order_id\":2,\"name\":\"B\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf := &bytes.Buffer{}
	opts := &RootOptions{Variant: "json"}
	cmd := newInspectCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "InsertOrder") {
		t.Fatalf("expected output to mention InsertOrder, got %q", output)
	}
	if strings.Count(output, "InsertOrder") != 2 {
		t.Fatalf("expected 2 records listed, got output %q", output)
	}
}

func TestInspectDiskJournalRejectsHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.origo")
	// Header claims 5 committed records but the file has none after it.
	header := make([]byte, 8)
	header[0] = 5
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf := &bytes.Buffer{}
	opts := &RootOptions{Variant: "disk"}
	cmd := newInspectCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected inspect to report a header/record count mismatch")
	}
}
