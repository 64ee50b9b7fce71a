package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/sebdah/goldie/v2"

	"github.com/driftpursuit/origo/codec"
)

type jsonModel struct {
	Orders []jsonOrder
}

type jsonOrder struct {
	OrderID int    `json:"order_id"`
	Name    string `json:"name"`
}

func insertJSONOrder(payload []byte, model *jsonModel) error {
	var o jsonOrder
	if err := codec.NewJSON(false).DecodeCommand(payload, &o); err != nil {
		return err
	}
	model.Orders = append(model.Orders, o)
	return nil
}

func restoreFnsJSON() map[string]RestoreFunc[jsonModel] {
	return map[string]RestoreFunc[jsonModel]{"InsertOrder": insertJSONOrder}
}

func TestJsonCommitWritesSingleLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")

	s, err := NewJson[jsonModel](path)
	if err != nil {
		t.Fatalf("NewJson: %v", err)
	}
	defer s.Close()

	order := jsonOrder{OrderID: 1, Name: "A"}
	if err := s.Prepare("InsertOrder", order); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, "TestJsonCommitWritesSingleLine", contents)
}

func TestJsonRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")

	s, err := NewJson[jsonModel](path)
	if err != nil {
		t.Fatalf("NewJson: %v", err)
	}

	orders := []jsonOrder{{OrderID: 1, Name: "A"}, {OrderID: 2, Name: "B"}}
	for _, o := range orders {
		if err := s.Prepare("InsertOrder", o); err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if _, err := s.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewJson[jsonModel](path)
	if err != nil {
		t.Fatalf("reopen NewJson: %v", err)
	}
	defer s2.Close()

	model, err := s2.Restore(restoreFnsJSON())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(model.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(model.Orders))
	}
	if model.Orders[0].Name != "A" || model.Orders[1].Name != "B" {
		t.Fatalf("unexpected orders: %+v", model.Orders)
	}
}

func TestJsonRestoreRecoversTornTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")

	s, err := NewJson[jsonModel](path)
	if err != nil {
		t.Fatalf("NewJson: %v", err)
	}
	for _, o := range []jsonOrder{{OrderID: 1, Name: "A"}, {OrderID: 2, Name: "B"}, {OrderID: 3, Name: "C"}} {
		if err := s.Prepare("InsertOrder", o); err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if _, err := s.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(`InsertOrder{"order_id":4,"name":"X"`); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close appended file: %v", err)
	}

	infoBefore, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	s2, err := NewJson[jsonModel](path)
	if err != nil {
		t.Fatalf("reopen NewJson: %v", err)
	}
	defer s2.Close()

	model, err := s2.Restore(restoreFnsJSON())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(model.Orders) != 3 {
		t.Fatalf("expected 3 orders after torn tail recovery, got %d", len(model.Orders))
	}

	infoAfter, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat after restore: %v", err)
	}
	if infoAfter.Size() >= infoBefore.Size() {
		t.Fatalf("expected journal to shrink after torn tail truncation: before=%d after=%d", infoBefore.Size(), infoAfter.Size())
	}

	order4 := jsonOrder{OrderID: 4, Name: "Y"}
	if err := s2.Prepare("InsertOrder", order4); err != nil {
		t.Fatalf("Prepare after recovery: %v", err)
	}
	if _, err := s2.Commit(); err != nil {
		t.Fatalf("Commit after recovery: %v", err)
	}
}

func TestJsonSnapshotTruncatesJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")

	s, err := NewJson[jsonModel](path)
	if err != nil {
		t.Fatalf("NewJson: %v", err)
	}
	defer s.Close()

	if err := s.Prepare("InsertOrder", jsonOrder{OrderID: 1, Name: "A"}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	model := &jsonModel{Orders: []jsonOrder{{OrderID: 1, Name: "A"}}}
	if err := s.Snapshot(model); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat journal: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected journal truncated to 0 after snapshot, got %d bytes", info.Size())
	}
	if !fileExists(filepath.Join(dir, jsonSnapshotFileName)) {
		t.Fatal("expected snap.json to exist after Snapshot")
	}

	restored, err := s.Restore(restoreFnsJSON())
	if err != nil {
		t.Fatalf("Restore after snapshot: %v", err)
	}
	if len(restored.Orders) != 1 || restored.Orders[0].Name != "A" {
		t.Fatalf("unexpected restored model: %+v", restored)
	}
}

func TestJsonSnapshotArchivesJournalWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")

	s, err := NewJson[jsonModel](path, WithJSONArchiveOnSnapshot(true))
	if err != nil {
		t.Fatalf("NewJson: %v", err)
	}
	defer s.Close()

	if err := s.Prepare("InsertOrder", jsonOrder{OrderID: 1, Name: "A"}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := s.Snapshot(&jsonModel{Orders: []jsonOrder{{OrderID: 1, Name: "A"}}}); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("ReadDir archive: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one archived journal, got %d", len(entries))
	}

	compressed, err := os.ReadFile(filepath.Join(dir, "archive", entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile archive: %v", err)
	}
	decoded, err := snappy.Decode(nil, compressed)
	if err != nil {
		t.Fatalf("snappy.Decode: %v", err)
	}
	if string(decoded) != `InsertOrder{"order_id":1,"name":"A"}`+"\n" {
		t.Fatalf("unexpected archived journal contents: %q", decoded)
	}
}
