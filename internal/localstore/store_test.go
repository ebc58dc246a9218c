package localstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brendonchen/questsync/internal/quest"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "questsync.json")
	store := NewFileStore(path)

	rec := quest.DefaultRecord("Alice")
	rec.Touch(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	rec.Int.Tasks[0].Completed = true

	in := &State{
		Quest:      rec,
		TotalDays:  7,
		History:    []quest.HistoryEntry{{Date: "2024-03-01"}},
		PlayerName: "Alice",
		AppVersion: "1.1.0",
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out == nil {
		t.Fatal("Load returned nil after Save")
	}
	if out.TotalDays != 7 || out.PlayerName != "Alice" || out.AppVersion != "1.1.0" {
		t.Errorf("metadata did not round-trip: %+v", out)
	}
	if !out.Quest.Int.Tasks[0].Completed {
		t.Error("quest record did not round-trip")
	}
	if out.Quest.LastUpdate == nil || !out.Quest.LastUpdate.Equal(*rec.LastUpdate) {
		t.Error("lastUpdate did not round-trip")
	}
	if len(out.History) != 1 || out.History[0].Date != "2024-03-01" {
		t.Error("history did not round-trip")
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	state, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if state != nil {
		t.Error("missing file should load as nil state")
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if _, err := store.Load(); err == nil {
		t.Error("corrupt state file should surface a parse error")
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "state.json"))

	if err := store.Save(&State{Quest: quest.DefaultRecord("")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestMemStoreCopies(t *testing.T) {
	store := NewMemStore(nil)

	rec := quest.DefaultRecord("Bob")
	if err := store.Save(&State{Quest: rec}); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	loaded.Quest.Str.DailyTasks[0].Completed = true

	again, _ := store.Load()
	if again.Quest.Str.DailyTasks[0].Completed {
		t.Error("MemStore leaked a shared record between loads")
	}
	if store.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", store.Saves())
	}
}

func TestWatcherSeesRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	store := NewFileStore(path)
	if err := store.Save(&State{Quest: quest.DefaultRecord("")}); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Simulate a second process rewriting the state file.
	if err := store.Save(&State{Quest: quest.DefaultRecord("Other"), TotalDays: 2}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the rewrite")
	}
}
