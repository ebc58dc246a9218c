package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/brendonchen/questsync/internal/quest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sheet.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustRow(t *testing.T, date string) []any {
	t.Helper()
	row, err := EncodeRow(quest.DefaultRecord("Alice"), date, time.Now())
	if err != nil {
		t.Fatalf("failed to encode row: %v", err)
	}
	return row
}

func TestStoreUpsertCreatesThenUpdates(t *testing.T) {
	store := openTestStore(t)

	action, err := store.UpsertDay("2024-03-01", mustRow(t, "2024-03-01"))
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if action != "created" {
		t.Errorf("action = %q, want created", action)
	}

	row := mustRow(t, "2024-03-01")
	row[2] = "Bob"
	action, err = store.UpsertDay("2024-03-01", row)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if action != "updated" {
		t.Errorf("action = %q, want updated", action)
	}

	cells, ok, err := store.Day("2024-03-01")
	if err != nil || !ok {
		t.Fatalf("Day failed: ok=%v err=%v", ok, err)
	}
	if cellString(cells[2]) != "Bob" {
		t.Errorf("player cell = %q, want Bob", cells[2])
	}

	total, err := store.TotalDays()
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("totalDays = %d; an update must not add a day", total)
	}
}

func TestStoreRejectsColumnMismatch(t *testing.T) {
	store := openTestStore(t)

	row := mustRow(t, "2024-03-01")
	_, err := store.UpsertDay("2024-03-01", row[:len(row)-2])
	if !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("err = %v, want ErrColumnMismatch", err)
	}

	// The failed write must leave the store untouched.
	if total, _ := store.TotalDays(); total != 0 {
		t.Errorf("totalDays = %d after a rejected write, want 0", total)
	}
}

func TestStoreTotalDaysExcludesHeader(t *testing.T) {
	store := openTestStore(t)

	for day := 1; day <= 3; day++ {
		date := fmt.Sprintf("2024-03-%02d", day)
		if _, err := store.UpsertDay(date, mustRow(t, date)); err != nil {
			t.Fatal(err)
		}
	}

	total, err := store.TotalDays()
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("totalDays = %d, want 3", total)
	}
}

func TestStorePrevDay(t *testing.T) {
	store := openTestStore(t)

	for _, date := range []string{"2024-02-28", "2024-02-29", "2024-03-02"} {
		if _, err := store.UpsertDay(date, mustRow(t, date)); err != nil {
			t.Fatal(err)
		}
	}

	cells, ok, err := store.PrevDay("2024-03-02")
	if err != nil || !ok {
		t.Fatalf("PrevDay failed: ok=%v err=%v", ok, err)
	}
	if RowDate(cells) != "2024-02-29" {
		t.Errorf("previous row date = %q, want 2024-02-29", RowDate(cells))
	}

	if _, ok, _ := store.PrevDay("2024-02-28"); ok {
		t.Error("no row predates the first day")
	}
}

func TestStoreHistoryChronologicalAndCapped(t *testing.T) {
	store := openTestStore(t)

	for day := 1; day <= 5; day++ {
		date := fmt.Sprintf("2024-03-%02d", day)
		if _, err := store.UpsertDay(date, mustRow(t, date)); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := store.History(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("history rows = %d, want 3", len(rows))
	}
	want := []string{"2024-03-03", "2024-03-04", "2024-03-05"}
	for i, row := range rows {
		if RowDate(row) != want[i] {
			t.Errorf("row %d date = %q, want %q", i, RowDate(row), want[i])
		}
	}
}

func TestStoreHeaderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.UpsertDay("2024-03-01", mustRow(t, "2024-03-01")); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	if total, _ := store.TotalDays(); total != 1 {
		t.Errorf("totalDays after reopen = %d, want 1", total)
	}
}
