package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brendonchen/questsync/internal/quest"
	"github.com/brendonchen/questsync/internal/remote"
)

func testServer(t *testing.T, now time.Time) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(openTestStore(t), log.New(io.Discard, "", 0))
	srv.now = func() time.Time { return now }
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postRecord(t *testing.T, url string, rec *quest.Record, stamp time.Time) *http.Response {
	t.Helper()
	body, err := json.Marshal(struct {
		Date string `json:"date"`
		*quest.Record
	}{stamp.Format(StampLayout), rec})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerEmptySheet(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	_, ts := testServer(t, now)

	client := remote.NewClient(ts.URL, log.New(io.Discard, "", 0))
	env, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if env.HasData || env.TotalDays != 0 {
		t.Errorf("empty sheet envelope = %+v", env)
	}
	if env.ScriptVersion == "" {
		t.Error("the backend must always report its script version")
	}
}

func TestServerWriteThenRead(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	_, ts := testServer(t, now)

	rec := quest.DefaultRecord("Alice")
	rec.HP.Water = 600
	rec.Int.Tasks[0].Completed = true

	resp := postRecord(t, ts.URL, rec, now)
	var ack struct {
		Success bool   `json:"success"`
		Action  string `json:"action"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Success || ack.Action != "created" {
		t.Fatalf("first write ack = %+v", ack)
	}

	resp = postRecord(t, ts.URL, rec, now.Add(time.Minute))
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.Action != "updated" {
		t.Errorf("second write action = %q, want updated", ack.Action)
	}

	client := remote.NewClient(ts.URL, log.New(io.Discard, "", 0))
	env, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !env.HasData || env.TotalDays != 1 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.QuestData.PlayerName != "Alice" || env.QuestData.HP.Water != 600 {
		t.Errorf("quest data = %+v", env.QuestData)
	}
	if !env.QuestData.Int.Tasks[0].Completed {
		t.Error("task completion did not survive the round trip")
	}
	if env.LastUpdate == nil || !env.LastUpdate.Equal(now.Add(time.Minute)) {
		t.Errorf("lastUpdate = %v", env.LastUpdate)
	}
}

func TestServerServesYesterdayRow(t *testing.T) {
	yesterday := time.Date(2024, 2, 29, 22, 0, 0, 0, time.Local)
	srv, ts := testServer(t, yesterday)

	rec := quest.DefaultRecord("Alice")
	rec.Crt.Tasks = []quest.Task{{ID: "sketching", Name: "速寫", Completed: true}}
	postRecord(t, ts.URL, rec, yesterday)

	// Next morning: no row for today yet.
	srv.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local) }

	client := remote.NewClient(ts.URL, log.New(io.Discard, "", 0))
	env, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if env.HasData {
		t.Error("no row exists for today")
	}
	if env.TotalDays != 1 {
		t.Errorf("totalDays = %d, want 1", env.TotalDays)
	}
	if env.YesterdayQuest == nil || len(env.YesterdayQuest.Crt.Tasks) != 1 || env.YesterdayQuest.Crt.Tasks[0].Name != "速寫" {
		t.Errorf("yesterday row = %+v", env.YesterdayQuest)
	}
}

func TestServerRejectsMalformedBody(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	_, ts := testServer(t, now)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var ack struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.Success || ack.Error == "" {
		t.Errorf("rejection must carry an explicit error, got %+v", ack)
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	_, ts := testServer(t, now)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
