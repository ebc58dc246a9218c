package sheet

import (
	"errors"
	"testing"
	"time"

	"github.com/brendonchen/questsync/internal/quest"
)

func sampleRecord() *quest.Record {
	rec := quest.DefaultRecord("Alice")
	rec.Str.DailyTasks[0].Completed = true
	rec.HP.Water = 750
	rec.HP.WaterRecords = []quest.WaterRecord{
		{Time: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), Amount: 250},
		{Time: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), Amount: 500},
	}
	rec.HP.WakeTime = "05:30"
	rec.HP.Meals.Lunch = true
	rec.HP.Fasting.BreakfastFast = true
	rec.Int.Tasks[1].Completed = true
	rec.Gold.Income = "1200"
	rec.Gold.Action1Done = true
	rec.Gold.Action1Text = "寄報價單"
	rec.Skl.Completed = true
	rec.Rsn = quest.RsnState{Celebrated: true, Gratitude: "謝謝今天"}
	rec.Alcohol.Reason = "聚餐"
	return rec
}

func TestEncodeRowWidthMatchesHeader(t *testing.T) {
	row, err := EncodeRow(sampleRecord(), "2024-03-01", time.Now())
	if err != nil {
		t.Fatalf("EncodeRow failed: %v", err)
	}
	if len(row) != len(Header()) {
		t.Errorf("row width = %d, header width = %d", len(row), len(Header()))
	}
	if RowDate(row) != "2024-03-01" {
		t.Errorf("date cell = %q", RowDate(row))
	}
}

func TestRowRoundTrip(t *testing.T) {
	in := sampleRecord()
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)

	row, err := EncodeRow(in, "2024-03-01", stamp)
	if err != nil {
		t.Fatalf("EncodeRow failed: %v", err)
	}
	out, err := DecodeRow(row)
	if err != nil {
		t.Fatalf("DecodeRow failed: %v", err)
	}

	if out.PlayerName != "Alice" {
		t.Errorf("playerName = %q", out.PlayerName)
	}
	if len(out.Str.DailyTasks) != 3 || !out.Str.DailyTasks[0].Completed || out.Str.DailyTasks[0].Name != in.Str.DailyTasks[0].Name {
		t.Errorf("str tasks did not round-trip: %+v", out.Str.DailyTasks)
	}
	if out.Str.Goals.Goal2.Name != "體脂率" || out.Str.Goals.Goal2.Target != 18 {
		t.Errorf("goals did not round-trip: %+v", out.Str.Goals.Goal2)
	}
	if out.HP.Water != 750 || len(out.HP.WaterRecords) != 2 || out.HP.WaterRecords[1].Amount != 500 {
		t.Errorf("water telemetry did not round-trip: %+v", out.HP)
	}
	if !out.HP.Meals.Lunch || !out.HP.Fasting.BreakfastFast {
		t.Error("meal/fasting flags did not round-trip")
	}
	if !out.Int.Tasks[1].Completed || out.Int.Tasks[1].Name != in.Int.Tasks[1].Name {
		t.Errorf("int tasks did not round-trip: %+v", out.Int.Tasks)
	}
	if string(out.Gold.Income) != "1200" || !out.Gold.Action1Done || out.Gold.Action1Text != "寄報價單" {
		t.Errorf("gold did not round-trip: %+v", out.Gold)
	}
	if !out.Skl.Enabled || out.Skl.TaskName != quest.DefaultSklTaskName || !out.Skl.Completed {
		t.Errorf("skl did not round-trip: %+v", out.Skl)
	}
	if !out.Rsn.Celebrated || out.Rsn.Gratitude != "謝謝今天" {
		t.Errorf("rsn did not round-trip: %+v", out.Rsn)
	}
	if !out.Alcohol.EnabledOrDefault() || out.Alcohol.Reason != "聚餐" {
		t.Errorf("alcohol did not round-trip: %+v", out.Alcohol)
	}
	if out.LastUpdate == nil || !out.LastUpdate.Equal(stamp) {
		t.Errorf("lastUpdate = %v, want %v", out.LastUpdate, stamp)
	}
}

func TestDecodeRowWrongWidth(t *testing.T) {
	row, err := EncodeRow(sampleRecord(), "2024-03-01", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	_, err = DecodeRow(row[:len(row)-2])
	if !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("err = %v, want ErrColumnMismatch", err)
	}
}

func TestParseTasksColonInName(t *testing.T) {
	tasks := parseTasks("閱讀: 第3章:true;禱告:false")
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	if tasks[0].Name != "閱讀: 第3章" || !tasks[0].Completed {
		t.Errorf("task 0 = %+v", tasks[0])
	}
	if tasks[1].Name != "禱告" || tasks[1].Completed {
		t.Errorf("task 1 = %+v", tasks[1])
	}
}

func TestParseTasksEmpty(t *testing.T) {
	if got := parseTasks(""); len(got) != 0 {
		t.Errorf("empty string must parse to no tasks, got %+v", got)
	}
}
