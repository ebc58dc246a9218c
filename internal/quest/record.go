// Package quest defines the daily quest record: the full state snapshot for
// one user-day, as exchanged between the local cache and the sheet backend.
//
// The wire format matches the original spreadsheet web-app API. Every field
// has a declared default applied at the deserialization boundary (see the
// migrate package), so code past that boundary never has to guess whether a
// sub-record is present.
package quest

import (
	"bytes"
	"encoding/json"
	"time"
)

// Default template constants. These mirror the product's shipped defaults
// and survive daily rollover untouched.
const (
	DefaultWaterTarget  = 2400
	DefaultIncomeTarget = 3000
	DefaultSklTaskName  = "🧹 整理空間 15分鐘"
)

// Task is a single entry in a user-editable task list.
//
// ID must be non-empty and unique within its list, and stable across days so
// a custom task survives rollover and remote round-trips. Legacy rows written
// before ids existed are repaired by RepairTaskIDs during merge.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Goal is a long-term numeric target (e.g. VO2 Max 33 → 42).
type Goal struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Initial float64 `json:"initial"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
}

// Progress returns the goal's completion percentage, clamped to [0, 100].
// A goal whose initial and target values coincide is defined as complete,
// which also avoids the divide-by-zero.
func (g Goal) Progress() float64 {
	if g.Initial == g.Target {
		return 100
	}
	p := (g.Current - g.Initial) / (g.Target - g.Initial) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Goals holds the three configurable long-term goals.
type Goals struct {
	Goal1 Goal `json:"goal1"`
	Goal2 Goal `json:"goal2"`
	Goal3 Goal `json:"goal3"`
}

// StrState holds the physical-training category: daily tasks plus goals.
type StrState struct {
	DailyTasks []Task `json:"dailyTasks"`
	Goals      Goals  `json:"goals"`
}

// WaterRecord is one logged drink event.
type WaterRecord struct {
	Time   time.Time `json:"time"`
	Amount float64   `json:"amount"`
}

// TimeGoals are the wake/sleep time thresholds ("05:00", "06:00+", ...).
type TimeGoals struct {
	Best  string `json:"best"`
	Great string `json:"great"`
	OK    string `json:"ok"`
	Late  string `json:"late"`
}

// Meals tracks home-cooked meal flags for the day.
type Meals struct {
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	Dinner    bool `json:"dinner"`
}

// Fasting tracks fasting flags for the day.
type Fasting struct {
	BreakfastFast bool `json:"breakfastFast"`
	DinnerFast    bool `json:"dinnerFast"`
	FullDayFast   bool `json:"fullDayFast"`
}

// HPState holds the health category. Water and WaterRecords are real-time
// telemetry owned by the remote store during merges; everything else is
// regular daily state.
type HPState struct {
	Water          float64       `json:"water"`
	WaterRecords   []WaterRecord `json:"waterRecords"`
	WaterTarget    float64       `json:"waterTarget"`
	WakeTime       string        `json:"wakeTime,omitempty"`
	SleepTime      string        `json:"sleepTime,omitempty"`
	WakeTimeGoals  TimeGoals     `json:"wakeTimeGoals"`
	SleepTimeGoals TimeGoals     `json:"sleepTimeGoals"`
	Meals          Meals         `json:"meals"`
	Fasting        Fasting       `json:"fasting"`
}

// TaskListState is a category that consists solely of a task list (INT, MP,
// CRT).
type TaskListState struct {
	Tasks []Task `json:"tasks"`
}

// FlexString decodes from either a JSON string or a JSON number. The income
// cell historically held both, depending on which client wrote the row.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	// Bare number: keep its textual form.
	*f = FlexString(data)
	return nil
}

// GoldState holds the income category.
type GoldState struct {
	Income       FlexString `json:"income"`
	IncomeTarget float64    `json:"incomeTarget"`
	Action1Done  bool       `json:"action1Done"`
	Action1Text  string     `json:"action1Text"`
	Action2Done  bool       `json:"action2Done"`
	Action2Text  string     `json:"action2Text"`
	Action3Done  bool       `json:"action3Done"`
	Action3Text  string     `json:"action3Text"`
}

// SklState is the single toggleable skill task, conditionally included in
// aggregate scoring when Enabled.
type SklState struct {
	Enabled   bool   `json:"enabled"`
	TaskName  string `json:"taskName"`
	Completed bool   `json:"completed"`
}

// IsZero reports whether the state is entirely absent (never configured).
// Used by the migrator to decide whether to install the default.
func (s SklState) IsZero() bool {
	return !s.Enabled && s.TaskName == "" && !s.Completed
}

// RsnState holds the celebration/gratitude category.
type RsnState struct {
	Celebrated bool   `json:"celebrated"`
	Gratitude  string `json:"gratitude"`
}

// AlcoholState holds the alcohol audit category.
//
// Enabled is a pointer because the wire format must distinguish "absent"
// (pre-1.1.0 row, defaults to true during migration) from "explicitly
// false" (the user turned the audit off). Past the migrate boundary the
// pointer is always non-nil.
type AlcoholState struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Reason  string `json:"reason"`
	Feeling string `json:"feeling"`
}

// EnabledOrDefault returns the enabled flag, defaulting to true when the
// field was never written.
func (a AlcoholState) EnabledOrDefault() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// Record is the full daily state snapshot (QuestRecord).
//
// LastUpdate == nil marks a never-written local placeholder: it always loses
// to any remote record carrying a real timestamp, regardless of wall clock.
type Record struct {
	Str        StrState      `json:"str"`
	HP         HPState       `json:"hp"`
	Int        TaskListState `json:"int"`
	MP         TaskListState `json:"mp"`
	Crt        TaskListState `json:"crt"`
	Gold       GoldState     `json:"gold"`
	Skl        SklState      `json:"skl"`
	Rsn        RsnState      `json:"rsn"`
	Alcohol    AlcoholState  `json:"alcohol"`
	PlayerName string        `json:"playerName,omitempty"`
	LastUpdate *time.Time    `json:"lastUpdate"`
}

// DefaultRecord returns the first-use template. LastUpdate is nil so that
// any remote record with real data wins the first reconciliation.
func DefaultRecord(playerName string) *Record {
	enabled := true
	return &Record{
		Str: StrState{
			DailyTasks: []Task{
				{ID: "jogging", Name: "🏃 慢跑"},
				{ID: "weightTraining", Name: "🏋️ 重訓"},
				{ID: "hiit", Name: "⚡ HIIT"},
			},
			Goals: Goals{
				Goal1: Goal{Name: "VO2 Max", Initial: 33, Target: 42, Current: 33},
				Goal2: Goal{Name: "體脂率", Unit: "%", Initial: 26, Target: 18, Current: 26},
				Goal3: Goal{Name: "5公里跑步", Unit: "分鐘", Initial: 60, Target: 30, Current: 60},
			},
		},
		HP: HPState{
			WaterTarget:    DefaultWaterTarget,
			WaterRecords:   []WaterRecord{},
			WakeTimeGoals:  TimeGoals{Best: "05:00", Great: "05:30", OK: "06:00", Late: "06:00+"},
			SleepTimeGoals: TimeGoals{Best: "21:00", Great: "21:30", OK: "22:00", Late: "22:00+"},
		},
		Int: TaskListState{Tasks: []Task{
			{ID: "reading", Name: "閱讀 15min"},
			{ID: "italian", Name: "義大利文 5min"},
			{ID: "course", Name: "線上課程 15min"},
		}},
		MP: TaskListState{Tasks: []Task{
			{ID: "scripture", Name: "讀經"},
			{ID: "prayer", Name: "禱告"},
			{ID: "journal", Name: "靈性日記"},
		}},
		Crt: TaskListState{Tasks: []Task{
			{ID: "piano", Name: "練琴 10min"},
			{ID: "drawing", Name: "畫畫 10min"},
		}},
		Gold:       GoldState{IncomeTarget: DefaultIncomeTarget},
		Skl:        SklState{Enabled: true, TaskName: DefaultSklTaskName},
		Rsn:        RsnState{},
		Alcohol:    AlcoholState{Enabled: &enabled},
		PlayerName: playerName,
		LastUpdate: nil,
	}
}

// Clone returns a deep copy. Merges always produce a brand-new record so
// neither source is ever mutated in place.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Str.DailyTasks = cloneTasks(r.Str.DailyTasks)
	out.Int.Tasks = cloneTasks(r.Int.Tasks)
	out.MP.Tasks = cloneTasks(r.MP.Tasks)
	out.Crt.Tasks = cloneTasks(r.Crt.Tasks)
	if r.HP.WaterRecords != nil {
		out.HP.WaterRecords = make([]WaterRecord, len(r.HP.WaterRecords))
		copy(out.HP.WaterRecords, r.HP.WaterRecords)
	}
	if r.Alcohol.Enabled != nil {
		v := *r.Alcohol.Enabled
		out.Alcohol.Enabled = &v
	}
	if r.LastUpdate != nil {
		t := *r.LastUpdate
		out.LastUpdate = &t
	}
	return &out
}

func cloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// Touch stamps LastUpdate with the given instant.
func (r *Record) Touch(now time.Time) {
	t := now.UTC()
	r.LastUpdate = &t
}
