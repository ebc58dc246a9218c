// Package sheet implements the row-oriented persistence contract of the
// spreadsheet backend: one row per calendar day keyed by a yyyy-MM-dd date
// column, row 1 reserved for the header, plus a reference HTTP backend over
// a local sqlite store so the whole sync loop runs end to end without a
// cloud spreadsheet.
package sheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brendonchen/questsync/internal/quest"
)

// StampLayout is the cell format of the last-update column, stamped by the
// client at push time.
const StampLayout = "2006-01-02 15:04:05"

// header is the canonical column list. The column count is derived from this
// slice everywhere; it is never hardcoded.
var header = []string{
	"日期",
	"最後更新時間",
	"玩家名稱",
	"STR_任務列表",
	"STR_目標1名稱", "STR_目標1單位", "STR_目標1初始值", "STR_目標1目標值", "STR_目標1當前值",
	"STR_目標2名稱", "STR_目標2單位", "STR_目標2初始值", "STR_目標2目標值", "STR_目標2當前值",
	"STR_目標3名稱", "STR_目標3單位", "STR_目標3初始值", "STR_目標3目標值", "STR_目標3當前值",
	"HP_飲水(cc)", "HP_飲水目標(cc)", "HP_飲水記錄",
	"HP_起床時間", "HP_就寢時間",
	"HP_早餐自炊", "HP_午餐自炊", "HP_晚餐自炊",
	"HP_早餐禁食", "HP_晚餐禁食", "HP_全日禁食",
	"INT_任務列表",
	"MP_任務列表",
	"CRT_任務列表",
	"GOLD_收入", "GOLD_收入目標",
	"GOLD_行動1完成", "GOLD_行動1內容",
	"GOLD_行動2完成", "GOLD_行動2內容",
	"GOLD_行動3完成", "GOLD_行動3內容",
	"SKL_啟用", "SKL_任務名稱", "SKL_完成",
	"RSN_慶祝", "RSN_感恩筆記",
	"酒精_啟用", "酒精_理由", "酒精_感受",
}

// Header returns a copy of the canonical column list.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// EncodeRow flattens a record into one sheet row. Booleans and numbers keep
// their native cell types; task lists flatten to "name:completed" pairs
// joined by ";"; water records embed as a JSON string. The row width always
// equals the header width.
func EncodeRow(rec *quest.Record, date string, stamp time.Time) ([]any, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot encode nil record")
	}

	waterJSON, err := json.Marshal(rec.HP.WaterRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode water records: %w", err)
	}

	row := []any{
		date,
		stamp.Format(StampLayout),
		rec.PlayerName,
		flattenTasks(rec.Str.DailyTasks),
	}
	for _, g := range []quest.Goal{rec.Str.Goals.Goal1, rec.Str.Goals.Goal2, rec.Str.Goals.Goal3} {
		row = append(row, g.Name, g.Unit, g.Initial, g.Target, g.Current)
	}
	row = append(row,
		rec.HP.Water, rec.HP.WaterTarget, string(waterJSON),
		rec.HP.WakeTime, rec.HP.SleepTime,
		rec.HP.Meals.Breakfast, rec.HP.Meals.Lunch, rec.HP.Meals.Dinner,
		rec.HP.Fasting.BreakfastFast, rec.HP.Fasting.DinnerFast, rec.HP.Fasting.FullDayFast,
		flattenTasks(rec.Int.Tasks),
		flattenTasks(rec.MP.Tasks),
		flattenTasks(rec.Crt.Tasks),
		string(rec.Gold.Income), rec.Gold.IncomeTarget,
		rec.Gold.Action1Done, rec.Gold.Action1Text,
		rec.Gold.Action2Done, rec.Gold.Action2Text,
		rec.Gold.Action3Done, rec.Gold.Action3Text,
		rec.Skl.Enabled, rec.Skl.TaskName, rec.Skl.Completed,
		rec.Rsn.Celebrated, rec.Rsn.Gratitude,
		rec.Alcohol.EnabledOrDefault(), rec.Alcohol.Reason, rec.Alcohol.Feeling,
	)

	if len(row) != len(header) {
		return nil, fmt.Errorf("encoded row has %d cells, header has %d", len(row), len(header))
	}
	return row, nil
}

// DecodeRow rebuilds a record from one sheet row. Flattened task entries
// carry no ids; the reconciler's id-repair pass restores them at merge time.
func DecodeRow(cells []any) (*quest.Record, error) {
	if len(cells) != len(header) {
		return nil, fmt.Errorf("%w: row has %d cells, header has %d", ErrColumnMismatch, len(cells), len(header))
	}

	var waterRecords []quest.WaterRecord
	if raw := cellString(cells[21]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &waterRecords); err != nil {
			return nil, fmt.Errorf("failed to decode water records: %w", err)
		}
	}

	alcoholEnabled := cellBool(cells[46])
	rec := &quest.Record{
		Str: quest.StrState{
			DailyTasks: parseTasks(cellString(cells[3])),
			Goals: quest.Goals{
				Goal1: decodeGoal(cells[4:9]),
				Goal2: decodeGoal(cells[9:14]),
				Goal3: decodeGoal(cells[14:19]),
			},
		},
		HP: quest.HPState{
			Water:          cellFloat(cells[19]),
			WaterTarget:    cellFloat(cells[20]),
			WaterRecords:   waterRecords,
			WakeTime:       cellString(cells[22]),
			SleepTime:      cellString(cells[23]),
			WakeTimeGoals:  quest.TimeGoals{Best: "05:00", Great: "05:30", OK: "06:00", Late: "06:00+"},
			SleepTimeGoals: quest.TimeGoals{Best: "21:00", Great: "21:30", OK: "22:00", Late: "22:00+"},
			Meals: quest.Meals{
				Breakfast: cellBool(cells[24]),
				Lunch:     cellBool(cells[25]),
				Dinner:    cellBool(cells[26]),
			},
			Fasting: quest.Fasting{
				BreakfastFast: cellBool(cells[27]),
				DinnerFast:    cellBool(cells[28]),
				FullDayFast:   cellBool(cells[29]),
			},
		},
		Int: quest.TaskListState{Tasks: parseTasks(cellString(cells[30]))},
		MP:  quest.TaskListState{Tasks: parseTasks(cellString(cells[31]))},
		Crt: quest.TaskListState{Tasks: parseTasks(cellString(cells[32]))},
		Gold: quest.GoldState{
			Income:       quest.FlexString(cellString(cells[33])),
			IncomeTarget: cellFloat(cells[34]),
			Action1Done:  cellBool(cells[35]),
			Action1Text:  cellString(cells[36]),
			Action2Done:  cellBool(cells[37]),
			Action2Text:  cellString(cells[38]),
			Action3Done:  cellBool(cells[39]),
			Action3Text:  cellString(cells[40]),
		},
		Skl: quest.SklState{
			Enabled:   cellBool(cells[41]),
			TaskName:  cellString(cells[42]),
			Completed: cellBool(cells[43]),
		},
		Rsn: quest.RsnState{
			Celebrated: cellBool(cells[44]),
			Gratitude:  cellString(cells[45]),
		},
		Alcohol: quest.AlcoholState{
			Enabled: &alcoholEnabled,
			Reason:  cellString(cells[47]),
			Feeling: cellString(cells[48]),
		},
		PlayerName: cellString(cells[2]),
	}

	if raw := cellString(cells[1]); raw != "" {
		if t, err := time.ParseInLocation(StampLayout, raw, time.Local); err == nil {
			rec.Touch(t)
		}
	}
	return rec, nil
}

// RowDate returns the date cell of a row.
func RowDate(cells []any) string {
	if len(cells) == 0 {
		return ""
	}
	return cellString(cells[0])
}

// flattenTasks joins tasks as "name:completed" pairs. Ids are dropped; they
// are deterministic and restored on the way back in.
func flattenTasks(tasks []quest.Task) string {
	parts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		parts = append(parts, fmt.Sprintf("%s:%t", t.Name, t.Completed))
	}
	return strings.Join(parts, ";")
}

func parseTasks(s string) []quest.Task {
	if s == "" {
		return []quest.Task{}
	}
	parts := strings.Split(s, ";")
	tasks := make([]quest.Task, 0, len(parts))
	for _, p := range parts {
		// Task names may themselves contain a colon; the completion flag is
		// always after the last one.
		i := strings.LastIndex(p, ":")
		if i < 0 {
			tasks = append(tasks, quest.Task{Name: p})
			continue
		}
		tasks = append(tasks, quest.Task{Name: p[:i], Completed: p[i+1:] == "true"})
	}
	return tasks
}

func decodeGoal(cells []any) quest.Goal {
	return quest.Goal{
		Name:    cellString(cells[0]),
		Unit:    cellString(cells[1]),
		Initial: cellFloat(cells[2]),
		Target:  cellFloat(cells[3]),
		Current: cellFloat(cells[4]),
	}
}

// Cell coercions. Rows round-trip through JSON, so numbers arrive as
// float64 and older rows may hold stringly-typed cells.

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func cellBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "TRUE"
	case float64:
		return x != 0
	default:
		return false
	}
}

func cellFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}
