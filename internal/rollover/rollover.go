// Package rollover implements the daily reset: deciding when a cached record
// has gone stale and deriving a fresh day's record from the previous one.
//
// A record is Active while its lastUpdate is on the current "day", where days
// flip at a fixed reset hour (04:00 by default) rather than midnight so late
// nights count toward the day they belong to. The stale check runs on every
// read/write access, never on a background timer.
package rollover

import (
	"time"

	"github.com/brendonchen/questsync/internal/quest"
)

// DefaultResetHour is the local-time hour at which a new day begins.
const DefaultResetHour = 4

// ShouldReset reports whether a record stamped lastUpdate is stale at the
// instant now: the stamp predates today's reset boundary and now is past it.
//
// A nil lastUpdate is a never-written placeholder, not a stale record, so it
// never triggers a reset.
func ShouldReset(lastUpdate *time.Time, now time.Time, resetHour int) bool {
	if lastUpdate == nil {
		return false
	}
	boundary := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, now.Location())
	return lastUpdate.Before(boundary) && !now.Before(boundary)
}

// Reset derives a new day's record from the previous one.
//
// Configuration survives: goal definitions, custom task names and ids, water
// target, wake/sleep thresholds, gold action texts and income target, skl
// enabled/taskName, alcohol enabled, player name. Completion and progress
// state is zeroed: task completed flags, water and its records, today's
// wake/sleep selection, meals/fasting flags, income, action done flags, rsn,
// alcohol reason/feeling, skl completed. The new record is stamped with now.
//
// A nil prev means first-ever use: there is no yesterday to inherit from, so
// the default template is returned (with a nil LastUpdate, letting any
// remote data win the first sync).
func Reset(prev *quest.Record, now time.Time) *quest.Record {
	if prev == nil {
		return quest.DefaultRecord("")
	}

	out := prev.Clone()

	for i := range out.Str.DailyTasks {
		out.Str.DailyTasks[i].Completed = false
	}
	for i := range out.Int.Tasks {
		out.Int.Tasks[i].Completed = false
	}
	for i := range out.MP.Tasks {
		out.MP.Tasks[i].Completed = false
	}
	for i := range out.Crt.Tasks {
		out.Crt.Tasks[i].Completed = false
	}

	out.HP.Water = 0
	out.HP.WaterRecords = []quest.WaterRecord{}
	out.HP.WakeTime = ""
	out.HP.SleepTime = ""
	out.HP.Meals = quest.Meals{}
	out.HP.Fasting = quest.Fasting{}

	out.Gold.Income = ""
	out.Gold.Action1Done = false
	out.Gold.Action2Done = false
	out.Gold.Action3Done = false

	out.Skl.Completed = false
	out.Rsn = quest.RsnState{}
	out.Alcohol.Reason = ""
	out.Alcohol.Feeling = ""

	out.Touch(now)
	return out
}

// FromYesterday builds today's record from a remote yesterday row. The
// backend supplies yesterday's record exactly so a brand-new device can
// inherit custom task names and goals instead of starting from the shipped
// template. Unlike Reset, the result keeps a nil LastUpdate: it is still a
// placeholder until the user actually touches something.
func FromYesterday(yesterday *quest.Record) *quest.Record {
	if yesterday == nil {
		return quest.DefaultRecord("")
	}
	out := Reset(yesterday, time.Time{})
	out.LastUpdate = nil
	return out
}
