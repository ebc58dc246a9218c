// Package migrate upgrades a loaded quest record to the current in-memory
// schema shape.
//
// Records round-trip through the local cache and the sheet backend, either of
// which may have been written by an older client. Migration runs once at the
// deserialization boundary: every transformation is idempotent and
// additive-only, so re-migrating a current record is a no-op and no field
// present in the input is ever removed.
package migrate

import (
	"github.com/brendonchen/questsync/internal/quest"
	"github.com/brendonchen/questsync/internal/version"
)

// CurrentVersion is the schema version this client writes.
const CurrentVersion = "1.1.0"

// OldestKnownVersion is assumed when a record carries no version at all
// (rows written before versioning existed).
const OldestKnownVersion = "1.0.0"

// Migrate applies every version-gated transformation to rec and returns the
// upgraded record. The input is never mutated.
//
// A nil record cannot be recovered from, so it degrades to a fresh default
// template rather than an error: callers sit on the load path and have no
// better fallback.
func Migrate(rec *quest.Record, fromVersion string) *quest.Record {
	if rec == nil {
		return quest.DefaultRecord("")
	}
	if fromVersion == "" {
		fromVersion = OldestKnownVersion
	}

	out := rec.Clone()

	if version.Compare(fromVersion, "1.1.0") < 0 {
		migrateTo110(out)
	}

	// Unconditional backfills for fields that may be missing regardless of
	// the declared version (partial rows, hand-edited caches).
	if out.Skl.IsZero() {
		out.Skl = quest.SklState{Enabled: true, TaskName: quest.DefaultSklTaskName}
	}

	return out
}

// migrateTo110 adds the alcohol.enabled flag introduced in 1.1.0.
//
// The flag defaults to true only when it was absent; an explicit false was a
// user decision and is preserved.
func migrateTo110(rec *quest.Record) {
	if rec.Alcohol.Enabled == nil {
		enabled := true
		rec.Alcohol.Enabled = &enabled
	}
}
