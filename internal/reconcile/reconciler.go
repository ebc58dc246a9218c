// Package reconcile orchestrates synchronization between the local quest
// cache and the remote sheet backend.
//
// A reconcile pass loads local state, applies the daily rollover if the
// cached record has gone stale, fetches the remote envelope, decides whether
// the remote copy wins, and merges. Local mutations go through Update, which
// stamps the record and schedules a debounced remote write. At most one
// reconcile pass runs at a time; a pass requested while one is in flight is
// dropped, not queued.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brendonchen/questsync/internal/localstore"
	"github.com/brendonchen/questsync/internal/migrate"
	"github.com/brendonchen/questsync/internal/quest"
	"github.com/brendonchen/questsync/internal/remote"
	"github.com/brendonchen/questsync/internal/rollover"
	"github.com/brendonchen/questsync/internal/version"
)

// RemoteStore is the remote boundary the reconciler talks to. *remote.Client
// implements it; tests substitute a fake.
type RemoteStore interface {
	Fetch(ctx context.Context) (*remote.Envelope, error)
	Push(ctx context.Context, rec *quest.Record, stamp time.Time) remote.PushResult
}

// SnapshotFunc computes the per-day stat snapshot recorded into history after
// each local mutation. Scoring lives with the presentation layer, so the
// reconciler takes it as a callback; nil skips local history recording.
type SnapshotFunc func(*quest.Record) []quest.StatValue

// Config holds reconciler settings.
type Config struct {
	// Interval between periodic reconcile passes.
	Interval time.Duration

	// Debounce is the quiet period before a local mutation is pushed.
	Debounce time.Duration

	// ResetHour is the local-time hour at which a new day begins.
	ResetHour int

	// AppVersion is the schema version this client writes.
	AppVersion string

	// RequiredBackendVersion is the minimum script version the backend must
	// report before the outdated-backend advisory fires.
	RequiredBackendVersion string

	// Events receives reconcile notifications. Nil means no-op.
	Events Events

	// Snapshot records per-day history after mutations. Nil skips recording.
	Snapshot SnapshotFunc

	// Logger for reconcile output. Nil means stderr.
	Logger *log.Logger

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the shipped settings: 60s sync interval, 5s write
// debounce, 04:00 day boundary.
func DefaultConfig() Config {
	return Config{
		Interval:               60 * time.Second,
		Debounce:               5 * time.Second,
		ResetHour:              rollover.DefaultResetHour,
		AppVersion:             migrate.CurrentVersion,
		RequiredBackendVersion: migrate.CurrentVersion,
	}
}

// Reconciler is the sync orchestrator. Create with New.
type Reconciler struct {
	cfg    Config
	store  localstore.Store
	remote RemoteStore
	logger *log.Logger
	events Events
	now    func() time.Time

	deb      *debouncer
	inFlight atomic.Bool
	paused   atomic.Bool

	// mu serializes all local-state access: a sync pass and a mutation never
	// interleave.
	mu sync.Mutex
}

// New creates a reconciler over the given local store and remote boundary.
func New(store localstore.Store, rs RemoteStore, cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.ResetHour <= 0 {
		cfg.ResetHour = def.ResetHour
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = def.AppVersion
	}
	if cfg.RequiredBackendVersion == "" {
		cfg.RequiredBackendVersion = def.RequiredBackendVersion
	}

	r := &Reconciler{
		cfg:    cfg,
		store:  store,
		remote: rs,
		logger: cfg.Logger,
		events: cfg.Events,
		now:    cfg.Now,
		deb:    newDebouncer(cfg.Debounce),
	}
	if r.logger == nil {
		r.logger = log.New(os.Stderr, "[reconcile] ", log.LstdFlags)
	}
	if r.events == nil {
		r.events = NopEvents{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Sync performs one reconcile pass.
//
// If a pass is already in flight the call is dropped and returns nil; the
// next periodic tick will run instead. Remote failures degrade to "no remote
// data this cycle" and never fail the pass; only local store errors do.
func (r *Reconciler) Sync(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Printf("sync already in flight, skipping")
		return nil
	}
	defer r.inFlight.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	state, onDisk, err := r.loadState(now)
	if err != nil {
		return err
	}

	env, err := r.remote.Fetch(ctx)
	if err != nil {
		r.logger.Printf("remote unavailable this cycle: %v", err)
		env = nil
	}
	if env != nil && env.HasData && env.QuestData == nil {
		// The envelope violates its own contract (hasData without questData);
		// nothing in it can be trusted this cycle.
		r.logger.Printf("remote envelope malformed, ignoring this cycle")
		env = nil
	}
	if env == nil {
		// Offline cycle: persist any rollover result and keep local state.
		if err := r.saveState(state, onDisk); err != nil {
			return err
		}
		r.events.OnSyncApplied(false, state.TotalDays)
		return nil
	}

	// The version advisory runs regardless of which side wins.
	if version.IsBackendOutdated(env.ScriptVersion, r.cfg.RequiredBackendVersion) {
		r.logger.Printf("backend version %q is older than required %q", env.ScriptVersion, r.cfg.RequiredBackendVersion)
		r.events.OnOutdatedBackend(env.ScriptVersion, r.cfg.RequiredBackendVersion)
	}

	// Day count is owned by the backend; the local cache mirrors it and
	// never recomputes.
	state.TotalDays = env.TotalDays
	if len(env.HistoryData) > 0 {
		state.History = quest.MergeHistory(state.History, env.HistoryData)
	}

	remoteWon := false
	switch {
	case env.HasData && r.remoteWins(state.Quest, env):
		merged, conflict := r.merge(state.Quest, env)
		state.Quest = merged
		state.PlayerName = merged.PlayerName
		remoteWon = true
		if conflict != nil {
			r.logger.Printf("player name conflict: local %q vs cloud %q", conflict.Local, conflict.Cloud)
			r.events.OnNameConflict(*conflict)
		}

	case !env.HasData && state.Quest.LastUpdate == nil && env.YesterdayQuest != nil:
		// No row for today yet and nothing written locally: pre-fill today
		// from yesterday's row so a new device inherits custom task names
		// and goals instead of the shipped template.
		yesterday := migrate.Migrate(env.YesterdayQuest, env.ScriptVersion)
		state.Quest = rollover.FromYesterday(yesterday)
		if state.Quest.PlayerName != "" {
			state.PlayerName = state.Quest.PlayerName
		}
	}

	if err := r.saveState(state, onDisk); err != nil {
		return err
	}
	r.events.OnSyncApplied(remoteWon, state.TotalDays)
	return nil
}

// Update applies a local mutation: rollover check, mutate, stamp, persist,
// schedule the debounced remote write.
func (r *Reconciler) Update(ctx context.Context, mutate func(*quest.Record)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	state, _, err := r.loadState(now)
	if err != nil {
		return err
	}

	mutate(state.Quest)
	state.Quest.Touch(now)
	if state.Quest.PlayerName != "" {
		state.PlayerName = state.Quest.PlayerName
	}

	if r.cfg.Snapshot != nil {
		entry := quest.HistoryEntry{
			Date: now.Format("2006-01-02"),
			Data: r.cfg.Snapshot(state.Quest),
			Rsn:  state.Quest.Rsn,
		}
		state.History = quest.UpsertHistory(state.History, entry)
	}

	if err := r.saveState(state, ""); err != nil {
		return err
	}

	rec := state.Quest.Clone()
	r.deb.Schedule(func() {
		// The originating context is long gone by the time this fires.
		r.remote.Push(context.Background(), rec, r.now())
	})
	return nil
}

// ResolveNameConflict applies the user's chosen player name and pushes the
// corrective write immediately, bypassing the debounce: the backend must see
// the definitive name before another device fetches the provisional one.
func (r *Reconciler) ResolveNameConflict(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	state, _, err := r.loadState(now)
	if err != nil {
		return err
	}

	state.Quest.PlayerName = name
	state.Quest.Touch(now)
	state.PlayerName = name

	if err := r.saveState(state, ""); err != nil {
		return err
	}

	r.deb.Stop()
	r.remote.Push(ctx, state.Quest.Clone(), now)
	return nil
}

// Run performs an initial sync and then reconciles on the configured
// interval until ctx is canceled. Paused intervals tick but do not sync.
// Teardown cancels any pending debounced write.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.Sync(ctx); err != nil {
		r.logger.Printf("initial sync failed: %v", err)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.deb.Stop()
			return nil

		case <-ticker.C:
			if r.paused.Load() {
				continue
			}
			if err := r.Sync(ctx); err != nil {
				r.logger.Printf("sync failed: %v", err)
			}
		}
	}
}

// Pause suspends periodic syncing (the app is not visible). Manual Sync and
// Update keep working.
func (r *Reconciler) Pause() {
	r.paused.Store(true)
}

// Resume re-enables periodic syncing.
func (r *Reconciler) Resume() {
	r.paused.Store(false)
}

// Flush runs any pending debounced write immediately. One-shot commands call
// this before exiting so a mutation is never lost to process death.
func (r *Reconciler) Flush() {
	r.deb.Flush()
}

// loadState loads local state, upgrading first use to a fresh default and
// applying the schema migration and rollover checks that run on every
// access. The second return is a fingerprint of the state as it sits on
// disk, empty when nothing is persisted yet. Callers hold r.mu.
func (r *Reconciler) loadState(now time.Time) (*localstore.State, string, error) {
	state, err := r.store.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load local state: %w", err)
	}
	var onDisk string
	if state == nil {
		state = &localstore.State{}
	} else {
		onDisk = fingerprint(state)
	}
	state.Quest = migrate.Migrate(state.Quest, state.AppVersion)

	if rollover.ShouldReset(state.Quest.LastUpdate, now, r.cfg.ResetHour) {
		r.logger.Printf("new day detected, resetting daily state")
		state.Quest = rollover.Reset(state.Quest, now)
		r.events.OnRollover(now)
	}
	return state, onDisk, nil
}

// saveState persists state unless it is byte-identical to what loadState read
// from disk. Skipping the no-op write keeps the cache-file watcher quiet: a
// pass that changed nothing must not trigger another pass. An empty onDisk
// forces the write.
func (r *Reconciler) saveState(state *localstore.State, onDisk string) error {
	state.AppVersion = r.cfg.AppVersion
	if onDisk != "" && fingerprint(state) == onDisk {
		return nil
	}
	if err := r.store.Save(state); err != nil {
		return fmt.Errorf("failed to save local state: %w", err)
	}
	return nil
}

// fingerprint is the canonical JSON form of a state, used to detect no-op
// sync passes. State has no map fields, so marshaling is deterministic.
func fingerprint(state *localstore.State) string {
	data, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return string(data)
}

// remoteWins implements the whole-record last-write-wins decision: a nil
// local lastUpdate always loses to a populated remote record; otherwise the
// remote must be strictly newer. Ties keep local.
func (r *Reconciler) remoteWins(local *quest.Record, env *remote.Envelope) bool {
	if local.LastUpdate == nil {
		return true
	}
	return env.LastUpdate != nil && env.LastUpdate.After(*local.LastUpdate)
}

// merge applies a winning remote record. The base is the migrated remote
// copy; the raw remote's water telemetry overrides it directly (the backend
// already holds the full day's drink history); every task list is repaired
// to the id invariant; a differing player name on both sides raises a
// conflict while the cloud name proceeds provisionally.
func (r *Reconciler) merge(local *quest.Record, env *remote.Envelope) (*quest.Record, *NameConflict) {
	merged := migrate.Migrate(env.QuestData, env.ScriptVersion)

	merged.HP.Water = env.QuestData.HP.Water
	merged.HP.WaterRecords = make([]quest.WaterRecord, len(env.QuestData.HP.WaterRecords))
	copy(merged.HP.WaterRecords, env.QuestData.HP.WaterRecords)

	merged.Str.DailyTasks = quest.RepairTaskIDs("str", merged.Str.DailyTasks)
	merged.Int.Tasks = quest.RepairTaskIDs("int", merged.Int.Tasks)
	merged.MP.Tasks = quest.RepairTaskIDs("mp", merged.MP.Tasks)
	merged.Crt.Tasks = quest.RepairTaskIDs("crt", merged.Crt.Tasks)

	var conflict *NameConflict
	switch {
	case merged.PlayerName == "":
		merged.PlayerName = local.PlayerName
	case local.PlayerName != "" && local.PlayerName != merged.PlayerName:
		conflict = &NameConflict{Local: local.PlayerName, Cloud: merged.PlayerName}
	}

	if env.LastUpdate != nil {
		t := *env.LastUpdate
		merged.LastUpdate = &t
	}
	return merged, conflict
}
