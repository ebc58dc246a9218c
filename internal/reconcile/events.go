package reconcile

import "time"

// NameConflict carries both candidate player names when local and remote
// disagree. The merge proceeds with the cloud name provisionally; the caller
// prompts and resolves via ResolveNameConflict.
type NameConflict struct {
	Local string `json:"local"`
	Cloud string `json:"cloud"`
}

// Events receives notifications from the reconciler. Implementations must not
// block: callbacks run on the sync path while the reconciler holds its state
// lock.
type Events interface {
	// OnSyncApplied fires after every completed reconcile pass.
	OnSyncApplied(remoteWon bool, totalDays int)

	// OnNameConflict fires when both sides carry differing non-empty player
	// names. The merge has already been applied with the cloud name.
	OnNameConflict(conflict NameConflict)

	// OnOutdatedBackend fires when the backend reports a script version older
	// than the client's minimum. Advisory only.
	OnOutdatedBackend(got, required string)

	// OnRollover fires when a stale record is reset into a new day.
	OnRollover(now time.Time)
}

// NopEvents is the default Events implementation.
type NopEvents struct{}

func (NopEvents) OnSyncApplied(bool, int)          {}
func (NopEvents) OnNameConflict(NameConflict)      {}
func (NopEvents) OnOutdatedBackend(string, string) {}
func (NopEvents) OnRollover(time.Time)             {}
