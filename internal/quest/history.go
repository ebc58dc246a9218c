package quest

// StatValue is one axis of a per-day progress snapshot.
type StatValue struct {
	Stat     string  `json:"stat"`
	Value    float64 `json:"value"`
	FullMark float64 `json:"fullMark"`
}

// HistoryEntry is the cached per-day snapshot used for cumulative-progress
// aggregation. Date is a yyyy-MM-dd key, unique per day; insertion order is
// chronological.
type HistoryEntry struct {
	Date string      `json:"date"`
	Data []StatValue `json:"data"`
	Rsn  RsnState    `json:"rsn"`
}

// UpsertHistory appends entry to history, or replaces the existing entry
// with the same date key. Entries are never deleted.
func UpsertHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	for i := range history {
		if history[i].Date == entry.Date {
			out := make([]HistoryEntry, len(history))
			copy(out, history)
			out[i] = entry
			return out
		}
	}
	out := make([]HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, entry)
}

// MergeHistory folds remote entries into local history, replacing by date
// key and appending unknown days. Local insertion order is preserved;
// remote-only days keep their own relative order at the tail.
func MergeHistory(local, remote []HistoryEntry) []HistoryEntry {
	out := local
	for _, e := range remote {
		out = UpsertHistory(out, e)
	}
	return out
}
