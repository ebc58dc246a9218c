package quest

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// DeriveTaskID produces a stable id for a task from its name and position.
//
// The name is lowercased and every non-alphanumeric rune becomes an
// underscore; runs collapse and edges are trimmed. Names that slug to
// nothing (emoji-only, CJK-only) fall back to a positional id of the form
// "<prefix>-task-<pos>". The result is fully deterministic so id assignment
// is reproducible across devices.
func DeriveTaskID(prefix, name string, pos int) string {
	slug := slugify(name)
	if slug == "" {
		return fmt.Sprintf("%s-task-%d", prefix, pos)
	}
	return slug
}

// RepairTaskIDs returns a copy of tasks in which every entry has a
// non-empty, list-unique id. Entries that already carry a unique id are
// left alone; missing ids are derived from the name, and collisions get a
// hash suffix of (name, position) so the repair is deterministic.
//
// Name, Completed and ordering are never altered. Running the repair on an
// already-repaired list is a no-op.
func RepairTaskIDs(prefix string, tasks []Task) []Task {
	if len(tasks) == 0 {
		return tasks
	}

	out := make([]Task, len(tasks))
	copy(out, tasks)

	seen := make(map[string]bool, len(out))
	for i := range out {
		id := out[i].ID
		if id == "" {
			id = DeriveTaskID(prefix, out[i].Name, i)
		}
		if seen[id] {
			id = fmt.Sprintf("%s-%08x", id, taskHash(out[i].Name, i))
		}
		if seen[id] {
			// Two identical names at colliding positions after a prior
			// repair; the position alone disambiguates.
			id = fmt.Sprintf("%s-task-%d", prefix, i)
		}
		out[i].ID = id
		seen[id] = true
	}
	return out
}

func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true // trims leading underscores
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func taskHash(name string, pos int) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s#%d", name, pos)
	return h.Sum32()
}
