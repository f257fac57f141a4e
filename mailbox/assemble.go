package mailbox

import "sort"

// Assemble reconstructs tasks from a raw store listing. It is a pure
// function: no store access, no side effects.
//
// Undecodable names are dropped. Objects group by task id; when a listing
// carries duplicates for the same (direction, kind) slot, the last-listed
// one wins. A group without an input signature is dropped:
// that object names the task and carries its submission timestamp, and
// without it there is nothing to order or verify against. The result is
// sorted oldest first; ties keep first-appearance order.
func Assemble(names []string) []*Task {
	byID := make(map[string]*Task)
	var order []*Task

	for _, raw := range names {
		parsed, ok := ParseName(raw)
		if !ok {
			continue
		}
		t := byID[parsed.TaskID]
		if t == nil {
			t = &Task{ID: parsed.TaskID}
			byID[parsed.TaskID] = t
			order = append(order, t)
		}
		switch {
		case parsed.Direction == DirectionIn && parsed.Kind == KindData:
			t.InputData = raw
		case parsed.Direction == DirectionIn && parsed.Kind == KindSignature:
			t.InputSig = raw
			t.SubmittedAt = parsed.Timestamp
		case parsed.Direction == DirectionOut && parsed.Kind == KindData:
			t.OutputData = raw
		case parsed.Direction == DirectionOut && parsed.Kind == KindSignature:
			t.OutputSig = raw
		case parsed.Direction == DirectionOut && parsed.Kind == KindError:
			t.OutputErr = raw
		}
		// An in.err name fits the grammar but no protocol role; ignored.
	}

	tasks := make([]*Task, 0, len(order))
	for _, t := range order {
		if t.InputSig == "" {
			continue
		}
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].SubmittedAt.Before(tasks[j].SubmittedAt)
	})
	return tasks
}
