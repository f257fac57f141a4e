package mailbox

import "time"

// Task is one logical unit of work reconstructed from a store listing.
// Each slot field holds the raw store name of the object filling it, or ""
// while the slot is empty.
type Task struct {
	// ID is the task's random id, taken from the input signature object.
	ID string

	// SubmittedAt is the submission timestamp embedded in the input
	// signature object's name. It is the authoritative ordering key.
	SubmittedAt time.Time

	// Input pair, written by the client.
	InputData string
	InputSig  string

	// Output, written by the server: either data+sig or err+sig.
	OutputData string
	OutputSig  string
	OutputErr  string
}

// HasOutput reports whether any output object has been observed.
func (t *Task) HasOutput() bool {
	return t.OutputData != "" || t.OutputSig != "" || t.OutputErr != ""
}

// Pending reports whether the task is claimable by a server: the full
// input pair is present and no output has appeared yet.
func (t *Task) Pending() bool {
	return t.InputData != "" && t.InputSig != "" && !t.HasOutput()
}

// Resolved reports whether the task carries a complete outcome: an output
// signature plus exactly one of the data or error payloads.
func (t *Task) Resolved() bool {
	return t.OutputSig != "" && (t.OutputData != "") != (t.OutputErr != "")
}

// Failed reports whether the resolved outcome is an error payload.
func (t *Task) Failed() bool {
	return t.OutputErr != ""
}

// Objects returns the raw names of every object observed for this task,
// inputs first. Cleanup deletes exactly this set.
func (t *Task) Objects() []string {
	var names []string
	for _, name := range []string{t.InputData, t.InputSig, t.OutputData, t.OutputErr, t.OutputSig} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
