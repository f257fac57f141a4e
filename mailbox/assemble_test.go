package mailbox

import (
	"testing"
	"time"
)

func TestAssemble_DropsDataOnlyGroup(t *testing.T) {
	// A lone in.dat (client crashed between its two writes) never becomes
	// a task.
	tasks := Assemble([]string{"1700000000000-ab12.in.dat"})
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestAssemble_FullPair(t *testing.T) {
	tasks := Assemble([]string{
		"1700000000000-ab12.in.dat",
		"1700000000000-ab12.in.sig",
	})
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(tasks))
	}

	task := tasks[0]
	if task.ID != "ab12" {
		t.Errorf("ID = %q, want ab12", task.ID)
	}
	if task.SubmittedAt.UnixMilli() != 1700000000000 {
		t.Errorf("SubmittedAt = %d, want 1700000000000", task.SubmittedAt.UnixMilli())
	}
	if !task.Pending() {
		t.Error("full input pair should be pending")
	}
}

func TestAssemble_SubmittedAtFromSignature(t *testing.T) {
	// The signature object's timestamp is authoritative even when the data
	// object carries a different one.
	tasks := Assemble([]string{
		"1700000000999-ab12.in.dat",
		"1700000000000-ab12.in.sig",
	})
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	if tasks[0].SubmittedAt.UnixMilli() != 1700000000000 {
		t.Errorf("SubmittedAt = %d, want the in.sig timestamp", tasks[0].SubmittedAt.UnixMilli())
	}
}

func TestAssemble_SignatureOnlyNotPending(t *testing.T) {
	// After a server consumes the input payload, {in.sig, out.*} is what
	// the client has left to find. The group assembles but is not
	// claimable.
	tasks := Assemble([]string{"1700000000000-ab12.in.sig"})
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	if tasks[0].Pending() {
		t.Error("signature-only group must not be claimable")
	}
}

func TestAssemble_ResolvedWithoutInputData(t *testing.T) {
	tasks := Assemble([]string{
		"1700000000000-ab12.in.sig",
		"1700000000000-ab12.out.dat",
		"1700000000000-ab12.out.sig",
	})
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	task := tasks[0]
	if !task.Resolved() {
		t.Error("output pair should resolve the task")
	}
	if task.Pending() {
		t.Error("resolved task must not be pending")
	}
	if task.Failed() {
		t.Error("data outcome is not a failure")
	}
}

func TestAssemble_Ordering(t *testing.T) {
	// Submission timestamps order tasks regardless of listing order.
	listing := []string{
		"1700000000002-newer.in.dat",
		"1700000000002-newer.in.sig",
		"1700000000001-older.in.sig",
		"1700000000001-older.in.dat",
	}
	tasks := Assemble(listing)
	if len(tasks) != 2 {
		t.Fatalf("expected two tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "older" || tasks[1].ID != "newer" {
		t.Errorf("order = [%s, %s], want [older, newer]", tasks[0].ID, tasks[1].ID)
	}
}

func TestAssemble_TieKeepsFirstAppearance(t *testing.T) {
	listing := []string{
		"1700000000000-second.in.sig",
		"1700000000000-first.in.sig",
	}
	tasks := Assemble(listing)
	if len(tasks) != 2 {
		t.Fatalf("expected two tasks, got %d", len(tasks))
	}
	// Equal timestamps: stable sort keeps listing appearance order.
	if tasks[0].ID != "second" || tasks[1].ID != "first" {
		t.Errorf("order = [%s, %s], want [second, first]", tasks[0].ID, tasks[1].ID)
	}
}

func TestAssemble_LastListedWinsSlot(t *testing.T) {
	listing := []string{
		"1700000000000-ab12.in.sig",
		"1700000000000-ab12.in.dat",
		"1700000000005-ab12.in.dat",
	}
	tasks := Assemble(listing)
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	if tasks[0].InputData != "1700000000005-ab12.in.dat" {
		t.Errorf("InputData = %q, want the last-listed duplicate", tasks[0].InputData)
	}
}

func TestAssemble_IgnoresUndecodableNames(t *testing.T) {
	listing := []string{
		"README.md",
		"1700000000000-ab12.in.dat",
		".hidden",
		"1700000000000-ab12.in.sig",
		"1700000000000-ab12.in.dat.tmp",
	}
	tasks := Assemble(listing)
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	if tasks[0].InputData != "1700000000000-ab12.in.dat" {
		t.Errorf("InputData = %q", tasks[0].InputData)
	}
}

func TestAssemble_InputErrorSlotIgnored(t *testing.T) {
	// "in.err" fits the grammar but has no protocol role.
	tasks := Assemble([]string{
		"1700000000000-ab12.in.err",
		"1700000000000-ab12.in.dat",
		"1700000000000-ab12.in.sig",
	})
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	if !tasks[0].Pending() {
		t.Error("task should still be pending")
	}
}

func TestAssemble_Empty(t *testing.T) {
	if tasks := Assemble(nil); len(tasks) != 0 {
		t.Errorf("expected no tasks from empty listing, got %d", len(tasks))
	}
}

func TestAssemble_TimeOrderingAcrossWideRange(t *testing.T) {
	now := time.Now()
	names := []string{
		EncodeName(now, "cc", DirectionIn, KindSignature),
		EncodeName(now.Add(-time.Hour), "aa", DirectionIn, KindSignature),
		EncodeName(now.Add(-time.Minute), "bb", DirectionIn, KindSignature),
	}
	tasks := Assemble(names)
	if len(tasks) != 3 {
		t.Fatalf("expected three tasks, got %d", len(tasks))
	}
	want := []string{"aa", "bb", "cc"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, tasks[i].ID, id)
		}
	}
}
