package renderer

import "testing"

func TestDescriptorTableAllocateReusesFreedSlots(t *testing.T) {
	table := NewDescriptorTable()

	a := table.Allocate("env-a")
	b := table.Allocate("env-b")
	c := table.Allocate("env-c")
	if a != 0 || b != 1 || c != 2 {
		t.Fatalf("expected sequential slots 0,1,2, got %d,%d,%d", a, b, c)
	}

	freed := table.Free(b)
	if freed != "env-b" {
		t.Fatalf("expected freed resource env-b, got %v", freed)
	}
	if table.Resource(b) != nil {
		t.Error("freed slot should read nil")
	}

	d := table.Allocate("env-d")
	if d != b {
		t.Errorf("expected freed slot %d to be reused, got %d", b, d)
	}
	if table.Len() != 3 {
		t.Errorf("table should not have grown, len = %d", table.Len())
	}
}

func TestDescriptorTableReplaceReturnsPrevious(t *testing.T) {
	table := NewDescriptorTable()
	slot := table.Allocate("procedural-sky")

	prev := table.Replace(slot, "kloppenheim.tif")
	if prev != "procedural-sky" {
		t.Errorf("expected previous resource, got %v", prev)
	}
	if table.Resource(slot) != "kloppenheim.tif" {
		t.Errorf("expected replacement visible, got %v", table.Resource(slot))
	}

	if got := table.Replace(99, "x"); got != nil {
		t.Errorf("out of range replace should return nil, got %v", got)
	}
}

func TestDescriptorTableFreeInvalidSlot(t *testing.T) {
	table := NewDescriptorTable()
	if got := table.Free(-1); got != nil {
		t.Errorf("negative slot free should return nil, got %v", got)
	}
	if got := table.Free(5); got != nil {
		t.Errorf("out of range free should return nil, got %v", got)
	}
}
