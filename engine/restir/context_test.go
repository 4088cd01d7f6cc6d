package restir

import "testing"

func TestReservoirElementCountPadsToBlocks(t *testing.T) {
	ctx := NewContext(ContextParams{RenderWidth: 1920, RenderHeight: 1080})
	// 1920/16 = 120 blocks, 1080 rounds up to 68 blocks.
	want := uint32(120 * 68 * 256)
	if got := ctx.ReservoirElementCount(); got != want {
		t.Errorf("element count = %d, want %d", got, want)
	}
}

func TestReservoirElementCountCheckerboardHalvesWidth(t *testing.T) {
	full := NewContext(ContextParams{RenderWidth: 1920, RenderHeight: 1080})
	half := NewContext(ContextParams{
		RenderWidth:  1920,
		RenderHeight: 1080,
		Checkerboard: CheckerboardBlack,
	})
	if half.ReservoirElementCount() >= full.ReservoirElementCount() {
		t.Error("checkerboard mode should shrink the reservoir buffer")
	}
	// 960/16 = 60 blocks wide.
	if got := half.ReservoirElementCount(); got != 60*68*256 {
		t.Errorf("checkerboard element count = %d, want %d", got, 60*68*256)
	}
}

func TestImportanceGridSlotCount(t *testing.T) {
	ctx := NewContext(ContextParams{
		ImportanceGridCells:    4,
		ImportanceSlotsPerCell: 64,
	})
	if got := ctx.ImportanceGridSlotCount(); got != 4*4*4*64 {
		t.Errorf("grid slot count = %d, want %d", got, 4*4*4*64)
	}
}

func TestContextParamsComparable(t *testing.T) {
	a := DefaultContextParams(1280, 720)
	b := DefaultContextParams(1280, 720)
	if a != b {
		t.Error("identical params must compare equal")
	}
	b.Checkerboard = CheckerboardWhite
	if a == b {
		t.Error("changed params must compare unequal")
	}
}
