// package restir wraps the spatiotemporal light resampling state as an opaque
// context. The orchestrator never looks inside the reservoir math; it only
// sizes GPU buffers from the context's slot-count queries and feeds the
// lighting passes a per-frame parameter block. A context is immutable after
// construction and is recreated wholesale when its parameters change.
package restir

// CheckerboardMode selects which pixel subset the resampling passes shade each
// frame. When enabled, alternating fields are shaded on even and odd frames
// and the missing pixels are reconstructed temporally.
type CheckerboardMode int

const (
	// CheckerboardOff shades every pixel every frame.
	CheckerboardOff CheckerboardMode = iota

	// CheckerboardBlack shades the black field on even frames.
	CheckerboardBlack

	// CheckerboardWhite shades the white field on even frames.
	CheckerboardWhite
)

// Enabled reports whether checkerboard field rendering is active.
//
// Returns:
//   - bool: true unless the mode is CheckerboardOff
func (m CheckerboardMode) Enabled() bool {
	return m != CheckerboardOff
}

// reservoirBlockSize is the square tile edge the reservoir buffer is padded
// to, so neighboring pixels of a tile land in the same cache lines.
const reservoirBlockSize = 16

// ContextParams describes how a resampling context partitions the screen and
// the light set. The struct is comparable with ==; the lifecycle manager uses
// that to detect when the context must be recreated.
type ContextParams struct {
	// RenderWidth and RenderHeight are the output resolution the reservoir
	// buffers are sized for.
	RenderWidth  uint32
	RenderHeight uint32

	// Checkerboard selects the field rendering mode.
	Checkerboard CheckerboardMode

	// ImportanceGridCells is the edge length of the cubical world-space grid
	// used for light importance presampling.
	ImportanceGridCells uint32

	// ImportanceSlotsPerCell is the number of presampled light slots stored
	// per grid cell.
	ImportanceSlotsPerCell uint32
}

// DefaultContextParams returns the parameter set a context starts from before
// user overrides.
//
// Parameters:
//   - width, height: the output resolution
//
// Returns:
//   - ContextParams: the default parameters
func DefaultContextParams(width, height uint32) ContextParams {
	return ContextParams{
		RenderWidth:            width,
		RenderHeight:           height,
		Checkerboard:           CheckerboardOff,
		ImportanceGridCells:    16,
		ImportanceSlotsPerCell: 512,
	}
}

// FrameParams is the per-frame parameter block consumed by the lighting
// passes. It is rebuilt by the frame sequencer at the start of every frame and
// discarded at frame end.
type FrameParams struct {
	// FrameIndex is the effective frame index driving random sequences.
	FrameIndex uint32

	// ImportanceCenter is the world-space center of the importance grid,
	// normally the camera position unless the center is frozen.
	ImportanceCenter [3]float32

	// CellSize is the world-space edge length of one importance grid cell.
	CellSize float32

	// LocalLightCount is the number of light buffer slots holding local
	// (point, spot, emissive triangle) lights this frame.
	LocalLightCount uint32

	// LocalLightImportanceSampling enables the presampled importance grid for
	// local light selection.
	LocalLightImportanceSampling bool

	// EnvironmentLightPresent indicates an environment map is bound and its
	// PDF mipmap is valid.
	EnvironmentLightPresent bool
}

// contextImpl is the implementation of the Context interface.
type contextImpl struct {
	params ContextParams
}

// Context is the opaque resampling state descriptor. The buffer bundles that
// depend on it query element counts here; recreating the context invalidates
// those bundles.
type Context interface {
	// Params returns the parameters the context was built from.
	//
	// Returns:
	//   - ContextParams: the construction parameters
	Params() ContextParams

	// ReservoirElementCount returns the number of reservoir slots one
	// reservoir buffer layer needs, padded to the internal block size.
	// Checkerboard rendering halves the width before padding.
	//
	// Returns:
	//   - uint32: the element count
	ReservoirElementCount() uint32

	// ImportanceGridSlotCount returns the total presampled light slots across
	// the importance grid.
	//
	// Returns:
	//   - uint32: cells³ × slots per cell
	ImportanceGridSlotCount() uint32
}

var _ Context = &contextImpl{}

// NewContext creates a resampling context from the given parameters. There is
// no incremental update; callers recreate the context when parameters change.
//
// Parameters:
//   - params: the context parameters
//
// Returns:
//   - Context: the new context
func NewContext(params ContextParams) Context {
	return &contextImpl{params: params}
}

func (c *contextImpl) Params() ContextParams {
	return c.params
}

func (c *contextImpl) ReservoirElementCount() uint32 {
	width := c.params.RenderWidth
	if c.params.Checkerboard.Enabled() {
		width = (width + 1) / 2
	}
	blocksX := (width + reservoirBlockSize - 1) / reservoirBlockSize
	blocksY := (c.params.RenderHeight + reservoirBlockSize - 1) / reservoirBlockSize
	return blocksX * blocksY * reservoirBlockSize * reservoirBlockSize
}

func (c *contextImpl) ImportanceGridSlotCount() uint32 {
	cells := c.params.ImportanceGridCells
	return cells * cells * cells * c.params.ImportanceSlotsPerCell
}
