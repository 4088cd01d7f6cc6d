// package view models the planar camera view the frame orchestrator renders
// from. A view pair keeps the previous frame's matrices alongside the current
// ones so the G-buffer passes can reconstruct motion vectors, and the temporal
// policy can compare view matrices bit-exactly to detect a static camera.
package view

import (
	"github.com/Carmen-Shannon/lumen-go/common"
)

// Constants is the GPU-facing uniform block derived from a View, laid out for
// direct upload via common.StructToBytes.
type Constants struct {
	WorldToView     [16]float32
	ViewToClip      [16]float32
	WorldToClip     [16]float32
	ClipToWorld     [16]float32
	PrevWorldToClip [16]float32

	ViewportSize [2]float32
	PixelOffset  [2]float32

	CameraPosition [3]float32
	_              float32
}

// viewImpl is the implementation of the View interface.
type viewImpl struct {
	width, height uint32

	fovY float32
	near float32

	viewMatrix      [16]float32
	projMatrix      [16]float32
	viewProjMatrix  [16]float32
	invViewProj     [16]float32
	cameraPosition  [3]float32
	pixelOffsetX    float32
	pixelOffsetY    float32
	prevWorldToClip [16]float32
}

// View holds the camera matrices and sub-pixel jitter for one rendered frame.
// SetMatrices recomputes the derived projection and inverse matrices; the
// previous frame's world-to-clip matrix is captured via CopyPreviousFrom.
type View interface {
	// SetViewport sets the render resolution the projection aspect is derived from.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	SetViewport(width, height uint32)

	// SetMatrices installs the world-to-view matrix and projection parameters,
	// recomputing the derived projection, view-projection, and inverse matrices.
	// The projection is reverse-Z with an infinite far plane.
	//
	// Parameters:
	//   - viewMatrix: the world-to-view matrix, column-major
	//   - cameraPosition: the camera position in world space
	//   - fovY: vertical field of view in radians
	//   - near: near plane distance
	SetMatrices(viewMatrix [16]float32, cameraPosition [3]float32, fovY, near float32)

	// SetPixelOffset sets the sub-pixel jitter applied to the projection, in
	// units of pixels in [-0.5, 0.5].
	//
	// Parameters:
	//   - x, y: the jitter offsets
	SetPixelOffset(x, y float32)

	// CopyPreviousFrom captures another view's world-to-clip matrix as this
	// view's previous-frame matrix, used for motion vector reconstruction.
	//
	// Parameters:
	//   - prev: the view holding last frame's matrices
	CopyPreviousFrom(prev View)

	// ViewMatrix returns the world-to-view matrix. The array is comparable
	// with ==, which the temporal policy relies on for bit-exact static
	// camera detection.
	//
	// Returns:
	//   - [16]float32: the world-to-view matrix, column-major
	ViewMatrix() [16]float32

	// ProjMatrix returns the jittered reverse-Z projection matrix.
	//
	// Returns:
	//   - [16]float32: the view-to-clip matrix, column-major
	ProjMatrix() [16]float32

	// WorldToClip returns the combined view-projection matrix.
	//
	// Returns:
	//   - [16]float32: the world-to-clip matrix, column-major
	WorldToClip() [16]float32

	// PixelOffset returns the current sub-pixel jitter.
	//
	// Returns:
	//   - float32, float32: the x and y jitter in pixels
	PixelOffset() (float32, float32)

	// Width returns the viewport width in pixels.
	//
	// Returns:
	//   - uint32: the width
	Width() uint32

	// Height returns the viewport height in pixels.
	//
	// Returns:
	//   - uint32: the height
	Height() uint32

	// CameraPosition returns the camera position in world space.
	//
	// Returns:
	//   - [3]float32: the position
	CameraPosition() [3]float32

	// Constants assembles the GPU uniform block for this view.
	//
	// Returns:
	//   - Constants: the uniform data ready for upload
	Constants() Constants
}

var _ View = &viewImpl{}

// NewView creates a View with identity matrices and the given viewport.
//
// Parameters:
//   - width, height: the initial viewport size in pixels
//
// Returns:
//   - View: the new view
func NewView(width, height uint32) View {
	v := &viewImpl{
		width:  width,
		height: height,
		fovY:   1.0,
		near:   0.1,
	}
	common.Identity(v.viewMatrix[:])
	common.Identity(v.projMatrix[:])
	common.Identity(v.viewProjMatrix[:])
	common.Identity(v.invViewProj[:])
	common.Identity(v.prevWorldToClip[:])
	return v
}

func (v *viewImpl) SetViewport(width, height uint32) {
	v.width = width
	v.height = height
	v.recompute()
}

func (v *viewImpl) SetMatrices(viewMatrix [16]float32, cameraPosition [3]float32, fovY, near float32) {
	v.viewMatrix = viewMatrix
	v.cameraPosition = cameraPosition
	v.fovY = fovY
	v.near = near
	v.recompute()
}

func (v *viewImpl) SetPixelOffset(x, y float32) {
	v.pixelOffsetX = x
	v.pixelOffsetY = y
	v.recompute()
}

func (v *viewImpl) CopyPreviousFrom(prev View) {
	v.prevWorldToClip = prev.WorldToClip()
}

// recompute rebuilds the projection and derived matrices. The jitter offset is
// folded into the projection's clip-space translation terms so every pass sees
// the same jittered frustum.
func (v *viewImpl) recompute() {
	aspect := float32(1)
	if v.height > 0 {
		aspect = float32(v.width) / float32(v.height)
	}
	common.PerspectiveReverseZ(v.projMatrix[:], v.fovY, aspect, v.near)

	if v.width > 0 {
		v.projMatrix[8] += 2.0 * v.pixelOffsetX / float32(v.width)
	}
	if v.height > 0 {
		v.projMatrix[9] -= 2.0 * v.pixelOffsetY / float32(v.height)
	}

	common.Mul4(v.viewProjMatrix[:], v.projMatrix[:], v.viewMatrix[:])
	common.Invert4(v.invViewProj[:], v.viewProjMatrix[:])
}

func (v *viewImpl) ViewMatrix() [16]float32 {
	return v.viewMatrix
}

func (v *viewImpl) ProjMatrix() [16]float32 {
	return v.projMatrix
}

func (v *viewImpl) WorldToClip() [16]float32 {
	return v.viewProjMatrix
}

func (v *viewImpl) PixelOffset() (float32, float32) {
	return v.pixelOffsetX, v.pixelOffsetY
}

func (v *viewImpl) Width() uint32 {
	return v.width
}

func (v *viewImpl) Height() uint32 {
	return v.height
}

func (v *viewImpl) CameraPosition() [3]float32 {
	return v.cameraPosition
}

func (v *viewImpl) Constants() Constants {
	return Constants{
		WorldToView:     v.viewMatrix,
		ViewToClip:      v.projMatrix,
		WorldToClip:     v.viewProjMatrix,
		ClipToWorld:     v.invViewProj,
		PrevWorldToClip: v.prevWorldToClip,
		ViewportSize:    [2]float32{float32(v.width), float32(v.height)},
		PixelOffset:     [2]float32{v.pixelOffsetX, v.pixelOffsetY},
		CameraPosition:  v.cameraPosition,
	}
}
