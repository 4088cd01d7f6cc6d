package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the platform window the engine renders into. It owns the native
// window handle, surfaces input events through callbacks, and runs the
// message loop that drives the frame tick.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop
	// iteration, after pending events have been dispatched.
	//
	// Parameters:
	//   - callback: the function to call, or nil to disable
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size
	// changes.
	//
	// Parameters:
	//   - callback: receives the new size in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: receives the scroll delta, positive scrolling up
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: receives the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: receives the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMiddleMouseDownCallback sets the callback for middle mouse button
	// press events.
	//
	// Parameters:
	//   - callback: receives the cursor position in pixels
	SetMiddleMouseDownCallback(callback func(x, y int32))

	// SetMiddleMouseUpCallback sets the callback for middle mouse button
	// release events.
	//
	// Parameters:
	//   - callback: receives the cursor position in pixels
	SetMiddleMouseUpCallback(callback func(x, y int32))

	// SetMouseMoveCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: receives the cursor position in pixels
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor builds the platform-appropriate WebGPU surface
	// descriptor for this window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window has
	//     been destroyed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: false once the window has been closed
	IsRunning() bool

	// Close destroys the window and shuts down the windowing library.
	//
	// Returns:
	//   - error: an error if the window was already destroyed
	Close() error

	// ProcessMessages runs the message loop until the window closes, calling
	// the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int
}
