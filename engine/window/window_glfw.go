package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow implements Window on top of GLFW. All methods must be called
// from the thread that created the window; NewWindow locks the calling
// goroutine to its OS thread for that reason.
type glfwWindow struct {
	win    *glfw.Window
	width  int
	height int

	onUpdate          func()
	onResize          func(width, height int)
	onScroll          func(delta float32)
	onKeyDown         func(keyCode uint32)
	onKeyUp           func(keyCode uint32)
	onMiddleMouseDown func(x, y int32)
	onMiddleMouseUp   func(x, y int32)
	onMouseMove       func(x, y int32)
}

var _ Window = &glfwWindow{}

// NewWindow creates the platform window and installs the input hooks.
// GLFW initializes lazily here and terminates when the window closes.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: an error if the windowing library or window creation fails
func NewWindow(options ...WindowOption) (Window, error) {
	cfg := windowConfig{
		title:  "lumen",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	// The surface comes from WebGPU, so no client OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(cfg.width, cfg.height, cfg.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	w := &glfwWindow{win: win}
	w.installCallbacks()

	// The framebuffer can differ from the requested size on high-DPI
	// displays; the renderer needs pixel dimensions.
	w.width, w.height = win.GetFramebufferSize()
	return w, nil
}

func (w *glfwWindow) installCallbacks() {
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	w.win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonMiddle {
			return
		}
		x, y := w.win.GetCursorPos()
		switch action {
		case glfw.Press:
			if w.onMiddleMouseDown != nil {
				w.onMiddleMouseDown(int32(x), int32(y))
			}
		case glfw.Release:
			if w.onMiddleMouseUp != nil {
				w.onMiddleMouseUp(int32(x), int32(y))
			}
		}
	})

	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.onMouseMove != nil {
			w.onMouseMove(int32(x), int32(y))
		}
	})

	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
}

func (w *glfwWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *glfwWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *glfwWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *glfwWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *glfwWindow) SetMiddleMouseDownCallback(callback func(x, y int32)) {
	w.onMiddleMouseDown = callback
}

func (w *glfwWindow) SetMiddleMouseUpCallback(callback func(x, y int32)) {
	w.onMiddleMouseUp = callback
}

func (w *glfwWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.win == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

func (w *glfwWindow) IsRunning() bool {
	return w.win != nil && !w.win.ShouldClose()
}

func (w *glfwWindow) Close() error {
	if w.win == nil {
		return fmt.Errorf("window already destroyed")
	}
	w.win.SetShouldClose(true)
	w.win.Destroy()
	w.win = nil
	glfw.Terminate()
	return nil
}

func (w *glfwWindow) ProcessMessages() {
	for w.IsRunning() {
		glfw.PollEvents()
		if !w.IsRunning() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *glfwWindow) Width() int {
	return w.width
}

func (w *glfwWindow) Height() int {
	return w.height
}
