package window

// windowConfig collects the settings NewWindow opens the window with.
type windowConfig struct {
	title  string
	width  int
	height int
}

// WindowOption configures a window before it is opened.
type WindowOption func(*windowConfig)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title bar text
//
// Returns:
//   - WindowOption: the option
func WithTitle(title string) WindowOption {
	return func(cfg *windowConfig) {
		cfg.title = title
	}
}

// WithWidth sets the requested window width.
//
// Parameters:
//   - width: the width in pixels
//
// Returns:
//   - WindowOption: the option
func WithWidth(width int) WindowOption {
	return func(cfg *windowConfig) {
		cfg.width = width
	}
}

// WithHeight sets the requested window height.
//
// Parameters:
//   - height: the height in pixels
//
// Returns:
//   - WindowOption: the option
func WithHeight(height int) WindowOption {
	return func(cfg *windowConfig) {
		cfg.height = height
	}
}
