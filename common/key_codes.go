package common

// Key codes delivered by the window's key callbacks. GLFW reports printable
// keys as their ASCII values, so the character literals below line up with
// what the callbacks receive.
const (
	KeyW uint32 = 'W'
	KeyA uint32 = 'A'
	KeyS uint32 = 'S'
	KeyD uint32 = 'D'
	KeyQ uint32 = 'Q'
	KeyE uint32 = 'E'
	KeyB uint32 = 'B'
	KeyC uint32 = 'C'
	KeyF uint32 = 'F'
	KeyG uint32 = 'G'
	KeyL uint32 = 'L'
	KeyM uint32 = 'M'
	KeyT uint32 = 'T'
	KeyV uint32 = 'V'
	KeyX uint32 = 'X'

	KeySpace uint32 = ' '

	Key0 uint32 = '0'
	Key1 uint32 = '1'
	Key2 uint32 = '2'
	Key3 uint32 = '3'
	Key4 uint32 = '4'
	Key5 uint32 = '5'
	Key6 uint32 = '6'
	Key7 uint32 = '7'
	Key8 uint32 = '8'
	Key9 uint32 = '9'
)
