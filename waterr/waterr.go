// Package waterr defines the sentinel error taxonomy shared across the
// wayland client packages.
package waterr

import "fmt"

var (
	// ErrParse is returned when wire data is malformed or a payload is
	// shorter than the argument it is supposed to carry.
	ErrParse = fmt.Errorf("wayland: parse error")

	// ErrRecvLenBad is returned when a frame header claims a size smaller
	// than the 8-byte header itself.
	ErrRecvLenBad = fmt.Errorf("wayland: received frame length is bad")

	// ErrNotInRegistry is returned when a caller asks to bind an
	// interface the compositor never advertised.
	ErrNotInRegistry = fmt.Errorf("wayland: interface not found in registry")

	// ErrObjectNonExistent is returned when a lookup by id fails.
	ErrObjectNonExistent = fmt.Errorf("wayland: requested object does not exist")

	// ErrObjectNonExistentWeak is returned when a weak back-reference
	// fails to re-resolve through the id-map.
	ErrObjectNonExistentWeak = fmt.Errorf("wayland: weak reference target does not exist")

	// ErrInvalidPixelFormat is returned when a shm format advertisement
	// or buffer request names a format outside the enumerated set.
	ErrInvalidPixelFormat = fmt.Errorf("wayland: invalid pixel format")

	// ErrInvalidEnumVariant is returned when a received enum value falls
	// outside the known variant range.
	ErrInvalidEnumVariant = fmt.Errorf("wayland: invalid enum variant")

	// ErrBufferNotAttached signals an operation that requires an
	// attached buffer found none.
	ErrBufferNotAttached = fmt.Errorf("wayland: buffer object not attached")

	// ErrFDExpected is returned when a protocol event mandates an
	// ancillary file descriptor but none was received.
	ErrFDExpected = fmt.Errorf("wayland: expected file descriptor, got none")

	// ErrNoWaylandDisplay is returned when WAYLAND_DISPLAY or
	// XDG_RUNTIME_DIR is unset.
	ErrNoWaylandDisplay = fmt.Errorf("wayland: WAYLAND_DISPLAY or XDG_RUNTIME_DIR not set")
)

// InvalidOpCode reports an opcode a handler does not know, for an
// interface named by iface.
type InvalidOpCode struct {
	Opcode uint16
	Iface  string
}

func (e *InvalidOpCode) Error() string {
	return fmt.Sprintf("wayland: invalid opcode %d for interface %s", e.Opcode, e.Iface)
}

// RecvError is the Go form of a wl_display.error event reported by the
// compositor.
type RecvError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *RecvError) Error() string {
	return fmt.Sprintf("wayland: compositor reported error on object %d, code %d: %s", e.ObjectID, e.Code, e.Message)
}
