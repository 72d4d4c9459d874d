package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/waterr"
)

// Buffer is the wl_buffer protocol object: offset/size within its backing
// pool, and an in-use flag toggled by attach (set by the caller, since
// attach is a wl_surface request) and the release event (cleared here).
type Buffer struct {
	ID     uint32
	Offset int32
	Width  int32
	Height int32
	Format PixelFormat
	InUse  bool
}

func NewBuffer(id uint32, offset, width, height int32, format PixelFormat) *Buffer {
	return &Buffer{ID: id, Offset: offset, Width: width, Height: height, Format: format}
}

func (b *Buffer) Interface() string { return "wl_buffer" }

// DestroyRequest builds the opcode-0 destroy request.
func (b *Buffer) DestroyRequest() Action {
	return RequestAction(destroyMessage(b.ID))
}

// Handle processes wl_buffer events: opcode 0 release.
func (b *Buffer) Handle(opcode OpCode, _ []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		b.InUse = false
		return []Action{DebugAction(applog.LevelSuperVerbose, "buffer released by compositor")}, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: b.Interface()}
	}
}
