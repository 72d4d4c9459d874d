package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Surface is the wl_surface protocol object. It remembers its attached
// buffer (by id, a non-owning back-reference re-resolved through the id
// manager), its committed dimensions, its pixel format, and whether a
// frame callback is currently pending.
type Surface struct {
	ID uint32

	Format PixelFormat

	AttachedBufferID uint32
	HasAttachedBuffer bool

	W, H int32

	PendingFrameCallbackID uint32
	HasPendingFrameCallback bool
}

func NewSurface(id uint32, format PixelFormat) *Surface {
	return &Surface{ID: id, Format: format}
}

func (s *Surface) Interface() string { return "wl_surface" }

// DestroyRequest builds the opcode-0 destroy request.
func (s *Surface) DestroyRequest() wire.Message { return destroyMessage(s.ID) }

// AttachRequest builds the opcode-1 attach request. The protocol always
// attaches at (0,0): sub-surface offsets are out of scope.
func (s *Surface) AttachRequest(bufferID uint32) wire.Message {
	return wire.Message{
		SenderID: s.ID,
		Opcode:   1,
		Args:     []wire.Argument{wire.Obj(bufferID), wire.Int32(0), wire.Int32(0)},
	}
}

// Attach records the buffer as attached (clearing whatever was previously
// attached) and returns the wire request.
func (s *Surface) Attach(bufferID uint32) wire.Message {
	s.AttachedBufferID = bufferID
	s.HasAttachedBuffer = true
	return s.AttachRequest(bufferID)
}

// FrameRequest builds the opcode-3 frame request for the given
// newly-allocated callback id.
func (s *Surface) FrameRequest(callbackID uint32) wire.Message {
	return wire.Message{SenderID: s.ID, Opcode: 3, Args: []wire.Argument{wire.NewID(callbackID)}}
}

// Frame records the callback id as pending. At most one frame callback may
// be pending at a time; callers must check HasPendingFrameCallback first.
func (s *Surface) Frame(callbackID uint32) wire.Message {
	s.PendingFrameCallbackID = callbackID
	s.HasPendingFrameCallback = true
	return s.FrameRequest(callbackID)
}

// FrameCallbackFired clears the pending-callback flag; call this once the
// callback's done event has been observed.
func (s *Surface) FrameCallbackFired() {
	s.HasPendingFrameCallback = false
}

// CommitRequest builds the opcode-6 commit request.
func (s *Surface) CommitRequest() wire.Message {
	return wire.Message{SenderID: s.ID, Opcode: 6}
}

// DamageBufferRequest builds the opcode-9 damage_buffer request.
func (s *Surface) DamageBufferRequest(x, y, w, h int32) wire.Message {
	return wire.Message{
		SenderID: s.ID,
		Opcode:   9,
		Args:     []wire.Argument{wire.Int32(x), wire.Int32(y), wire.Int32(w), wire.Int32(h)},
	}
}

// DamageWhole marks the entire committed surface dirty.
func (s *Surface) DamageWhole() wire.Message {
	return s.DamageBufferRequest(0, 0, s.W, s.H)
}

// SetSize updates the committed dimensions, invariant with the attached
// buffer's dimensions by the time of the next commit.
func (s *Surface) SetSize(w, h int32) {
	s.W, s.H = w, h
}

// Handle: wl_surface has no events relevant to this client (enter/leave
// are output-tracking events, out of scope per the non-goals).
func (s *Surface) Handle(opcode OpCode, _ []byte, _ []int) ([]Action, error) {
	return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: s.Interface()}
}
