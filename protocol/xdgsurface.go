package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// XdgSurface is the xdg_surface protocol object. It wraps a wl_surface
// (held as a non-owning back-reference by id) with the configure/
// ack_configure handshake: no buffer may be committed to the underlying
// surface until at least one configure event has been acknowledged.
type XdgSurface struct {
	ID uint32

	SurfaceID uint32 // back-reference to the wrapped wl_surface

	IsConfigured bool
	LastSerial   uint32
}

func NewXdgSurface(id, surfaceID uint32) *XdgSurface {
	return &XdgSurface{ID: id, SurfaceID: surfaceID}
}

func (s *XdgSurface) Interface() string { return "xdg_surface" }

// DestroyRequest builds the opcode-0 destroy request.
func (s *XdgSurface) DestroyRequest() wire.Message { return destroyMessage(s.ID) }

// GetToplevelRequest builds the opcode-1 get_toplevel request.
func (s *XdgSurface) GetToplevelRequest(toplevelID uint32) wire.Message {
	return wire.Message{SenderID: s.ID, Opcode: 1, Args: []wire.Argument{wire.NewID(toplevelID)}}
}

// AckConfigureRequest builds the opcode-4 ack_configure request.
func (s *XdgSurface) AckConfigureRequest(serial uint32) wire.Message {
	return wire.Message{SenderID: s.ID, Opcode: 4, Args: []wire.Argument{wire.Uint32(serial)}}
}

// Handle processes xdg_surface events: opcode 0 configure(serial), which
// must be followed by an ack_configure of the same serial before the next
// wl_surface.commit.
func (s *XdgSurface) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		serial, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		s.IsConfigured = true
		s.LastSerial = serial
		return []Action{RequestAction(s.AckConfigureRequest(serial))}, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: s.Interface()}
	}
}
