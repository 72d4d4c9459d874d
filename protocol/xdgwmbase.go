package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// XdgWmBase is the xdg_wm_base global. It mints xdg_surface objects and
// must answer every ping with a pong of the same serial or the compositor
// will consider the client unresponsive.
type XdgWmBase struct {
	ID uint32
}

func NewXdgWmBase(id uint32) *XdgWmBase { return &XdgWmBase{ID: id} }

func (b *XdgWmBase) Interface() string { return "xdg_wm_base" }

// DestroyRequest builds the opcode-0 destroy request.
func (b *XdgWmBase) DestroyRequest() wire.Message { return destroyMessage(b.ID) }

// GetXdgSurfaceRequest builds the opcode-2 get_xdg_surface request (opcode 1
// is create_positioner, which this client never calls).
func (b *XdgWmBase) GetXdgSurfaceRequest(xdgSurfaceID, surfaceID uint32) wire.Message {
	return wire.Message{
		SenderID: b.ID,
		Opcode:   2,
		Args:     []wire.Argument{wire.NewID(xdgSurfaceID), wire.Obj(surfaceID)},
	}
}

// PongRequest builds the opcode-3 pong request.
func (b *XdgWmBase) PongRequest(serial uint32) wire.Message {
	return wire.Message{SenderID: b.ID, Opcode: 3, Args: []wire.Argument{wire.Uint32(serial)}}
}

// Handle processes xdg_wm_base events: opcode 0 ping(serial), which must
// be answered immediately with a pong request carrying the same serial.
func (b *XdgWmBase) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		serial, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		return []Action{RequestAction(b.PongRequest(serial))}, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: b.Interface()}
	}
}
