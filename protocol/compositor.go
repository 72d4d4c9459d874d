package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Compositor is the wl_compositor global; its only job is minting
// wl_surface objects.
type Compositor struct {
	ID uint32
}

func NewCompositor(id uint32) *Compositor { return &Compositor{ID: id} }

func (c *Compositor) Interface() string { return "wl_compositor" }

// CreateSurfaceRequest builds the opcode-0 create_surface request.
func (c *Compositor) CreateSurfaceRequest(surfaceID uint32) wire.Message {
	return wire.Message{SenderID: c.ID, Opcode: 0, Args: []wire.Argument{wire.NewID(surfaceID)}}
}

// Handle: wl_compositor has no events.
func (c *Compositor) Handle(opcode OpCode, _ []byte, _ []int) ([]Action, error) {
	return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: c.Interface()}
}
