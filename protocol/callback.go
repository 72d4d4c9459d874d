package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Callback is a wl_callback: a one-shot notification object. It is used
// both for wl_display.sync (the sync barrier) and for wl_surface.frame
// (the per-frame presentation cadence).
type Callback struct {
	ID   uint32
	Done bool
	Data uint32
}

func NewCallback(id uint32) *Callback { return &Callback{ID: id} }

func (c *Callback) Interface() string { return "wl_callback" }

// Handle processes the single wl_callback event: opcode 0 done(data).
func (c *Callback) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		data, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		c.Done = true
		c.Data = data
		return []Action{CallbackDoneAction(c.ID, data)}, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: c.Interface()}
	}
}
