package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Dmabuf is the zwp_linux_dmabuf_v1 global. This client only uses it to
// mint a default feedback object; the per-surface feedback and explicit
// plane/format negotiation requests are out of scope.
type Dmabuf struct {
	ID uint32
}

func NewDmabuf(id uint32) *Dmabuf { return &Dmabuf{ID: id} }

func (d *Dmabuf) Interface() string { return "zwp_linux_dmabuf_v1" }

// DestroyRequest builds the opcode-0 destroy request.
func (d *Dmabuf) DestroyRequest() wire.Message { return destroyMessage(d.ID) }

// GetDefaultFeedbackRequest builds the opcode-2 get_default_feedback
// request.
func (d *Dmabuf) GetDefaultFeedbackRequest(feedbackID uint32) wire.Message {
	return wire.Message{SenderID: d.ID, Opcode: 2, Args: []wire.Argument{wire.NewID(feedbackID)}}
}

// Handle: zwp_linux_dmabuf_v1 has a "format" event (opcode 0, deprecated
// in favor of modifier events) that this client ignores in favor of the
// feedback object's tranche_formats.
func (d *Dmabuf) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		if _, err := wire.Uint32At(payload); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: d.Interface()}
	}
}
