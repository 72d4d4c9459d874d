package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Display is the wl_display singleton, always bound to id 1.
type Display struct {
	ID uint32
}

func NewDisplay(id uint32) *Display { return &Display{ID: id} }

func (d *Display) Interface() string { return "wl_display" }

// SyncRequest builds the opcode-0 sync request: the server creates a
// callback that fires once it has processed every request sent before
// this one.
func (d *Display) SyncRequest(callbackID uint32) wire.Message {
	return wire.Message{SenderID: d.ID, Opcode: 0, Args: []wire.Argument{wire.NewID(callbackID)}}
}

// GetRegistryRequest builds the opcode-1 get_registry request.
func (d *Display) GetRegistryRequest(registryID uint32) wire.Message {
	return wire.Message{SenderID: d.ID, Opcode: 1, Args: []wire.Argument{wire.NewID(registryID)}}
}

// Handle processes wl_display events: opcode 0 error, opcode 1 delete_id.
func (d *Display) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0: // error(object, code, message)
		objID, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		code, err := wire.Uint32At(payload[4:])
		if err != nil {
			return nil, err
		}
		msg, _, err := wire.StringAt(payload[8:])
		if err != nil {
			return nil, err
		}
		return []Action{ErrorAction(&waterr.RecvError{ObjectID: objID, Code: code, Message: msg})}, nil
	case 1: // delete_id(id)
		id, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		return []Action{IDDeletionAction(id)}, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: d.Interface()}
	}
}
