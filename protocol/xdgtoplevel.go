package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// ToplevelState is the xdg_toplevel state enum as carried in the
// configure event's states array. There are thirteen recognized variants;
// an unrecognized value is a protocol error, not a silently ignored one.
type ToplevelState uint32

const (
	ToplevelStateMaximized ToplevelState = iota + 1
	ToplevelStateFullscreen
	ToplevelStateResizing
	ToplevelStateActivated
	ToplevelStateTiledLeft
	ToplevelStateTiledRight
	ToplevelStateTiledTop
	ToplevelStateTiledBottom
	ToplevelStateSuspended
	ToplevelStateConstrainedLeft
	ToplevelStateConstrainedRight
	ToplevelStateConstrainedTop
	ToplevelStateConstrainedBottom
)

func ToplevelStateFromUint32(v uint32) (ToplevelState, error) {
	s := ToplevelState(v)
	if s < ToplevelStateMaximized || s > ToplevelStateConstrainedBottom {
		return 0, waterr.ErrInvalidEnumVariant
	}
	return s, nil
}

// XdgToplevel is the xdg_toplevel protocol object. It wraps an xdg_surface
// (held by id) and surfaces configure/close as actions for the event loop;
// it never attempts to carry a pointer back to the wl_surface directly.
type XdgToplevel struct {
	ID uint32

	XdgSurfaceID uint32
	SurfaceID    uint32 // back-reference to the wl_surface the resize action targets

	CloseRequested bool

	LastStates []ToplevelState
}

func NewXdgToplevel(id, xdgSurfaceID, surfaceID uint32) *XdgToplevel {
	return &XdgToplevel{ID: id, XdgSurfaceID: xdgSurfaceID, SurfaceID: surfaceID}
}

func (t *XdgToplevel) Interface() string { return "xdg_toplevel" }

// DestroyRequest builds the opcode-0 destroy request.
func (t *XdgToplevel) DestroyRequest() wire.Message { return destroyMessage(t.ID) }

// SetTitleRequest builds the opcode-2 set_title request.
func (t *XdgToplevel) SetTitleRequest(title string) wire.Message {
	return wire.Message{SenderID: t.ID, Opcode: 2, Args: []wire.Argument{wire.Str(title)}}
}

// SetAppIDRequest builds the opcode-3 set_app_id request.
func (t *XdgToplevel) SetAppIDRequest(appID string) wire.Message {
	return wire.Message{SenderID: t.ID, Opcode: 3, Args: []wire.Argument{wire.Str(appID)}}
}

// Handle processes xdg_toplevel events: opcode 0 configure(w, h,
// states-array), opcode 1 close, opcode 4 configure_bounds(w, h), opcode 5
// wm_capabilities(capabilities-array). The latter two are acknowledged but
// otherwise inert: this client does not adapt layout to bounds or
// capability hints.
func (t *XdgToplevel) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		w, err := wire.Int32At(payload)
		if err != nil {
			return nil, err
		}
		h, err := wire.Int32At(payload[4:])
		if err != nil {
			return nil, err
		}
		raw, _, err := wire.ArrayAt(payload[8:])
		if err != nil {
			return nil, err
		}
		states, err := decodeStates(raw)
		if err != nil {
			return nil, err
		}
		t.LastStates = states
		if w != 0 && h != 0 {
			return []Action{ResizeAction(w, h, t.SurfaceID)}, nil
		}
		return nil, nil
	case 1:
		t.CloseRequested = true
		return []Action{DebugAction(applog.LevelImportant, "compositor requested toplevel close")}, nil
	case 4:
		return nil, nil
	case 5:
		return nil, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: t.Interface()}
	}
}

// decodeStates interprets the states array as a sequence of 4-byte
// little/native-endian uint32 enum values, per the xdg_toplevel wire
// format (the array element type for this event is "uint32 array").
func decodeStates(raw []byte) ([]ToplevelState, error) {
	if len(raw)%4 != 0 {
		return nil, waterr.ErrParse
	}
	states := make([]ToplevelState, 0, len(raw)/4)
	for i := 0; i < len(raw); i += 4 {
		v, err := wire.Uint32At(raw[i:])
		if err != nil {
			return nil, err
		}
		s, err := ToplevelStateFromUint32(v)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, nil
}
