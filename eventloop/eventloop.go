// Package eventloop implements the single-threaded drain-dispatch-apply
// cycle: the scheduler every other component runs under. Grounded on the
// Dispatch/Roundtrip pair in bnema-libwldevices-go's wlclient.Display,
// generalized from "one listener callback per opcode" into the
// collection-of-intent Action model the rest of this client uses so that
// handlers never mutate sibling objects directly.
package eventloop

import (
	"context"
	"fmt"

	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/idmgr"
	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/transport"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// maxIdleRetries bounds how many consecutive would-block receives the
// drain loop tolerates before yielding control back to the caller. This
// is a liveness safety net, not a timeout.
const maxIdleRetries = 10000

// ResizeHandler executes the resize sub-protocol's backend-specific half
// (shared-memory pool growth or DMA-BUF reallocation) once the event loop
// has recognized an ActionResize. It returns the follow-up actions (old
// buffer destruction, backend growth and new buffer creation, then
// attach/damage/commit) to be pushed to the front of the action queue;
// the surface's committed size is updated directly, not as an action.
type ResizeHandler interface {
	HandleResize(w, h int32, surfaceID uint32) ([]protocol.Action, error)
}

// Loop drives the drain/dispatch/apply cycle over one transport
// connection and id manager.
type Loop struct {
	conn *transport.Conn
	ids  *idmgr.Manager

	resize ResizeHandler

	leftover   []byte
	pendingFDs []int

	hasSyncBarrier bool
	syncCallbackID uint32

	frameCallbacks map[uint32]func()
}

func New(conn *transport.Conn, ids *idmgr.Manager) *Loop {
	return &Loop{conn: conn, ids: ids}
}

// SetResizeHandler installs the backend that executes resize actions.
func (l *Loop) SetResizeHandler(h ResizeHandler) { l.resize = h }

// RegisterFrameCallback arranges for onDone to run once cbID's done event is
// observed, then forgets it. Used to re-arm a surface's pending-frame-
// callback flag at the compositor's cadence, the same way StartSync arms
// the sync barrier for cbID == syncCallbackID.
func (l *Loop) RegisterFrameCallback(cbID uint32, onDone func()) {
	if l.frameCallbacks == nil {
		l.frameCallbacks = make(map[uint32]func())
	}
	l.frameCallbacks[cbID] = onDone
}

// StartSync sends a wl_display.sync request and records its callback as
// the current synchronization barrier. Drain terminates cleanly once that
// callback's done event is observed.
func (l *Loop) StartSync(display *protocol.Display) error {
	cbID := l.ids.Allocate("wl_callback", nil)
	cb := protocol.NewCallback(cbID)
	l.ids.Set(cbID, cb)

	l.hasSyncBarrier = true
	l.syncCallbackID = cbID
	return l.Send(display.SyncRequest(cbID))
}

// Send encodes and writes one request immediately, outside of action
// application (used for requests issued directly by the façade rather
// than produced as a handler's Action).
func (l *Loop) Send(msg wire.Message) error {
	payload, fds, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return l.conn.Send(payload, fds)
}

// Drain runs the full cycle: receive frames until none remain, dispatch
// each to its object, and apply the resulting actions, until the socket
// would block (yielding control) or a sync barrier completes.
func (l *Loop) Drain(ctx context.Context) error {
	idle := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, ok, err := l.conn.TryRecv()
		if err != nil {
			return err
		}
		if !ok {
			idle++
			if idle >= maxIdleRetries {
				return nil
			}
			continue
		}
		idle = 0

		l.leftover = append(l.leftover, result.Data...)
		l.pendingFDs = append(l.pendingFDs, result.FDs...)

		frames, trailing, err := wire.DecodeFrames(l.leftover)
		if err != nil {
			return err
		}
		l.leftover = append([]byte(nil), l.leftover[len(l.leftover)-trailing:]...)

		var queue []protocol.Action
		for _, frame := range frames {
			actions, derr := l.dispatch(frame)
			if derr != nil {
				// A handler error becomes a logged, non-fatal event: an
				// unrecognized opcode from one object must not tear down
				// the drain of every other object's events in the batch.
				applog.Errorf("eventloop", derr)
				continue
			}
			queue = append(queue, actions...)
		}

		done, err := l.applyActions(queue)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// fdsNeeded reports how many ancillary file descriptors the named event
// carries, so they can be popped off the arrival-ordered pending queue in
// the right amount. Only zwp_linux_dmabuf_feedback_v1's format_table
// event carries one in this protocol surface.
func fdsNeeded(iface string, opcode protocol.OpCode) int {
	if iface == "zwp_linux_dmabuf_feedback_v1" && opcode == 1 {
		return 1
	}
	return 0
}

func (l *Loop) dispatch(frame wire.DecodedFrame) ([]protocol.Action, error) {
	entry, err := l.ids.Lookup(frame.ReceiverID)
	if err != nil {
		applog.Debugf("eventloop", "event for unknown object %d (opcode %d), skipping", frame.ReceiverID, frame.Opcode)
		return nil, nil
	}
	obj, ok := entry.Object.(protocol.Object)
	if !ok || obj == nil {
		applog.Debugf("eventloop", "object %d (%s) has no handler installed, skipping", frame.ReceiverID, entry.Interface)
		return nil, nil
	}

	n := fdsNeeded(entry.Interface, frame.Opcode)
	var fds []int
	if n > 0 {
		if n > len(l.pendingFDs) {
			return nil, fmt.Errorf("wayland: expected %d fds for %s event %d, have %d", n, entry.Interface, frame.Opcode, len(l.pendingFDs))
		}
		fds = l.pendingFDs[:n]
		l.pendingFDs = l.pendingFDs[n:]
	}

	return obj.Handle(frame.Opcode, frame.Payload, fds)
}

// applyActions drains the action queue in order, honoring resize's
// front-of-queue insertion and the sync barrier's early termination.
func (l *Loop) applyActions(queue []protocol.Action) (terminate bool, err error) {
	for len(queue) > 0 {
		action := queue[0]
		queue = queue[1:]

		switch action.Kind {
		case protocol.ActionRequest:
			if err := l.Send(action.Request); err != nil {
				return false, err
			}
		case protocol.ActionIDDeletion:
			l.ids.Free(action.ID)
		case protocol.ActionDropObject:
			l.ids.Free(action.ID)
		case protocol.ActionDebugMessage:
			logAtLevel(action.Level, action.Text)
		case protocol.ActionResize:
			if l.resize == nil {
				continue
			}
			follow, rerr := l.resize.HandleResize(action.ResizeW, action.ResizeH, action.ResizeSurfaceID)
			if rerr != nil {
				return false, rerr
			}
			queue = append(append([]protocol.Action(nil), follow...), queue...)
		case protocol.ActionCallbackDone:
			l.ids.Free(action.CallbackID)
			if l.hasSyncBarrier && action.CallbackID == l.syncCallbackID {
				l.hasSyncBarrier = false
				return true, nil
			}
			if fn, ok := l.frameCallbacks[action.CallbackID]; ok {
				delete(l.frameCallbacks, action.CallbackID)
				fn()
			}
		case protocol.ActionError:
			// Reported, not fatal: a RecvError from the compositor (or a
			// handler-raised error folded into an Action) must not abort
			// the drain by itself.
			applog.Errorf("protocol", action.Err)
		}
	}
	return false, nil
}

func logAtLevel(level applog.Level, text string) {
	switch {
	case level >= applog.LevelVerbose:
		applog.Debugf("protocol", "%s", text)
	case level == applog.LevelImportant:
		applog.Important("protocol", text)
	default:
		applog.Debugf("protocol", "%s", text)
	}
}
