package eventloop

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nuclearcodecat/waytinier-go/idmgr"
	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/transport"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// newLoopPair builds a Loop wired to one end of a non-blocking
// socketpair, with the other end handed back so the test can act as a
// mock compositor feeding frames to it.
func newLoopPair(t *testing.T) (*Loop, *idmgr.Manager, func(wire.Message)) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("set nonblock: %v", err)
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		t.Fatalf("set nonblock: %v", err)
	}

	clientConn := transport.FromFD(fds[0])
	compositorConn := transport.FromFD(fds[1])

	ids := idmgr.New(protocol.NewDisplay(idmgr.DisplayID))
	loop := New(clientConn, ids)

	send := func(msg wire.Message) {
		payload, fds, err := wire.Encode(msg)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if err := compositorConn.Send(payload, fds); err != nil {
			t.Fatalf("compositor send: %v", err)
		}
	}

	t.Cleanup(func() {
		clientConn.Close()
		compositorConn.Close()
	})

	return loop, ids, send
}

func TestDrainSkipsEventsForUnknownObjects(t *testing.T) {
	loop, _, send := newLoopPair(t)
	send(wire.Message{SenderID: 999, Opcode: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// No sync barrier is armed, and the compositor end never sends
	// anything else, so Drain will run its bounded-retry loop and then
	// yield; we only care that it doesn't error.
	done := make(chan error, 1)
	go func() { done <- loop.Drain(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error for an event on an unknown object, got %v", err)
		}
	case <-ctx.Done():
		t.Fatal("Drain did not return before the test timeout")
	}
}

func TestStartSyncTerminatesOnCallbackDone(t *testing.T) {
	loop, ids, send := newLoopPair(t)
	display := protocol.NewDisplay(idmgr.DisplayID)

	if err := loop.StartSync(display); err != nil {
		t.Fatalf("StartSync: %v", err)
	}
	if !loop.hasSyncBarrier {
		t.Fatal("expected sync barrier armed")
	}
	cbID := loop.syncCallbackID

	send(wire.Message{SenderID: cbID, Opcode: 0, Args: []wire.Argument{wire.Uint32(1)}})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := loop.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if loop.hasSyncBarrier {
		t.Fatal("expected sync barrier cleared after callback done")
	}
	if _, err := ids.Lookup(cbID); err == nil {
		t.Fatal("expected callback id freed after firing")
	}
}

type stubResizer struct {
	called   bool
	gotW     int32
	gotH     int32
	gotSurf  uint32
	followUp []protocol.Action
}

func (s *stubResizer) HandleResize(w, h int32, surfaceID uint32) ([]protocol.Action, error) {
	s.called = true
	s.gotW, s.gotH, s.gotSurf = w, h, surfaceID
	return s.followUp, nil
}

func TestResizeActionInvokesHandlerAndAppliesFollowUp(t *testing.T) {
	loop, ids, _ := newLoopPair(t)

	toplevelID := ids.Allocate("xdg_toplevel", nil)
	toplevel := protocol.NewXdgToplevel(toplevelID, 0, 42)
	ids.Set(toplevelID, toplevel)

	stub := &stubResizer{followUp: []protocol.Action{protocol.DropObjectAction(toplevelID)}}
	loop.SetResizeHandler(stub)

	queue := []protocol.Action{protocol.ResizeAction(640, 480, 42)}
	terminate, err := loop.applyActions(queue)
	if err != nil {
		t.Fatalf("applyActions: %v", err)
	}
	if terminate {
		t.Fatal("resize alone should not terminate the drain")
	}
	if !stub.called || stub.gotW != 640 || stub.gotH != 480 || stub.gotSurf != 42 {
		t.Fatalf("resize handler not invoked with expected args: %+v", stub)
	}
	if _, err := ids.Lookup(toplevelID); err == nil {
		t.Fatal("expected the handler's follow-up drop-object action to be applied")
	}
}
