package transport

import (
	"bytes"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// socketpairConn builds two Conn values wired to each other via
// socketpair(2), bypassing Dial's environment-variable resolution so the
// send/receive path can be exercised without a real compositor.
func socketpairConn(t *testing.T) (*Conn, *Conn) {
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
	return &Conn{fd: fds[0]}, &Conn{fd: fds[1]}
}

func TestSendRecvRoundtrip(t *testing.T) {
	a, b := socketpairConn(t)
	defer a.Close()
	defer b.Close()

	payload := []byte("hello wayland")
	if err := a.Send(payload, nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var result RecvResult
	for i := 0; i < 1000; i++ {
		r, ok, err := b.TryRecv()
		if err != nil {
			t.Fatalf("recv failed: %v", err)
		}
		if ok {
			result = r
			break
		}
	}
	if !bytes.Equal(result.Data, payload) {
		t.Fatalf("expected %q, got %q", payload, result.Data)
	}
}

func TestTryRecvReportsNoDataWithoutError(t *testing.T) {
	a, b := socketpairConn(t)
	defer a.Close()
	defer b.Close()

	_, ok, err := b.TryRecv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no data available yet")
	}
}

func TestSendPassesFileDescriptor(t *testing.T) {
	a, b := socketpairConn(t)
	defer a.Close()
	defer b.Close()

	f, err := os.CreateTemp(t.TempDir(), "fd-passing")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer f.Close()

	if err := a.Send([]byte("fd-carrying frame"), []int{int(f.Fd())}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var result RecvResult
	var ok bool
	for i := 0; i < 1000 && !ok; i++ {
		result, ok, err = b.TryRecv()
		if err != nil {
			t.Fatalf("recv failed: %v", err)
		}
	}
	if !ok {
		t.Fatal("expected to receive the frame")
	}
	if len(result.FDs) != 1 {
		t.Fatalf("expected exactly one received fd, got %d", len(result.FDs))
	}
	for _, fd := range result.FDs {
		unix.Close(fd)
	}
}
