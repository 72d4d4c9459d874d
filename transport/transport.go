// Package transport owns the Unix-domain socket connection to the
// compositor: non-blocking frame send/receive and ancillary file
// descriptor passing via SCM_RIGHTS. Grounded on the socket-dialing
// conventions of bnema-libwldevices-go's wlclient.Connect, enriched with
// golang.org/x/sys/unix raw syscalls for fd passing and non-blocking I/O
// that the teacher's plain net.Conn usage does not need (it carries no
// file descriptors).
package transport

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/nuclearcodecat/waytinier-go/waterr"
)

// recvBufSize is the minimum receive buffer size mandated for draining
// inbound frames; 8 KiB comfortably holds the largest realistic burst of
// queued wire messages before a drain pass.
const recvBufSize = 8192

// Conn is a non-blocking Wayland transport connection.
type Conn struct {
	fd int
}

// FromFD wraps an already-connected, already-non-blocking socket file
// descriptor as a Conn. Used by tests that wire a Loop to one end of a
// socketpair standing in for the compositor.
func FromFD(fd int) *Conn { return &Conn{fd: fd} }

// Dial resolves the compositor socket path from WAYLAND_DISPLAY and
// XDG_RUNTIME_DIR (an absolute WAYLAND_DISPLAY is used as-is) and
// connects a non-blocking Unix-domain socket to it.
func Dial() (*Conn, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		return nil, waterr.ErrNoWaylandDisplay
	}

	path := display
	if !filepath.IsAbs(path) {
		runDir := os.Getenv("XDG_RUNTIME_DIR")
		if runDir == "" {
			return nil, waterr.ErrNoWaylandDisplay
		}
		path = filepath.Join(runDir, display)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("wayland: socket: %w", err)
	}
	addr := &unix.SockaddrUnix{Name: path}
	if err := unix.Connect(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("wayland: set nonblocking: %w", err)
	}
	return &Conn{fd: fd}, nil
}

// Send writes one complete frame (and any ancillary file descriptors it
// carries) in a single sendmsg call, per the codec's single-write-per-
// request guarantee.
func (c *Conn) Send(payload []byte, fds []int) error {
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	for {
		_, err := unix.Sendmsg(c.fd, payload, oob, nil, 0)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			continue
		}
		if err != nil {
			return fmt.Errorf("wayland: sendmsg: %w", err)
		}
		return nil
	}
}

// RecvResult is one non-blocking receive: the raw bytes read and any
// ancillary file descriptors that arrived alongside them, in arrival
// order.
type RecvResult struct {
	Data []byte
	FDs  []int
}

// TryRecv performs a single non-blocking receive. ok is false (with a nil
// error) when the socket would block, which callers should treat as "no
// data right now", not an error.
func (c *Conn) TryRecv() (result RecvResult, ok bool, err error) {
	buf := make([]byte, recvBufSize)
	oob := make([]byte, unix.CmsgSpace(16*4)) // room for a handful of fds

	n, oobn, _, _, rerr := unix.Recvmsg(c.fd, buf, oob, 0)
	if rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK {
		return RecvResult{}, false, nil
	}
	if rerr != nil {
		return RecvResult{}, false, fmt.Errorf("wayland: recvmsg: %w", rerr)
	}
	if n == 0 {
		return RecvResult{}, false, fmt.Errorf("wayland: connection closed by compositor")
	}

	var fds []int
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return RecvResult{}, false, fmt.Errorf("wayland: parse control message: %w", err)
		}
		for _, cmsg := range cmsgs {
			rights, err := unix.ParseUnixRights(&cmsg)
			if err != nil {
				continue
			}
			fds = append(fds, rights...)
		}
	}

	return RecvResult{Data: buf[:n], FDs: fds}, true, nil
}

// Close shuts down and closes the socket. Errors here are logged by the
// caller, not propagated: by the time Close is called the connection is
// being torn down regardless.
func (c *Conn) Close() error {
	unix.Shutdown(c.fd, unix.SHUT_RDWR)
	return unix.Close(c.fd)
}
