// Package bufferbackend abstracts over where a surface's pixels actually
// live: a shared-memory pool (the common, fully-implemented path) or a
// DMA-BUF dumb buffer obtained from a DRM render node (partial: the
// client-side create_params -> add -> create_immed request chain that
// would hand the allocated buffer to the compositor is left unfinished,
// matching the open question carried over from the original source).
package bufferbackend

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/shmpool"
)

// Backend is the pluggable buffer allocation strategy a window's builder
// selects. Code outside this package holds only this interface.
type Backend interface {
	// AllocateBuffer enqueues whatever protocol requests are needed to
	// mint a buffer of the given size and returns the new buffer's id
	// together with the requests to send.
	AllocateBuffer(w, h int32, format protocol.PixelFormat) (bufferID uint32, actions []protocol.Action, err error)

	// GetSlice returns the current writable pixel slice backing the most
	// recently allocated buffer.
	GetSlice() []byte
}

// SharedMemory is the Backend implementation over a wl_shm_pool. It holds
// a weak reference to the pool: the pool is owned by whichever façade
// constructed it, not by this backend.
type SharedMemory struct {
	pool *shmpool.Pool

	// registerBuffer allocates a fresh id, constructs the *protocol.Buffer
	// that will receive the compositor's release event, installs it in
	// the id manager, and returns the id. Injected so this package never
	// needs to import the id manager directly.
	registerBuffer func(offset, w, h int32, format protocol.PixelFormat) uint32
}

// NewSharedMemory builds a SharedMemory backend over an already-created
// pool.
func NewSharedMemory(pool *shmpool.Pool, registerBuffer func(offset, w, h int32, format protocol.PixelFormat) uint32) *SharedMemory {
	return &SharedMemory{pool: pool, registerBuffer: registerBuffer}
}

// AllocateBuffer grows the pool if necessary, then enqueues
// wl_shm_pool.create_buffer at offset 0 with a stride of
// width*bytes_per_pixel, per the spec's single-buffer-per-pool
// simplification (no sub-allocation within the pool is attempted).
func (s *SharedMemory) AllocateBuffer(w, h int32, format protocol.PixelFormat) (uint32, []protocol.Action, error) {
	stride := w * format.BytesPerPixel()
	needed := stride * h
	if needed <= 0 {
		return 0, nil, fmt.Errorf("wayland: invalid buffer dimensions %dx%d", w, h)
	}

	var actions []protocol.Action
	if action, grew, err := s.pool.Grow(needed); err != nil {
		return 0, nil, err
	} else if grew {
		actions = append(actions, action)
	}

	bufferID := s.registerBuffer(0, w, h, format)
	actions = append(actions, protocol.RequestAction(
		s.pool.WireObj.CreateBufferRequest(bufferID, 0, w, h, stride, format),
	))
	return bufferID, actions, nil
}

// GetSlice returns the pool's current mapped view.
func (s *SharedMemory) GetSlice() []byte { return s.pool.Slice() }

// DMABUF is the render-node-backed Backend. It opens the node and creates
// a dumb buffer; it does not map that buffer for CPU writes, and the wire
// half that would hand the resulting prime fd to the compositor via
// zwp_linux_buffer_params_v1 (create_params, add, create_immed) is not
// implemented here, matching the spec's open question about this path.
type DMABUF struct {
	renderNodePath string
	renderFD       int

	handle uint32
	pitch  uint64
	data   []byte
}

// NewDMABUF opens the given DRM render node (typically
// /dev/dri/renderD128) for dumb-buffer allocation.
func NewDMABUF(renderNodePath string) (*DMABUF, error) {
	f, err := os.OpenFile(renderNodePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("wayland: open render node %s: %w", renderNodePath, err)
	}
	return &DMABUF{renderNodePath: renderNodePath, renderFD: int(f.Fd())}, nil
}

// AllocateBuffer creates a linear dumb buffer of the requested size via
// DRM_IOCTL_MODE_CREATE_DUMB. It does not yet produce the protocol
// actions that would import the buffer into the compositor (see the
// package doc comment); callers wanting a usable DMA-BUF path today
// should use SharedMemory.
func (d *DMABUF) AllocateBuffer(w, h int32, format protocol.PixelFormat) (uint32, []protocol.Action, error) {
	bpp := uint32(format.BytesPerPixel() * 8)
	handle, pitch, _, err := CreateDumbBuffer(d.renderFD, uint32(w), uint32(h), bpp)
	if err != nil {
		return 0, nil, err
	}
	d.handle = handle
	d.pitch = pitch
	return 0, nil, fmt.Errorf("wayland: dma-buf import to compositor not implemented")
}

// GetSlice returns the backend's pixel slice. No dumb buffer is ever
// mapped (there is no DRM_IOCTL_MODE_MAP_DUMB step), so the slice is
// always nil.
func (d *DMABUF) GetSlice() []byte { return d.data }

// Close releases the render node fd and any allocated dumb buffer.
func (d *DMABUF) Close() error {
	if d.handle != 0 {
		_ = DestroyDumbBuffer(d.renderFD, d.handle)
	}
	return unix.Close(d.renderFD)
}
