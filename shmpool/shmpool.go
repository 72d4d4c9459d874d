// Package shmpool implements the wl_shm_pool backing store: a memfd-
// backed shared memory region, grown on demand and never shrunk.
// Grounded on the shm_open/ftruncate/mmap create sequence the original
// waytinier source uses, substituting Linux memfd_create(2) (via
// golang.org/x/sys/unix) for the POSIX shm_open the original calls
// through libc — memfd needs no named unlink step, which is why destroy
// only munmaps and closes rather than also unlinking a name.
package shmpool

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/nuclearcodecat/waytinier-go/protocol"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomName() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	name := make([]byte, 16)
	for i, b := range buf {
		name[i] = alphabet[int(b)%len(alphabet)]
	}
	return "wl-shm-" + string(name)
}

// Pool owns one memfd-backed shared memory region and the wl_shm_pool
// protocol object speaking for it.
type Pool struct {
	WireObj *protocol.ShmPool

	fd   int
	size int32
	data []byte
}

// Create performs the pool's five-step construction: name, memfd_create,
// ftruncate, mmap, and recording the resulting slice view.
func Create(poolID uint32, size int32) (*Pool, error) {
	fd, err := unix.MemfdCreate(randomName(), 0)
	if err != nil {
		return nil, fmt.Errorf("wayland: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("wayland: ftruncate: %w", err)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("wayland: mmap: %w", err)
	}
	return &Pool{
		WireObj: protocol.NewShmPool(poolID),
		fd:      fd,
		size:    size,
		data:    data,
	}, nil
}

// FD returns the pool's backing file descriptor, to be sent as ancillary
// data alongside the wl_shm.create_pool request.
func (p *Pool) FD() int { return p.fd }

// Size returns the pool's current size in bytes.
func (p *Pool) Size() int32 { return p.size }

// Slice returns the current memory-mapped view. It is only valid until
// the next call to Grow.
func (p *Pool) Slice() []byte { return p.data }

// Grow enlarges the pool if newSize exceeds the current size: unmap,
// truncate, remap, then return the wl_shm_pool.resize request. The
// slice is swapped in before the resize request is built, so the
// client-side mapping is always at least as large as what the server is
// told about.
func (p *Pool) Grow(newSize int32) (protocol.Action, bool, error) {
	if newSize <= p.size {
		return protocol.Action{}, false, nil
	}
	if err := unix.Munmap(p.data); err != nil {
		return protocol.Action{}, false, fmt.Errorf("wayland: munmap: %w", err)
	}
	p.size = newSize
	if err := unix.Ftruncate(p.fd, int64(newSize)); err != nil {
		return protocol.Action{}, false, fmt.Errorf("wayland: ftruncate: %w", err)
	}
	data, err := unix.Mmap(p.fd, 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return protocol.Action{}, false, fmt.Errorf("wayland: mmap: %w", err)
	}
	p.data = data
	return protocol.RequestAction(p.WireObj.ResizeRequest(newSize)), true, nil
}

// Destroy returns the wl_shm_pool destroy request's action for the caller
// to send, unmaps the region, and closes the backing fd. There is no name to unlink: an
// anonymous memfd is reclaimed entirely by closing its last descriptor.
func (p *Pool) Destroy() (protocol.Action, error) {
	action := protocol.RequestAction(p.WireObj.DestroyRequest())
	if err := unix.Munmap(p.data); err != nil {
		return action, fmt.Errorf("wayland: munmap: %w", err)
	}
	if err := unix.Close(p.fd); err != nil {
		return action, fmt.Errorf("wayland: close: %w", err)
	}
	return action, nil
}
