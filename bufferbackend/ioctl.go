package bufferbackend

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux ioctl request-number encoding (include/uapi/asm-generic/ioctl.h):
// dir(2 bits) | size(14 bits) | type(8 bits) | nr(8 bits), packed into the
// top bits in that order.
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNrShift) | (size << iocSizeShift)
}

func iowr(typ, nr byte, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, uintptr(typ), uintptr(nr), size)
}

// drmModeCreateDumb mirrors struct drm_mode_create_dumb from
// <drm/drm_mode.h>: the argument to DRM_IOCTL_MODE_CREATE_DUMB. Field
// order matches the kernel struct exactly since this is marshaled via a
// raw pointer, not encoding/binary.
type drmModeCreateDumb struct {
	Height uint32
	Width  uint32
	BPP    uint32
	Flags  uint32
	// Returned:
	Handle uint32
	Pitch  uint32
	Size   uint64
}

// drmIoctlModeCreateDumb is DRM_IOCTL_MODE_CREATE_DUMB: _IOWR('d', 0xB2,
// struct drm_mode_create_dumb).
var drmIoctlModeCreateDumb = iowr('d', 0xB2, unsafe.Sizeof(drmModeCreateDumb{}))

// CreateDumbBuffer issues DRM_IOCTL_MODE_CREATE_DUMB on an open render
// node fd, requesting a linear buffer of the given dimensions and bits
// per pixel. It returns the kernel-assigned handle, pitch, and total size.
func CreateDumbBuffer(renderFD int, width, height uint32, bpp uint32) (handle uint32, pitch uint64, size uint64, err error) {
	req := drmModeCreateDumb{Width: width, Height: height, BPP: bpp}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(renderFD), drmIoctlModeCreateDumb, uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return 0, 0, 0, fmt.Errorf("wayland: DRM_IOCTL_MODE_CREATE_DUMB: %w", errno)
	}
	return req.Handle, uint64(req.Pitch), req.Size, nil
}

// drmIoctlModeDestroyDumb is DRM_IOCTL_MODE_DESTROY_DUMB: _IOWR('d',
// 0xB4, struct drm_mode_destroy_dumb).
type drmModeDestroyDumb struct {
	Handle uint32
}

var drmIoctlModeDestroyDumb = iowr('d', 0xB4, unsafe.Sizeof(drmModeDestroyDumb{}))

// DestroyDumbBuffer releases a dumb buffer handle previously returned by
// CreateDumbBuffer.
func DestroyDumbBuffer(renderFD int, handle uint32) error {
	req := drmModeDestroyDumb{Handle: handle}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(renderFD), drmIoctlModeDestroyDumb, uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return fmt.Errorf("wayland: DRM_IOCTL_MODE_DESTROY_DUMB: %w", errno)
	}
	return nil
}
