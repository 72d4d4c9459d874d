package bufferbackend

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/shmpool"
)

func TestFourCCPacksBytesLittleEndian(t *testing.T) {
	v := FourCC('X', 'R', '2', '4')
	want := uint32('X') | uint32('R')<<8 | uint32('2')<<16 | uint32('4')<<24
	if v != want {
		t.Fatalf("expected %#x, got %#x", want, v)
	}
}

func TestEncodeModifierAndVendor(t *testing.T) {
	m := EncodeModifier(0x02, 0x1234)
	if ModifierVendor(m) != 0x02 {
		t.Fatalf("expected vendor 0x02, got %#x", ModifierVendor(m))
	}
	if m&(1<<56-1) != 0x1234 {
		t.Fatalf("expected low 56 bits to carry the value, got %#x", m)
	}
}

func TestLinearModifierIsZero(t *testing.T) {
	if LinearModifier != 0 {
		t.Fatalf("expected the linear modifier to be 0, got %#x", LinearModifier)
	}
}

func TestDrmIoctlModeCreateDumbMatchesKernelValue(t *testing.T) {
	// DRM_IOCTL_MODE_CREATE_DUMB is a well-known constant across every
	// Linux DRM implementation: 0xc02064b2.
	const kernelValue = 0xc02064b2
	if uint32(drmIoctlModeCreateDumb) != kernelValue {
		t.Fatalf("expected ioctl number %#x, got %#x", kernelValue, drmIoctlModeCreateDumb)
	}
}

func TestSharedMemoryAllocateBufferGrowsPoolAndEnqueuesCreate(t *testing.T) {
	fd, err := unix.MemfdCreate("wl-shm-test", 0)
	if err != nil {
		t.Skipf("memfd_create unavailable: %v", err)
	}
	unix.Close(fd)

	pool, err := shmpool.Create(3, 64)
	if err != nil {
		t.Fatalf("shmpool.Create: %v", err)
	}
	defer pool.Destroy()

	nextID := uint32(100)
	backend := NewSharedMemory(pool, func(offset, w, h int32, format protocol.PixelFormat) uint32 {
		nextID++
		return nextID
	})

	bufID, actions, err := backend.AllocateBuffer(16, 16, protocol.PixelFormatArgb8888)
	if err != nil {
		t.Fatalf("AllocateBuffer: %v", err)
	}
	if bufID != 101 {
		t.Fatalf("expected buffer id 101, got %d", bufID)
	}
	// 16*16*4 = 1024 bytes needed, pool starts at 64, so it must grow
	// before the create_buffer request is enqueued.
	if len(actions) != 2 {
		t.Fatalf("expected a resize action followed by a create_buffer action, got %d actions", len(actions))
	}
	if actions[0].Request.Opcode != 2 {
		t.Fatalf("expected first action to be the pool resize, got opcode %d", actions[0].Request.Opcode)
	}
	if actions[1].Request.Opcode != 0 {
		t.Fatalf("expected second action to be create_buffer, got opcode %d", actions[1].Request.Opcode)
	}
}
