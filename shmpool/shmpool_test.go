package shmpool

import (
	"testing"

	"golang.org/x/sys/unix"
)

func skipIfNoMemfd(t *testing.T) {
	t.Helper()
	fd, err := unix.MemfdCreate("wl-shm-probe", 0)
	if err != nil {
		t.Skipf("memfd_create unavailable in this environment: %v", err)
	}
	unix.Close(fd)
}

func TestCreateMapsWritableRegion(t *testing.T) {
	skipIfNoMemfd(t)

	p, err := Create(10, 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Destroy()

	if p.Size() != 4096 {
		t.Fatalf("expected size 4096, got %d", p.Size())
	}
	slice := p.Slice()
	if len(slice) != 4096 {
		t.Fatalf("expected mapped slice of 4096 bytes, got %d", len(slice))
	}
	slice[0] = 0xAB
	if p.Slice()[0] != 0xAB {
		t.Fatal("expected write to mapped slice to be visible through Slice()")
	}
}

func TestGrowIsNoopWhenNotLarger(t *testing.T) {
	skipIfNoMemfd(t)

	p, err := Create(10, 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Destroy()

	_, grew, err := p.Grow(4096)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if grew {
		t.Fatal("expected Grow to no-op for a same-size request")
	}

	_, grew, err = p.Grow(1024)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if grew {
		t.Fatal("expected Grow to no-op for a smaller request")
	}
}

func TestGrowRemapsAndBuildsResizeRequest(t *testing.T) {
	skipIfNoMemfd(t)

	p, err := Create(10, 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Destroy()

	action, grew, err := p.Grow(8192)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if !grew {
		t.Fatal("expected Grow to report growth")
	}
	if p.Size() != 8192 {
		t.Fatalf("expected new size 8192, got %d", p.Size())
	}
	if len(p.Slice()) != 8192 {
		t.Fatalf("expected remapped slice of 8192 bytes, got %d", len(p.Slice()))
	}
	if action.Request.Opcode != 2 {
		t.Fatalf("expected resize opcode 2, got %d", action.Request.Opcode)
	}
	if action.Request.Args[0].Int != 8192 {
		t.Fatalf("expected resize argument 8192, got %d", action.Request.Args[0].Int)
	}
}

func TestDestroyClosesFD(t *testing.T) {
	skipIfNoMemfd(t)

	p, err := Create(10, 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fd := p.FD()
	if _, err := p.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := unix.Close(fd); err == nil {
		t.Fatal("expected fd to already be closed by Destroy")
	}
}
