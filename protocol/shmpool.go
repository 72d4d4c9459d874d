package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// ShmPool is the wl_shm_pool protocol object: a handle for the wire-level
// requests over a shared-memory-backed region. The actual fd/mmap
// lifecycle is owned by package shmpool; this type only knows how to build
// and receive the wire messages for its id.
type ShmPool struct {
	ID uint32
}

func NewShmPool(id uint32) *ShmPool { return &ShmPool{ID: id} }

func (p *ShmPool) Interface() string { return "wl_shm_pool" }

// CreateBufferRequest builds the opcode-0 create_buffer request.
func (p *ShmPool) CreateBufferRequest(bufferID uint32, offset, width, height, stride int32, format PixelFormat) wire.Message {
	return wire.Message{
		SenderID: p.ID,
		Opcode:   0,
		Args: []wire.Argument{
			wire.NewID(bufferID),
			wire.Int32(offset),
			wire.Int32(width),
			wire.Int32(height),
			wire.Int32(stride),
			wire.Uint32(uint32(format)),
		},
	}
}

// DestroyRequest builds the opcode-1 destroy request.
func (p *ShmPool) DestroyRequest() wire.Message {
	return wire.Message{SenderID: p.ID, Opcode: 1}
}

// ResizeRequest builds the opcode-2 resize request. The pool may only
// grow: callers must truncate the backing fd before sending this.
func (p *ShmPool) ResizeRequest(size int32) wire.Message {
	return wire.Message{SenderID: p.ID, Opcode: 2, Args: []wire.Argument{wire.Int32(size)}}
}

// Handle: wl_shm_pool has no events.
func (p *ShmPool) Handle(opcode OpCode, _ []byte, _ []int) ([]Action, error) {
	return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: p.Interface()}
}
