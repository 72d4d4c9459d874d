package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// PixelFormat is the wl_shm pixel format enumeration. Only the two formats
// every compositor is required to support are modeled.
type PixelFormat uint32

const (
	PixelFormatArgb8888 PixelFormat = 0
	PixelFormatXrgb8888 PixelFormat = 1
)

// BytesPerPixel returns the format's pixel stride contribution.
func (f PixelFormat) BytesPerPixel() int32 { return 4 }

func PixelFormatFromUint32(v uint32) (PixelFormat, error) {
	switch PixelFormat(v) {
	case PixelFormatArgb8888, PixelFormatXrgb8888:
		return PixelFormat(v), nil
	default:
		return 0, waterr.ErrInvalidPixelFormat
	}
}

// Shm is the wl_shm global: it advertises supported pixel formats and
// mints shm_pool objects over a file descriptor.
type Shm struct {
	ID             uint32
	SupportedFmts  map[PixelFormat]bool
}

func NewShm(id uint32) *Shm {
	return &Shm{ID: id, SupportedFmts: make(map[PixelFormat]bool)}
}

func (s *Shm) Interface() string { return "wl_shm" }

// CreatePoolRequest builds the opcode-0 create_pool request. fd is carried
// out-of-band by the transport, not in the payload.
func (s *Shm) CreatePoolRequest(poolID uint32, fd int, size int32) wire.Message {
	return wire.Message{
		SenderID: s.ID,
		Opcode:   0,
		Args: []wire.Argument{
			wire.NewID(poolID),
			wire.FDArg(fd),
			wire.Int32(size),
		},
	}
}

// Handle processes wl_shm events: opcode 0 format(u32).
func (s *Shm) Handle(opcode OpCode, payload []byte, _ []int) ([]Action, error) {
	switch opcode {
	case 0:
		raw, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		pf, err := PixelFormatFromUint32(raw)
		if err != nil {
			return []Action{DebugAction(applog.LevelTrivial, "unrecognized pixel format advertised")}, nil
		}
		s.SupportedFmts[pf] = true
		return nil, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: s.Interface()}
	}
}
