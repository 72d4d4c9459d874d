package protocol

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// FormatModifierPair is one entry of a dmabuf feedback format table: a
// DRM FourCC format code paired with a vendor modifier.
type FormatModifierPair struct {
	Format   uint32
	Modifier uint64
}

// TrancheScanout is the tranche_flags bit indicating the tranche is
// usable for direct scanout.
const TrancheScanout uint32 = 1 << 0

type tranche struct {
	targetDevice []byte
	formatIdx    []uint16
	flags        uint32
}

// DmaFeedback is the zwp_linux_dmabuf_feedback_v1 protocol object. It
// accumulates the format table and the tranches describing which
// (format, modifier) pairs the compositor's preferred device(s) accept.
type DmaFeedback struct {
	ID uint32

	MainDevice []byte
	FormatTable []FormatModifierPair

	Tranches []TrancheInfo

	current tranche
}

// TrancheInfo is a finished tranche: a target device plus the resolved
// format/modifier pairs and scanout-capability flags.
type TrancheInfo struct {
	TargetDevice []byte
	Pairs        []FormatModifierPair
	Flags        uint32
}

func NewDmaFeedback(id uint32) *DmaFeedback { return &DmaFeedback{ID: id} }

func (f *DmaFeedback) Interface() string { return "zwp_linux_dmabuf_feedback_v1" }

// DestroyRequest builds the opcode-0 destroy request.
func (f *DmaFeedback) DestroyRequest() wire.Message { return destroyMessage(f.ID) }

// Handle processes the zwp_linux_dmabuf_feedback_v1 event stream: done,
// format_table(size,fd), main_device(device), tranche_done,
// tranche_target_device(device), tranche_formats(indices),
// tranche_flags(flags).
func (f *DmaFeedback) Handle(opcode OpCode, payload []byte, fds []int) ([]Action, error) {
	switch opcode {
	case 0: // done
		return []Action{DebugAction(applog.LevelVerbose, "dmabuf feedback sequence done")}, nil
	case 1: // format_table(size, fd)
		size, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		if len(fds) == 0 {
			return nil, waterr.ErrFDExpected
		}
		table, err := parseFormatTable(fds[0], int(size))
		if err != nil {
			return nil, err
		}
		f.FormatTable = table
		return nil, nil
	case 2: // main_device(device)
		dev, _, err := wire.ArrayAt(payload)
		if err != nil {
			return nil, err
		}
		f.MainDevice = dev
		return nil, nil
	case 3: // tranche_done
		f.Tranches = append(f.Tranches, TrancheInfo{
			TargetDevice: f.current.targetDevice,
			Pairs:        f.resolveIndices(f.current.formatIdx),
			Flags:        f.current.flags,
		})
		f.current = tranche{}
		return nil, nil
	case 4: // tranche_target_device(device)
		dev, _, err := wire.ArrayAt(payload)
		if err != nil {
			return nil, err
		}
		f.current.targetDevice = dev
		return nil, nil
	case 5: // tranche_formats(indices)
		raw, _, err := wire.ArrayAt(payload)
		if err != nil {
			return nil, err
		}
		if len(raw)%2 != 0 {
			return nil, waterr.ErrParse
		}
		idx := make([]uint16, len(raw)/2)
		for i := range idx {
			idx[i] = binary.NativeEndian.Uint16(raw[i*2 : i*2+2])
		}
		f.current.formatIdx = idx
		return nil, nil
	case 6: // tranche_flags(flags)
		flags, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		f.current.flags = flags
		return nil, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: f.Interface()}
	}
}

func (f *DmaFeedback) resolveIndices(idx []uint16) []FormatModifierPair {
	pairs := make([]FormatModifierPair, 0, len(idx))
	for _, i := range idx {
		if int(i) < len(f.FormatTable) {
			pairs = append(pairs, f.FormatTable[i])
		}
	}
	return pairs
}

// parseFormatTable mmaps the received fd read-only/private and interprets
// it as packed 16-byte entries (format u32, _pad u32, modifier u64), per
// the zwp_linux_dmabuf_feedback_v1 format_table wire layout. The fd is
// closed once the mapping is taken; the mapping itself is unmapped before
// returning since the parsed pairs are copied into FormatModifierPair.
func parseFormatTable(fd int, size int) ([]FormatModifierPair, error) {
	defer unix.Close(fd)
	if size == 0 {
		return nil, nil
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	defer unix.Munmap(data)

	const entrySize = 16
	n := size / entrySize
	pairs := make([]FormatModifierPair, 0, n)
	for i := 0; i < n; i++ {
		off := i * entrySize
		format := binary.NativeEndian.Uint32(data[off : off+4])
		modifier := binary.NativeEndian.Uint64(data[off+8 : off+16])
		pairs = append(pairs, FormatModifierPair{Format: format, Modifier: modifier})
	}
	return pairs, nil
}
