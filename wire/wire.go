// Package wire implements the Wayland binary wire protocol: message framing,
// typed argument encoding/decoding, and out-of-band file descriptor carriage.
//
// Every message begins with an 8-byte header (sender/receiver id, then a
// packed size<<16|opcode word) followed by a concatenation of typed
// arguments. File descriptors contribute zero bytes to the payload; they
// travel as ancillary data alongside the frame.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/nuclearcodecat/waytinier-go/waterr"
)

// Fixed is a Wayland 24.8 fixed-point number.
type Fixed int32

// Float64 converts a Fixed to a float64.
func (f Fixed) Float64() float64 { return float64(f) / 256.0 }

// NewFixed builds a Fixed from a float64.
func NewFixed(v float64) Fixed { return Fixed(v * 256.0) }

// ArgKind tags the concrete type of an Argument.
type ArgKind uint8

const (
	KindInt ArgKind = iota
	KindUint
	KindFixed
	KindString
	KindObject
	KindNewID
	KindNewIDInterface
	KindArray
	KindFD
)

// Argument is one typed value in a request or event's payload.
type Argument struct {
	Kind ArgKind

	Int     int32
	Uint    uint32
	Fixed   Fixed
	Str     string
	Obj     uint32
	NewID   uint32
	IfaceNm string // for KindNewIDInterface
	Version uint32 // for KindNewIDInterface
	Arr     []byte
	FD      int
}

func Int32(v int32) Argument    { return Argument{Kind: KindInt, Int: v} }
func Uint32(v uint32) Argument  { return Argument{Kind: KindUint, Uint: v} }
func FixedArg(v Fixed) Argument { return Argument{Kind: KindFixed, Fixed: v} }
func Str(v string) Argument     { return Argument{Kind: KindString, Str: v} }
func Obj(v uint32) Argument     { return Argument{Kind: KindObject, Obj: v} }
func NewID(v uint32) Argument   { return Argument{Kind: KindNewID, NewID: v} }
func Array(v []byte) Argument   { return Argument{Kind: KindArray, Arr: v} }
func FDArg(v int) Argument      { return Argument{Kind: KindFD, FD: v} }

// NewIDInterface builds the explicit-interface new-id argument used by
// wl_registry.bind: interface name, version, and the client-chosen id.
func NewIDInterface(iface string, version, id uint32) Argument {
	return Argument{Kind: KindNewIDInterface, IfaceNm: iface, Version: version, NewID: id}
}

// Message is an outbound request: a sender object, an opcode, and its
// ordered arguments.
type Message struct {
	SenderID uint32
	Opcode   uint16
	Args     []Argument
}

func pad4(n int) int { return (4 - n%4) % 4 }

func encodedSize(a Argument) int {
	switch a.Kind {
	case KindInt, KindUint, KindFixed, KindObject, KindNewID:
		return 4
	case KindFD:
		return 0
	case KindString:
		n := len(a.Str) + 1
		return 4 + n + pad4(n)
	case KindArray:
		n := len(a.Arr)
		return 4 + n + pad4(n)
	case KindNewIDInterface:
		n := len(a.IfaceNm) + 1
		return 4 + n + pad4(n) + 4 + 4
	default:
		return 0
	}
}

func appendString(buf []byte, s string) []byte {
	n := uint32(len(s) + 1)
	var lenBuf [4]byte
	binary.NativeEndian.PutUint32(lenBuf[:], n)
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s...)
	buf = append(buf, 0)
	for i := 0; i < pad4(int(n)); i++ {
		buf = append(buf, 0)
	}
	return buf
}

// Encode serializes a request into a frame buffer and the list of file
// descriptors that must accompany it as ancillary data. The size field is
// rewritten once the full payload length is known.
func Encode(msg Message) ([]byte, []int, error) {
	buf := make([]byte, 8)
	var fds []int

	for _, a := range msg.Args {
		switch a.Kind {
		case KindInt:
			var b [4]byte
			binary.NativeEndian.PutUint32(b[:], uint32(a.Int))
			buf = append(buf, b[:]...)
		case KindUint, KindObject, KindNewID:
			var b [4]byte
			v := a.Uint
			if a.Kind == KindObject {
				v = a.Obj
			} else if a.Kind == KindNewID {
				v = a.NewID
			}
			binary.NativeEndian.PutUint32(b[:], v)
			buf = append(buf, b[:]...)
		case KindFixed:
			var b [4]byte
			binary.NativeEndian.PutUint32(b[:], uint32(a.Fixed))
			buf = append(buf, b[:]...)
		case KindString:
			buf = appendString(buf, a.Str)
		case KindArray:
			n := uint32(len(a.Arr))
			var lenBuf [4]byte
			binary.NativeEndian.PutUint32(lenBuf[:], n)
			buf = append(buf, lenBuf[:]...)
			buf = append(buf, a.Arr...)
			for i := 0; i < pad4(int(n)); i++ {
				buf = append(buf, 0)
			}
		case KindNewIDInterface:
			buf = appendString(buf, a.IfaceNm)
			var vb, ib [4]byte
			binary.NativeEndian.PutUint32(vb[:], a.Version)
			binary.NativeEndian.PutUint32(ib[:], a.NewID)
			buf = append(buf, vb[:]...)
			buf = append(buf, ib[:]...)
		case KindFD:
			fds = append(fds, a.FD)
		default:
			return nil, nil, fmt.Errorf("wire: unknown argument kind %d", a.Kind)
		}
	}

	size := len(buf)
	binary.NativeEndian.PutUint32(buf[0:4], msg.SenderID)
	word2 := (uint32(size)&0xffff)<<16 | uint32(msg.Opcode)&0xffff
	binary.NativeEndian.PutUint32(buf[4:8], word2)
	return buf, fds, nil
}

// DecodedFrame is a single parsed inbound frame: target object, opcode, and
// the raw payload bytes (argument parsing is the handler's job, governed by
// opcode).
type DecodedFrame struct {
	ReceiverID uint32
	Opcode     uint16
	Payload    []byte
}

// DecodeFrame parses one frame from the front of buf and returns the number
// of bytes consumed. It fails with ErrRecvLenBad (wrapped) if buf is shorter
// than the header or the header's size field is smaller than the header
// itself, and with a plain error if the declared size exceeds what remains
// in buf.
func DecodeFrame(buf []byte) (DecodedFrame, int, error) {
	if len(buf) < 8 {
		return DecodedFrame{}, 0, fmt.Errorf("wire: short frame header: %w", waterr.ErrRecvLenBad)
	}
	receiverID := binary.NativeEndian.Uint32(buf[0:4])
	word2 := binary.NativeEndian.Uint32(buf[4:8])
	size := word2 >> 16
	opcode := uint16(word2 & 0xffff)
	if size < 8 {
		return DecodedFrame{}, 0, waterr.ErrRecvLenBad
	}
	if int(size) > len(buf) {
		return DecodedFrame{}, 0, fmt.Errorf("wire: frame size %d exceeds buffer of %d bytes", size, len(buf))
	}
	return DecodedFrame{
		ReceiverID: receiverID,
		Opcode:     opcode,
		Payload:    buf[8:size],
	}, int(size), nil
}

// DecodeFrames splits buf into every complete frame it contains, returning
// the frames and the number of trailing bytes that did not form a complete
// frame (left for the next read).
func DecodeFrames(buf []byte) ([]DecodedFrame, int, error) {
	var frames []DecodedFrame
	cursor := 0
	for cursor < len(buf) {
		if len(buf)-cursor < 8 {
			break
		}
		// A frame whose header has arrived but whose body has not is left
		// as trailing bytes rather than reported as an error.
		if size := int(binary.NativeEndian.Uint32(buf[cursor+4:cursor+8]) >> 16); size >= 8 && cursor+size > len(buf) {
			break
		}
		frame, n, err := DecodeFrame(buf[cursor:])
		if err != nil {
			return frames, len(buf) - cursor, err
		}
		if cursor+n > len(buf) {
			break
		}
		frames = append(frames, frame)
		cursor += n
	}
	return frames, len(buf) - cursor, nil
}

// Uint32At decodes a little/native-endian uint32 argument at the start of p.
func Uint32At(p []byte) (uint32, error) {
	if len(p) < 4 {
		return 0, waterr.ErrParse
	}
	return binary.NativeEndian.Uint32(p), nil
}

// Int32At decodes a signed int32 argument at the start of p.
func Int32At(p []byte) (int32, error) {
	v, err := Uint32At(p)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// StringAt decodes a counted, NUL-terminated, 4-byte-padded string argument
// at the start of p, returning the string and the total encoded width
// (length prefix + bytes + NUL + padding).
func StringAt(p []byte) (string, int, error) {
	if len(p) < 4 {
		return "", 0, waterr.ErrParse
	}
	n, err := Uint32At(p)
	if err != nil {
		return "", 0, err
	}
	total := int(n)
	if total < 1 || len(p) < 4+total {
		return "", 0, waterr.ErrParse
	}
	s := string(p[4 : 4+total-1]) // drop the trailing NUL
	width := 4 + total + pad4(total)
	return s, width, nil
}

// ArrayAt decodes a counted, 4-byte-padded byte array argument at the start
// of p, returning the bytes and the total encoded width.
func ArrayAt(p []byte) ([]byte, int, error) {
	if len(p) < 4 {
		return nil, 0, waterr.ErrParse
	}
	n, err := Uint32At(p)
	if err != nil {
		return nil, 0, err
	}
	total := int(n)
	if len(p) < 4+total {
		return nil, 0, waterr.ErrParse
	}
	out := make([]byte, total)
	copy(out, p[4:4+total])
	width := 4 + total + pad4(total)
	return out, width, nil
}
