package protocol

import (
	"encoding/binary"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSurfaceAttachRecordsBufferID(t *testing.T) {
	s := NewSurface(5, PixelFormatArgb8888)
	msg := s.Attach(9)
	if !s.HasAttachedBuffer || s.AttachedBufferID != 9 {
		t.Fatalf("expected buffer 9 recorded as attached, got %+v", s)
	}
	if msg.SenderID != 5 || msg.Opcode != 1 {
		t.Fatalf("unexpected attach request: %+v", msg)
	}
}

func TestSurfaceFrameTracksPendingCallback(t *testing.T) {
	s := NewSurface(5, PixelFormatArgb8888)
	if s.HasPendingFrameCallback {
		t.Fatal("no callback should be pending initially")
	}
	s.Frame(42)
	if !s.HasPendingFrameCallback || s.PendingFrameCallbackID != 42 {
		t.Fatalf("expected callback 42 pending, got %+v", s)
	}
	s.FrameCallbackFired()
	if s.HasPendingFrameCallback {
		t.Fatal("callback should be cleared after firing")
	}
}

func TestSurfaceDamageWholeUsesCommittedSize(t *testing.T) {
	s := NewSurface(5, PixelFormatArgb8888)
	s.SetSize(100, 200)
	msg := s.DamageWhole()
	if msg.Opcode != 9 {
		t.Fatalf("expected damage_buffer opcode 9, got %d", msg.Opcode)
	}
	w := msg.Args[2].Int
	h := msg.Args[3].Int
	if w != 100 || h != 200 {
		t.Fatalf("expected damage of 100x200, got %dx%d", w, h)
	}
}

func TestXdgWmBasePongMatchesPingSerial(t *testing.T) {
	b := NewXdgWmBase(3)
	payload := make([]byte, 4)
	binary.NativeEndian.PutUint32(payload, 777)

	actions, err := b.Handle(0, payload, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != ActionRequest {
		t.Fatalf("expected one request action, got %+v", actions)
	}
	pong := actions[0].Request
	if pong.Opcode != 3 {
		t.Fatalf("expected pong opcode 3, got %d", pong.Opcode)
	}
	if pong.Args[0].Uint != 777 {
		t.Fatalf("expected pong serial 777, got %d", pong.Args[0].Uint)
	}
}

func TestXdgSurfaceConfigureMarksConfiguredAndAcks(t *testing.T) {
	s := NewXdgSurface(4, 2)
	if s.IsConfigured {
		t.Fatal("should not be configured before the first event")
	}
	payload := make([]byte, 4)
	binary.NativeEndian.PutUint32(payload, 55)

	actions, err := s.Handle(0, payload, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsConfigured || s.LastSerial != 55 {
		t.Fatalf("expected configured with serial 55, got %+v", s)
	}
	if len(actions) != 1 || actions[0].Request.Opcode != 4 {
		t.Fatalf("expected ack_configure request, got %+v", actions)
	}
}

func TestXdgToplevelConfigureWithNonZeroDimsEmitsResize(t *testing.T) {
	top := NewXdgToplevel(6, 4, 5)
	payload := make([]byte, 8)
	binary.NativeEndian.PutUint32(payload[0:4], 800)
	binary.NativeEndian.PutUint32(payload[4:8], 600)
	payload = append(payload, encodeArray(nil)...)

	actions, err := top.Handle(0, payload, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != ActionResize {
		t.Fatalf("expected a resize action, got %+v", actions)
	}
	if actions[0].ResizeW != 800 || actions[0].ResizeH != 600 {
		t.Fatalf("expected resize to 800x600, got %dx%d", actions[0].ResizeW, actions[0].ResizeH)
	}
	if actions[0].ResizeSurfaceID != 5 {
		t.Fatalf("expected resize targeting surface 5, got %d", actions[0].ResizeSurfaceID)
	}
}

func TestXdgToplevelConfigureWithZeroDimsDefers(t *testing.T) {
	top := NewXdgToplevel(6, 4, 5)
	payload := make([]byte, 8)
	payload = append(payload, encodeArray(nil)...)

	actions, err := top.Handle(0, payload, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions for zero-dimension configure, got %+v", actions)
	}
}

func TestXdgToplevelCloseSetsStickyFlag(t *testing.T) {
	top := NewXdgToplevel(6, 4, 5)
	if _, err := top.Handle(1, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !top.CloseRequested {
		t.Fatal("expected close-requested flag set")
	}
}

func TestXdgToplevelConfigureRejectsUnknownState(t *testing.T) {
	top := NewXdgToplevel(6, 4, 5)
	payload := make([]byte, 8)
	binary.NativeEndian.PutUint32(payload[0:4], 100)
	binary.NativeEndian.PutUint32(payload[4:8], 100)
	unknownState := make([]byte, 4)
	binary.NativeEndian.PutUint32(unknownState, 99)
	payload = append(payload, encodeArray(unknownState)...)

	_, err := top.Handle(0, payload, nil)
	if err == nil {
		t.Fatal("expected an error for an unrecognized toplevel state")
	}
}

func TestDmaFeedbackFormatTableParsing(t *testing.T) {
	fd, err := unix.MemfdCreate("wl-feedback-test", 0)
	if err != nil {
		t.Skipf("memfd_create unavailable in this environment: %v", err)
	}
	defer unix.Close(fd)

	entries := []FormatModifierPair{
		{Format: 0x34325241, Modifier: 0}, // DRM_FORMAT_ARGB8888, linear
		{Format: 0x34325258, Modifier: 1},
	}
	buf := make([]byte, 16*len(entries))
	for i, e := range entries {
		off := i * 16
		binary.NativeEndian.PutUint32(buf[off:off+4], e.Format)
		binary.NativeEndian.PutUint64(buf[off+8:off+16], e.Modifier)
	}
	if err := unix.Ftruncate(fd, int64(len(buf))); err != nil {
		t.Fatalf("ftruncate failed: %v", err)
	}
	data, err := unix.Mmap(fd, 0, len(buf), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		t.Fatalf("mmap failed: %v", err)
	}
	copy(data, buf)
	unix.Munmap(data)

	dupFd, err := unix.Dup(fd)
	if err != nil {
		t.Fatalf("dup failed: %v", err)
	}
	table, err := parseFormatTable(dupFd, len(buf))
	if err != nil {
		t.Fatalf("parseFormatTable failed: %v", err)
	}
	if len(table) != 2 || table[0] != entries[0] || table[1] != entries[1] {
		t.Fatalf("expected %+v, got %+v", entries, table)
	}
}

func TestDmaFeedbackTrancheAccumulation(t *testing.T) {
	f := NewDmaFeedback(7)
	f.FormatTable = []FormatModifierPair{
		{Format: 1, Modifier: 0},
		{Format: 2, Modifier: 5},
	}

	devPayload := encodeArray([]byte("devid"))
	if _, err := f.Handle(4, devPayload, nil); err != nil {
		t.Fatalf("tranche_target_device failed: %v", err)
	}

	idxPayload := encodeIndices([]uint16{1})
	if _, err := f.Handle(5, idxPayload, nil); err != nil {
		t.Fatalf("tranche_formats failed: %v", err)
	}

	flagsPayload := make([]byte, 4)
	binary.NativeEndian.PutUint32(flagsPayload, TrancheScanout)
	if _, err := f.Handle(6, flagsPayload, nil); err != nil {
		t.Fatalf("tranche_flags failed: %v", err)
	}

	if _, err := f.Handle(3, nil, nil); err != nil {
		t.Fatalf("tranche_done failed: %v", err)
	}

	if len(f.Tranches) != 1 {
		t.Fatalf("expected one finished tranche, got %d", len(f.Tranches))
	}
	tr := f.Tranches[0]
	if tr.Flags != TrancheScanout {
		t.Fatalf("expected scanout flag set, got %d", tr.Flags)
	}
	if len(tr.Pairs) != 1 || tr.Pairs[0].Format != 2 {
		t.Fatalf("expected resolved pair {Format:2}, got %+v", tr.Pairs)
	}
}

func TestBufferReleaseClearsInUse(t *testing.T) {
	b := NewBuffer(8, 0, 100, 100, PixelFormatXrgb8888)
	b.InUse = true
	if _, err := b.Handle(0, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.InUse {
		t.Fatal("expected InUse cleared after release event")
	}
}

func TestShmRecordsSupportedFormats(t *testing.T) {
	s := NewShm(9)
	payload := make([]byte, 4)
	binary.NativeEndian.PutUint32(payload, uint32(PixelFormatXrgb8888))
	if _, err := s.Handle(0, payload, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.SupportedFmts[PixelFormatXrgb8888] {
		t.Fatal("expected xrgb8888 recorded as supported")
	}
}

func TestShmIgnoresUnrecognizedFormat(t *testing.T) {
	s := NewShm(9)
	payload := make([]byte, 4)
	binary.NativeEndian.PutUint32(payload, 0xDEADBEEF)
	actions, err := s.Handle(0, payload, nil)
	if err != nil {
		t.Fatalf("unrecognized formats should not error, got: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != ActionDebugMessage {
		t.Fatalf("expected a debug action, got %+v", actions)
	}
}

// encodeArray builds the wire byte-array encoding (length-prefixed,
// 4-byte padded) used by wl_array-typed event arguments in these tests.
func encodeArray(data []byte) []byte {
	out := make([]byte, 4)
	binary.NativeEndian.PutUint32(out, uint32(len(data)))
	out = append(out, data...)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out
}

func encodeIndices(idx []uint16) []byte {
	raw := make([]byte, 2*len(idx))
	for i, v := range idx {
		binary.NativeEndian.PutUint16(raw[i*2:i*2+2], v)
	}
	return encodeArray(raw)
}
