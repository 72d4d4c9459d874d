// Package window implements the top-level window façade (C9): the piece
// that composes compositor, surface, xdg_wm_base/surface/toplevel, and a
// buffer backend into something an application can call work() on.
// Grounded on bnema-libwldevices-go's manager-plus-builder shape
// (virtual_keyboard.Manager / pointer_constraints builders), generalized
// from "create one protocol object" to "drive a whole window's
// configure -> attach -> commit -> frame cycle".
package window

import (
	"context"
	"fmt"

	"github.com/nuclearcodecat/waytinier-go/app"
	"github.com/nuclearcodecat/waytinier-go/bufferbackend"
	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/shmpool"
)

// BackendKind selects which buffer backend a window uses.
type BackendKind int

const (
	BackendSharedMemory BackendKind = iota
	BackendDMABUF
)

// Snapshot is handed to the render callback each tick: a mutable pixel
// slice and the metadata needed to interpret and tag it.
type Snapshot struct {
	Pixels      []byte
	W, H        int32
	Format      protocol.PixelFormat
	Frame       uint64
	PresenterID uint32
}

// RenderFunc paints into the snapshot's pixel slice.
type RenderFunc func(snapshot Snapshot)

// CloseCallback is consulted when the compositor requests the window be
// closed; returning true (the default) allows Work to report finished.
type CloseCallback func() bool

// Builder configures and spawns a TopLevelWindow.
type Builder struct {
	app *app.App

	appID   string
	title   string
	width   int32
	height  int32
	onClose CloseCallback
	backend BackendKind
	format  protocol.PixelFormat
}

// NewBuilder starts a window configuration with the spec's defaults:
// 800x600, xrgb8888, shared-memory backend, an always-allow close
// callback.
func NewBuilder(a *app.App) *Builder {
	return &Builder{
		app:     a,
		width:   800,
		height:  600,
		backend: BackendSharedMemory,
		format:  protocol.PixelFormatXrgb8888,
		onClose: func() bool { return true },
	}
}

func (b *Builder) WithAppID(id string) *Builder    { b.appID = id; return b }
func (b *Builder) WithTitle(title string) *Builder { b.title = title; return b }
func (b *Builder) WithWidth(w int32) *Builder      { b.width = w; return b }

// WithHeight sets the window's height option. Unlike the source this
// client was ported from (which reads the width option for height in
// both constructors it appears in), this uses the height option it was
// actually given.
func (b *Builder) WithHeight(h int32) *Builder { b.height = h; return b }

func (b *Builder) WithCloseCallback(cb CloseCallback) *Builder {
	b.onClose = cb
	return b
}

func (b *Builder) WithBufferBackend(kind BackendKind) *Builder {
	b.backend = kind
	return b
}

func (b *Builder) WithPixelFormat(f protocol.PixelFormat) *Builder {
	b.format = f
	return b
}

// TopLevelWindow composes one wl_surface with its xdg_shell wrapper and a
// buffer backend, and drives its configure/attach/commit/frame cycle.
type TopLevelWindow struct {
	app *app.App

	surface     *protocol.Surface
	xdgSurface  *protocol.XdgSurface
	toplevel    *protocol.XdgToplevel
	backend     bufferbackend.Backend
	format      protocol.PixelFormat

	onClose  CloseCallback
	render   RenderFunc
	finished bool

	presenterID uint32
	frame       uint64

	hasBuffer bool
}

// ID identifies this window as an app.Presenter.
func (w *TopLevelWindow) ID() uint32 { return w.presenterID }

// Spawn creates the surface, wraps it in xdg_surface/xdg_toplevel, sets
// title/app-id, and performs the initial commit that starts the
// configure handshake. The returned window has no buffer attached yet;
// the first Work call allocates one once is_configured is observed.
func (b *Builder) Spawn(render RenderFunc) (*TopLevelWindow, error) {
	ids := b.app.IDs()
	loop := b.app.Loop()

	surfaceID := ids.Allocate("wl_surface", nil)
	surface := protocol.NewSurface(surfaceID, b.format)
	surface.SetSize(b.width, b.height)
	ids.Set(surfaceID, surface)

	xdgSurfaceID := ids.Allocate("xdg_surface", nil)
	xdgSurface := protocol.NewXdgSurface(xdgSurfaceID, surfaceID)
	ids.Set(xdgSurfaceID, xdgSurface)

	toplevelID := ids.Allocate("xdg_toplevel", nil)
	toplevel := protocol.NewXdgToplevel(toplevelID, xdgSurfaceID, surfaceID)
	ids.Set(toplevelID, toplevel)

	requests := []protocol.Action{
		protocol.RequestAction(b.app.Compositor.CreateSurfaceRequest(surfaceID)),
		protocol.RequestAction(b.app.XdgWmBase.GetXdgSurfaceRequest(xdgSurfaceID, surfaceID)),
		protocol.RequestAction(xdgSurface.GetToplevelRequest(toplevelID)),
	}
	if b.title != "" {
		requests = append(requests, protocol.RequestAction(toplevel.SetTitleRequest(b.title)))
	}
	if b.appID != "" {
		requests = append(requests, protocol.RequestAction(toplevel.SetAppIDRequest(b.appID)))
	}
	requests = append(requests, protocol.RequestAction(surface.CommitRequest()))

	for _, a := range requests {
		if err := loop.Send(a.Request); err != nil {
			return nil, err
		}
	}

	w := &TopLevelWindow{
		app:         b.app,
		surface:     surface,
		xdgSurface:  xdgSurface,
		toplevel:    toplevel,
		format:      b.format,
		onClose:     b.onClose,
		render:      render,
		presenterID: surfaceID,
	}

	backend, err := b.buildBackend()
	if err != nil {
		return nil, err
	}
	w.backend = backend

	loop.SetResizeHandler(w)
	b.app.PushPresenter(w)

	return w, nil
}

func (b *Builder) buildBackend() (bufferbackend.Backend, error) {
	ids := b.app.IDs()
	switch b.backend {
	case BackendSharedMemory:
		poolSize := b.width * b.height * b.format.BytesPerPixel()
		if poolSize < 4096 {
			poolSize = 4096
		}
		poolID := ids.Allocate("wl_shm_pool", nil)
		pool, err := shmpool.Create(poolID, poolSize)
		if err != nil {
			return nil, fmt.Errorf("wayland: create shm pool: %w", err)
		}
		ids.Set(poolID, pool.WireObj)
		if err := b.app.Loop().Send(b.app.Shm.CreatePoolRequest(poolID, pool.FD(), poolSize)); err != nil {
			return nil, err
		}
		registerBuffer := func(offset, w, h int32, format protocol.PixelFormat) uint32 {
			id := ids.Allocate("wl_buffer", nil)
			buf := protocol.NewBuffer(id, offset, w, h, format)
			ids.Set(id, buf)
			return id
		}
		return bufferbackend.NewSharedMemory(pool, registerBuffer), nil
	case BackendDMABUF:
		return bufferbackend.NewDMABUF("/dev/dri/renderD128")
	default:
		return nil, fmt.Errorf("wayland: unknown buffer backend kind %d", b.backend)
	}
}

// HandleResize implements eventloop.ResizeHandler: it destroys the
// currently attached buffer, grows the backend if needed, allocates a new
// buffer at the new size, and updates the surface's committed
// dimensions, per the resize sub-protocol's front-of-queue sequence.
func (w *TopLevelWindow) HandleResize(width, height int32, surfaceID uint32) ([]protocol.Action, error) {
	if surfaceID != w.surface.ID {
		return nil, nil
	}
	var actions []protocol.Action
	if w.surface.HasAttachedBuffer {
		oldID := w.surface.AttachedBufferID
		if entry, err := w.app.IDs().Lookup(oldID); err == nil {
			if oldBuf, ok := entry.Object.(*protocol.Buffer); ok {
				actions = append(actions, oldBuf.DestroyRequest())
			}
		}
		w.surface.HasAttachedBuffer = false
	}
	bufID, allocActions, err := w.backend.AllocateBuffer(width, height, w.format)
	if err != nil {
		return nil, err
	}
	actions = append(actions, allocActions...)
	w.surface.SetSize(width, height)
	actions = append(actions,
		protocol.RequestAction(w.surface.Attach(bufID)),
		protocol.RequestAction(w.surface.DamageWhole()),
		protocol.RequestAction(w.surface.CommitRequest()),
	)
	w.hasBuffer = true
	return actions, nil
}

// Work advances the window one tick: drains events, checks the close
// flag, attaches an initial buffer once configured, and otherwise renders
// a new frame when the previous frame callback has fired.
func (w *TopLevelWindow) Work(state any) (finished bool, err error) {
	if err := w.app.Loop().Drain(context.Background()); err != nil {
		return false, err
	}

	if w.toplevel.CloseRequested && w.onClose() {
		w.finished = true
	}
	if w.finished {
		return true, nil
	}

	if w.xdgSurface.IsConfigured && !w.hasBuffer {
		bufID, actions, err := w.backend.AllocateBuffer(w.surface.W, w.surface.H, w.format)
		if err != nil {
			return false, err
		}
		for _, a := range actions {
			if err := w.app.Loop().Send(a.Request); err != nil {
				return false, err
			}
		}
		if err := w.app.Loop().Send(w.surface.Attach(bufID)); err != nil {
			return false, err
		}
		if err := w.app.Loop().Send(w.surface.CommitRequest()); err != nil {
			return false, err
		}
		w.hasBuffer = true
		return false, nil
	}

	if !w.surface.HasPendingFrameCallback {
		cbID := w.app.IDs().Allocate("wl_callback", nil)
		w.app.IDs().Set(cbID, protocol.NewCallback(cbID))
		w.app.Loop().RegisterFrameCallback(cbID, w.surface.FrameCallbackFired)
		if err := w.app.Loop().Send(w.surface.Frame(cbID)); err != nil {
			return false, err
		}
		w.frame++
		w.render(Snapshot{
			Pixels:      w.backend.GetSlice(),
			W:           w.surface.W,
			H:           w.surface.H,
			Format:      w.format,
			Frame:       w.frame,
			PresenterID: w.presenterID,
		})
		if err := w.app.Loop().Send(w.surface.Attach(w.surface.AttachedBufferID)); err != nil {
			return false, err
		}
		if err := w.app.Loop().Send(w.surface.DamageWhole()); err != nil {
			return false, err
		}
		if err := w.app.Loop().Send(w.surface.CommitRequest()); err != nil {
			return false, err
		}
	}

	return false, nil
}
