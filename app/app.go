// Package app composes the protocol globals a window needs (compositor,
// shm, xdg_wm_base, dmabuf) behind one connection and drives the
// drain/render work loop. Grounded on bnema-libwldevices-go's Display as
// the "owns the connection and the globals" shape, generalized from a
// fixed set of virtual-input globals to the compositor/shm/xdg_wm_base
// trio this spec's façade needs.
package app

import (
	"context"
	"fmt"

	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/eventloop"
	"github.com/nuclearcodecat/waytinier-go/idmgr"
	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/registry"
	"github.com/nuclearcodecat/waytinier-go/transport"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Presenter is a window (or other render surface) the App drives a tick at
// a time; window.TopLevelWindow satisfies it. PushPresenter registers one,
// and (*App).Work advances every registered presenter once per call.
type Presenter interface {
	// ID identifies this presenter in a rendered Snapshot.
	ID() uint32
	// Work advances the presenter one tick, reporting whether it has
	// finished (e.g. the compositor asked its window to close).
	Work(state any) (finished bool, err error)
}

// App owns the Wayland connection and the globals every window is built
// from: wl_compositor, wl_shm, and xdg_wm_base. Input handling,
// sub-surfaces, and server responsibilities are out of scope.
type App struct {
	conn *transport.Conn
	ids  *idmgr.Manager
	loop *eventloop.Loop

	Display     *protocol.Display
	Registry    *registry.Registry
	Compositor  *protocol.Compositor
	Shm         *protocol.Shm
	XdgWmBase   *protocol.XdgWmBase
	Dmabuf      *protocol.Dmabuf

	frame      uint64
	presenters []Presenter
}

// New connects to the compositor, binds the globals this client needs,
// and performs an initial sync so every global() event has arrived
// before New returns.
func New() (*App, error) {
	applog.Init()

	conn, err := transport.Dial()
	if err != nil {
		return nil, err
	}
	return NewWithConn(conn)
}

// NewWithConn drives the same registry-discovery and core-global-binding
// handshake as New, but over an already-established connection. Split out
// so callers that supply their own transport (a mock compositor wired over
// a socketpair, in tests) can exercise the same handshake New uses.
func NewWithConn(conn *transport.Conn) (*App, error) {
	display := protocol.NewDisplay(idmgr.DisplayID)
	ids := idmgr.New(display)
	loop := eventloop.New(conn, ids)

	regID := ids.Allocate("wl_registry", nil)
	reg := registry.NewRegistry(regID)
	ids.Set(regID, reg)

	if err := loop.Send(display.GetRegistryRequest(regID)); err != nil {
		conn.Close()
		return nil, err
	}
	if err := loop.StartSync(display); err != nil {
		conn.Close()
		return nil, err
	}
	if err := loop.Drain(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	a := &App{conn: conn, ids: ids, loop: loop, Display: display, Registry: reg}

	if err := a.bindCore(); err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

// bindCore binds wl_compositor, wl_shm, and xdg_wm_base, then performs a
// second sync so their initial events (wl_shm.format, in particular) have
// arrived before callers act on them.
func (a *App) bindCore() error {
	var requests []wire.Message

	bind := func(iface string, factory func(id uint32) protocol.Object) error {
		newID := a.ids.Allocate(iface, nil)
		msg, err := a.Registry.Bind(iface, 1<<31-1, newID)
		if err != nil {
			return fmt.Errorf("wayland: bind %s: %w", iface, err)
		}
		a.ids.Set(newID, factory(newID))
		requests = append(requests, msg)
		return nil
	}

	if err := bind("wl_compositor", func(id uint32) protocol.Object {
		c := protocol.NewCompositor(id)
		a.Compositor = c
		return c
	}); err != nil {
		return err
	}
	if err := bind("wl_shm", func(id uint32) protocol.Object {
		s := protocol.NewShm(id)
		a.Shm = s
		return s
	}); err != nil {
		return err
	}
	if err := bind("xdg_wm_base", func(id uint32) protocol.Object {
		b := protocol.NewXdgWmBase(id)
		a.XdgWmBase = b
		return b
	}); err != nil {
		return err
	}
	// zwp_linux_dmabuf_v1 is optional: not every compositor advertises it,
	// and the DMA-BUF backend it serves is partial besides.
	if _, ok := a.Registry.Catalog.Find("zwp_linux_dmabuf_v1"); ok {
		if err := bind("zwp_linux_dmabuf_v1", func(id uint32) protocol.Object {
			d := protocol.NewDmabuf(id)
			a.Dmabuf = d
			return d
		}); err != nil {
			return err
		}
	}

	for _, msg := range requests {
		if err := a.loop.Send(msg); err != nil {
			return err
		}
	}
	if err := a.loop.StartSync(a.Display); err != nil {
		return err
	}
	return a.loop.Drain(context.Background())
}

// IDs returns the identifier manager, for constructing protocol objects
// that need a freshly allocated id (e.g. the window façade's surfaces).
func (a *App) IDs() *idmgr.Manager { return a.ids }

// Loop returns the event loop, for sending requests and draining events
// outside of Work's own per-tick drain.
func (a *App) Loop() *eventloop.Loop { return a.loop }

// PushPresenter registers a presenter for (*App).Work to advance each
// tick. Each presenter keeps its own frame counter (window.Snapshot.Frame);
// the App's tick counter is separate from it.
func (a *App) PushPresenter(p Presenter) { a.presenters = append(a.presenters, p) }

// Work advances every registered presenter one tick and reports finished
// once all of them have. A caller driving a single window may call either
// this or that window's own Work; both share the same (state any) ->
// (finished bool, err error) shape so neither depends on the other.
func (a *App) Work(state any) (finished bool, err error) {
	if len(a.presenters) == 0 {
		return true, nil
	}
	all := true
	for _, p := range a.presenters {
		f, err := p.Work(state)
		if err != nil {
			return false, err
		}
		if !f {
			all = false
		}
	}
	a.frame++
	return all, nil
}

// Close tears down the connection.
func (a *App) Close() error {
	a.ids.Clear()
	return a.conn.Close()
}
