// Package registry implements wl_registry: the catalog of compositor-
// advertised global interfaces and the bind request that turns one into a
// local object. Grounded on the global/global_remove handling in
// bnema-libwldevices-go's wlclient.Registry, generalized into the
// collection-of-intent action style the rest of this client uses.
package registry

import (
	"github.com/nuclearcodecat/waytinier-go/protocol"
	"github.com/nuclearcodecat/waytinier-go/waterr"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// Global is one compositor-advertised interface: its registry name (a
// numeric id distinct from the protocol object id), interface string, and
// maximum supported version.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Catalog tracks the live set of advertised globals, keyed by registry
// name.
type Catalog struct {
	globals map[uint32]Global
}

func NewCatalog() *Catalog {
	return &Catalog{globals: make(map[uint32]Global)}
}

func (c *Catalog) Insert(g Global) { c.globals[g.Name] = g }

func (c *Catalog) Remove(name uint32) { delete(c.globals, name) }

// Find returns the first global with a matching interface name. Globals
// are not deduplicated by the compositor protocol, so where more than one
// instance exists the one with the lowest registry name wins.
func (c *Catalog) Find(iface string) (Global, bool) {
	var best Global
	found := false
	for _, g := range c.globals {
		if g.Interface != iface {
			continue
		}
		if !found || g.Name < best.Name {
			best = g
			found = true
		}
	}
	return best, found
}

func (c *Catalog) All() map[uint32]Global {
	out := make(map[uint32]Global, len(c.globals))
	for k, v := range c.globals {
		out[k] = v
	}
	return out
}

// Registry is the wl_registry protocol object: it owns a Catalog and
// turns global/global_remove events into catalog mutations.
type Registry struct {
	ID uint32

	Catalog *Catalog
}

func NewRegistry(id uint32) *Registry {
	return &Registry{ID: id, Catalog: NewCatalog()}
}

func (r *Registry) Interface() string { return "wl_registry" }

// BindRequest builds the opcode-0 bind request: a new-id-with-interface
// argument naming the interface and version being bound, at the given
// freshly allocated id. Callers must have already checked Version does
// not exceed the advertised global's version.
func (r *Registry) BindRequest(name uint32, iface string, version, newID uint32) wire.Message {
	return wire.Message{
		SenderID: r.ID,
		Opcode:   0,
		Args:     []wire.Argument{wire.Uint32(name), wire.NewIDInterface(iface, version, newID)},
	}
}

// Bind looks up iface in the catalog and builds its bind request,
// clamping to the advertised version if the caller asked for more than
// the compositor supports.
func (r *Registry) Bind(iface string, wantVersion, newID uint32) (wire.Message, error) {
	g, ok := r.Catalog.Find(iface)
	if !ok {
		return wire.Message{}, waterr.ErrNotInRegistry
	}
	version := wantVersion
	if version > g.Version {
		version = g.Version
	}
	return r.BindRequest(g.Name, iface, version, newID), nil
}

// Handle processes wl_registry events: opcode 0 global(name, interface,
// version), opcode 1 global_remove(name).
func (r *Registry) Handle(opcode protocol.OpCode, payload []byte, _ []int) ([]protocol.Action, error) {
	switch opcode {
	case 0:
		name, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		iface, n, err := wire.StringAt(payload[4:])
		if err != nil {
			return nil, err
		}
		version, err := wire.Uint32At(payload[4+n:])
		if err != nil {
			return nil, err
		}
		r.Catalog.Insert(Global{Name: name, Interface: iface, Version: version})
		return nil, nil
	case 1:
		name, err := wire.Uint32At(payload)
		if err != nil {
			return nil, err
		}
		r.Catalog.Remove(name)
		return nil, nil
	default:
		return nil, &waterr.InvalidOpCode{Opcode: opcode, Iface: r.Interface()}
	}
}
