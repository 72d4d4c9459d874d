// Package protocol implements the per-interface Wayland protocol objects:
// their request-building helpers and their event handlers. Each object
// holds only its own id and local state; relationships to other objects
// (surface -> attached buffer, xdg_surface -> wl_surface, feedback ->
// dmabuf) are non-owning back-references carried as plain ids that are
// re-resolved through the id manager on use, per the object graph's
// cyclic-reference design.
package protocol

import (
	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/wire"
)

// OpCode is the 16-bit index identifying a request or event on an
// interface. Request and event opcodes are numbered independently and are
// disjoint only within their own direction.
type OpCode = uint16

// Object is implemented by every protocol endpoint. Handle receives an
// inbound event's opcode, raw payload, and any file descriptors that
// arrived alongside it, and returns the actions the event loop must apply.
type Object interface {
	Handle(opcode OpCode, payload []byte, fds []int) ([]Action, error)
	Interface() string
}

// ActionKind tags the concrete meaning of an Action.
type ActionKind int

const (
	ActionRequest ActionKind = iota
	ActionIDDeletion
	ActionDebugMessage
	ActionResize
	ActionCallbackDone
	ActionDropObject
	ActionError
)

// Action is the uniform result of handling one event: zero or more of
// these are collected by the event loop and applied after every handler in
// a dispatch pass has returned.
type Action struct {
	Kind ActionKind

	Request wire.Message // ActionRequest

	ID uint32 // ActionIDDeletion, ActionDropObject

	Level applog.Level // ActionDebugMessage
	Text  string        // ActionDebugMessage

	ResizeW         int32  // ActionResize
	ResizeH         int32  // ActionResize
	ResizeSurfaceID uint32 // ActionResize: back-reference to the affected wl_surface

	CallbackID   uint32 // ActionCallbackDone
	CallbackData uint32 // ActionCallbackDone

	Err error // ActionError
}

func RequestAction(msg wire.Message) Action { return Action{Kind: ActionRequest, Request: msg} }

func IDDeletionAction(id uint32) Action { return Action{Kind: ActionIDDeletion, ID: id} }

func DebugAction(level applog.Level, text string) Action {
	return Action{Kind: ActionDebugMessage, Level: level, Text: text}
}

func ResizeAction(w, h int32, surfaceID uint32) Action {
	return Action{Kind: ActionResize, ResizeW: w, ResizeH: h, ResizeSurfaceID: surfaceID}
}

func CallbackDoneAction(id, data uint32) Action {
	return Action{Kind: ActionCallbackDone, CallbackID: id, CallbackData: data}
}

func DropObjectAction(id uint32) Action { return Action{Kind: ActionDropObject, ID: id} }

func ErrorAction(err error) Action { return Action{Kind: ActionError, Err: err} }

// destroyMessage builds the common opcode-0, no-argument destroy request
// shared by most protocol objects.
func destroyMessage(id uint32) wire.Message {
	return wire.Message{SenderID: id, Opcode: 0}
}
