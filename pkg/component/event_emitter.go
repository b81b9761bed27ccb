package component

import "github.com/go-drift/shadowtree/pkg/tree"

// EventDispatcher is implemented by event targets that accept events.
type EventDispatcher interface {
	DispatchEvent(tag tree.Tag, name string, payload any)
}

// EventEmitter forwards events for one node to its host target.
type EventEmitter struct {
	target tree.EventTarget
	tag    tree.Tag
}

// NewEventEmitter binds target to tag.
func NewEventEmitter(target tree.EventTarget, tag tree.Tag) *EventEmitter {
	return &EventEmitter{target: target, tag: tag}
}

// Tag returns the node tag the emitter is bound to.
func (e *EventEmitter) Tag() tree.Tag { return e.tag }

// Target returns the host target.
func (e *EventEmitter) Target() tree.EventTarget { return e.target }

// Dispatch sends an event to the target. It reports false when the target
// cannot receive events.
func (e *EventEmitter) Dispatch(name string, payload any) bool {
	d, ok := e.target.(EventDispatcher)
	if !ok {
		return false
	}
	d.DispatchEvent(e.tag, name, payload)
	return true
}
