// internal/session/slot.go
package session

// ConnectionKey is the well-known variable holding the shared connection.
const ConnectionKey = "modbusConnection"

// Conn is the lifecycle surface the slot needs from a connection.
type Conn interface {
	IsConnected() bool
	Close() error
}

// Slot is a single-entry connection store inside a Vars bag.
// Invariant: Get never returns a disconnected connection.
type Slot[C Conn] struct {
	vars *Vars
}

func NewSlot[C Conn](vars *Vars) *Slot[C] {
	return &Slot[C]{vars: vars}
}

// Put stores c, replacing any previous connection.
func (s *Slot[C]) Put(c C) {
	s.vars.Put(ConnectionKey, c)
}

// Get returns the held connection if it is still connected.
// A dead or foreign entry is evicted in the same critical section.
func (s *Slot[C]) Get() (C, bool) {
	var (
		out C
		ok  bool
	)
	s.vars.do(func(m map[string]any) {
		v, exists := m[ConnectionKey]
		if !exists {
			return
		}
		c, typed := v.(C)
		if !typed || !c.IsConnected() {
			delete(m, ConnectionKey)
			return
		}
		out, ok = c, true
	})
	return out, ok
}

func (s *Slot[C]) Remove() {
	s.vars.Remove(ConnectionKey)
}

// Release closes c if it is still connected and clears the slot when the
// slot still holds c. Reports whether c was open.
func (s *Slot[C]) Release(c C) (bool, error) {
	var (
		open bool
		err  error
	)
	s.vars.do(func(m map[string]any) {
		if held, exists := m[ConnectionKey]; exists && Conn(c) == held {
			delete(m, ConnectionKey)
		}
		if c.IsConnected() {
			open = true
			err = c.Close()
		}
	})
	return open, err
}

// CloseDetached closes c unless the slot still holds it. A detached
// connection has no owner left to close it. Reports whether c was closed.
func (s *Slot[C]) CloseDetached(c C) (bool, error) {
	var (
		closed bool
		err    error
	)
	s.vars.do(func(m map[string]any) {
		if held, exists := m[ConnectionKey]; exists && Conn(c) == held {
			return
		}
		if c.IsConnected() {
			closed = true
			err = c.Close()
		}
	})
	return closed, err
}

// CloseActive closes and clears the held connection.
// Reports false when no connected connection was held.
func (s *Slot[C]) CloseActive() (bool, error) {
	var (
		closed bool
		err    error
	)
	s.vars.do(func(m map[string]any) {
		v, exists := m[ConnectionKey]
		if !exists {
			return
		}
		c, typed := v.(C)
		if !typed || !c.IsConnected() {
			return
		}
		err = c.Close()
		delete(m, ConnectionKey)
		closed = true
	})
	return closed, err
}
