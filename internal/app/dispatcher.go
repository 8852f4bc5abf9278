package app

import "sync"

// Envelope is the outbound wire format: a message name plus its payload.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Dispatcher routes outbound envelopes to connections by id. Delivery to a
// connection that has already detached is a silent no-op; nothing is queued
// or retried.
type Dispatcher struct {
	mu    sync.RWMutex
	conns map[string]chan Envelope
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{conns: make(map[string]chan Envelope)}
}

// Attach registers a connection and returns its delivery channel. The caller
// must invoke the returned detach function to avoid leaks.
func (d *Dispatcher) Attach(connID string) (<-chan Envelope, func()) {
	ch := make(chan Envelope, 16)

	d.mu.Lock()
	d.conns[connID] = ch
	d.mu.Unlock()

	detach := func() {
		d.mu.Lock()
		if existing, ok := d.conns[connID]; ok && existing == ch {
			delete(d.conns, connID)
			close(ch)
		}
		d.mu.Unlock()
	}
	return ch, detach
}

// ToConn delivers to a single connection.
func (d *Dispatcher) ToConn(connID string, ev Envelope) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.sendLocked(connID, ev)
}

// ToConns delivers to every listed connection, typically a room's membership.
func (d *Dispatcher) ToConns(connIDs []string, ev Envelope) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, id := range connIDs {
		d.sendLocked(id, ev)
	}
}

// sendLocked never blocks: a slow consumer drops its oldest pending envelope
// rather than stalling delivery to the rest of the room.
func (d *Dispatcher) sendLocked(connID string, ev Envelope) {
	ch, ok := d.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
