// Package registry tracks which live sockets belong to this process.
// It is in-memory only and rebuilt from nothing on restart.
package registry

import "sync"

// Conn is the outbound half of a socket. Send must not block the caller
// on slow clients; implementations enqueue and report failure instead.
type Conn interface {
	Send(msg []byte) error
}

// Players maps player id to its single live connection.
type Players struct {
	mu    sync.Mutex
	conns map[string]Conn
}

func NewPlayers() *Players {
	return &Players{conns: make(map[string]Conn)}
}

// Add registers the connection for a player id. A later connect for the
// same id supersedes the entry; the old socket is left to die on its own.
func (p *Players) Add(id string, conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[id] = conn
}

// RemoveConn drops whichever entry holds this connection and returns the
// freed player id. Used on disconnect, when only the socket is known.
func (p *Players) RemoveConn(conn Conn) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.conns {
		if c == conn {
			delete(p.conns, id)
			return id, true
		}
	}
	return "", false
}

func (p *Players) IsConnected(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.conns[id]
	return ok
}

// Snapshot returns a copy of the live connections for fan-out, so the
// bridge never sends while holding the lock.
func (p *Players) Snapshot() []Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Conn, 0, len(p.conns))
	for _, c := range p.conns {
		out = append(out, c)
	}
	return out
}

// Admins is the set of live admin dashboard connections.
type Admins struct {
	mu    sync.Mutex
	conns map[Conn]struct{}
}

func NewAdmins() *Admins {
	return &Admins{conns: make(map[Conn]struct{})}
}

func (a *Admins) Add(conn Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conns[conn] = struct{}{}
}

func (a *Admins) Remove(conn Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conns, conn)
}

func (a *Admins) Snapshot() []Conn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Conn, 0, len(a.conns))
	for c := range a.conns {
		out = append(out, c)
	}
	return out
}
