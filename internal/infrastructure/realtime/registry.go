package realtime

import (
	"sync"

	"github.com/gorilla/websocket"

	"whisp/internal/infrastructure/metrics"
)

// Registry tracks which connections belong to which user and fans payloads
// out to all of a user's sockets. A user key exists iff its connection set is
// non-empty; a connection — bound to one user at construction — never appears
// under more than one key.
//
// The registry is the only mutable structure shared between connection
// handlers; all access goes through these methods.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]map[*Connection]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]map[*Connection]struct{})}
}

// Register adds conn under its bound user, creating the set if absent.
// Registering the same connection twice has no effect.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[conn.UserID]
	if set == nil {
		set = make(map[*Connection]struct{})
		r.conns[conn.UserID] = set
	}
	if _, ok := set[conn]; ok {
		return
	}
	set[conn] = struct{}{}
	metrics.ActiveConnections.Inc()
}

// Unregister removes conn from its user's set, pruning the key when the set
// empties. Unregistering a connection that was never registered, or twice, is
// a no-op: disconnect detection and broadcast cleanup can race here.
func (r *Registry) Unregister(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[conn.UserID]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.conns, conn.UserID)
	}
	metrics.ActiveConnections.Dec()
}

// Broadcast delivers payload to every connection currently registered for
// userID and returns how many deliveries were accepted. A failing connection
// does not block the others; it is unregistered and closed.
func (r *Registry) Broadcast(userID int64, payload []byte) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.conns[userID]))
	for conn := range r.conns[userID] {
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err != nil {
			r.Unregister(conn)
			conn.Close(websocket.CloseGoingAway, "delivery failed")
			continue
		}
		delivered++
	}
	if delivered > 0 {
		metrics.DeliveredPayloads.Add(float64(delivered))
	}
	return delivered
}

// Connections reports how many sockets are registered for userID.
func (r *Registry) Connections(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// Close terminates every tracked connection and clears the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	var all []*Connection
	for _, set := range r.conns {
		for conn := range set {
			all = append(all, conn)
		}
	}
	r.conns = make(map[int64]map[*Connection]struct{})
	r.mu.Unlock()

	metrics.ActiveConnections.Sub(float64(len(all)))
	for _, conn := range all {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
}
