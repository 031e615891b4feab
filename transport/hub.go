// Package transport implements the one concrete collaborator §4.9 ships for the do_broadcast_*/
// do_send_*/do_multicast_ack surface: an in-memory loopback network dispatching directly into the
// other replicas' core.Engine instances within the same process, used by the demo CLI and the
// scenario tests. Grounded on the host project's channel-based self-feed pattern (bft.Start()'s
// ResetBFT channel): every dispatch is posted onto the target replica's own single-goroutine event
// loop rather than calling its Engine directly from the sending goroutine.
package transport

import (
	"sync"

	"github.com/lucent-chain/hotstuff/core"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/pacemaker"
)

// Replica bundles one participant's engine and the pacemaker that drives its event loop; the Hub
// dispatches into a Replica by posting onto its pacemaker, never by calling its Engine directly.
type Replica struct {
	ID     lib.ReplicaID
	Engine *core.Engine
	Pace   *pacemaker.Pacemaker
}

// Hub is the loopback network: a process-local registry of replicas that lets each replica's
// Network (below) reach every other replica's event loop.
type Hub struct {
	mu       sync.RWMutex
	replicas map[lib.ReplicaID]*Replica
}

// NewHub() returns an empty hub; replicas register themselves as they start
func NewHub() *Hub { return &Hub{replicas: map[lib.ReplicaID]*Replica{}} }

// Register() adds a replica to the hub, reachable by every other registered replica's Network
func (h *Hub) Register(r *Replica) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replicas[r.ID] = r
}

// Unregister() removes a replica (used when a demo node shuts down mid-run)
func (h *Hub) Unregister(id lib.ReplicaID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.replicas, id)
}

func (h *Hub) snapshot() []*Replica {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Replica, 0, len(h.replicas))
	for _, r := range h.replicas {
		out = append(out, r)
	}
	return out
}

func (h *Hub) replica(id lib.ReplicaID) (*Replica, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.replicas[id]
	return r, ok
}

// dispatch() posts fn onto a single target replica's event loop
func (h *Hub) dispatch(to lib.ReplicaID, fn func(*core.Engine)) {
	r, ok := h.replica(to)
	if !ok {
		return
	}
	e := r.Engine
	r.Pace.Post(func() { fn(e) })
}

// broadcast() posts fn onto every registered replica's event loop except the sender
func (h *Hub) broadcast(except lib.ReplicaID, fn func(*core.Engine)) {
	for _, r := range h.snapshot() {
		if r.ID == except {
			continue
		}
		e := r.Engine
		r.Pace.Post(func() { fn(e) })
	}
}

// multicast() posts fn onto each of the named replicas' event loops except the sender
func (h *Hub) multicast(except lib.ReplicaID, to []lib.ReplicaID, fn func(*core.Engine)) {
	for _, id := range to {
		if id == except {
			continue
		}
		h.dispatch(id, fn)
	}
}
