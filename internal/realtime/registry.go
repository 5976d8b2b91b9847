// Package realtime keeps track of live WebSocket connections and pushes
// frames to them.
package realtime

import (
	"context"
	"log"
	"sync"

	"teamtasks-backend/internal/metrics"
)

// DeliveryUnknown is reported by fan-outs that cannot count receivers.
const DeliveryUnknown = -1

// Fanout pushes a payload to every connection in a group.
type Fanout interface {
	Publish(ctx context.Context, group string, payload []byte) (int, error)
}

// Registry maps group keys to the connections currently in them.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]map[string]Conn)}
}

// Join adds c to group. Joining twice with the same handle is a no-op.
func (r *Registry) Join(group string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[group]
	if !ok {
		members = make(map[string]Conn)
		r.groups[group] = members
	}
	if _, exists := members[c.Handle()]; exists {
		return
	}
	members[c.Handle()] = c
	metrics.Connections.Inc()
}

// Leave removes handle from group if present.
func (r *Registry) Leave(group, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[group]
	if !ok {
		return
	}
	if _, exists := members[handle]; !exists {
		return
	}
	delete(members, handle)
	metrics.Connections.Dec()
	if len(members) == 0 {
		delete(r.groups, group)
	}
}

// MembersOf returns a snapshot of the group's connections.
func (r *Registry) MembersOf(group string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[group]
	out := make([]Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// Deliver sends payload to every member of group and returns how many
// connections accepted it. Failed sends are logged and skipped.
func (r *Registry) Deliver(group string, payload []byte) int {
	delivered := 0
	for _, c := range r.MembersOf(group) {
		switch err := c.Send(payload); err {
		case nil:
			delivered++
			metrics.Deliveries.WithLabelValues(metrics.ResultDelivered).Inc()
		case ErrClosed:
			metrics.Deliveries.WithLabelValues(metrics.ResultClosed).Inc()
			log.Printf("skipping closed connection %s in group %s", c.Handle(), group)
		default:
			metrics.Deliveries.WithLabelValues(metrics.ResultDropped).Inc()
			log.Printf("dropping push to connection %s in group %s: %v", c.Handle(), group, err)
		}
	}
	return delivered
}

// Publish makes a Registry usable as the single-instance Fanout.
func (r *Registry) Publish(_ context.Context, group string, payload []byte) (int, error) {
	return r.Deliver(group, payload), nil
}
