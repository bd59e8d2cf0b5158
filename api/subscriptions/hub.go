// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"sync"

	"github.com/daotrack/daotrack/events"
)

// Hub fans events out to all online subscribers. The publisher serializes
// each event exactly once; subscribers share the encoded bytes.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	done   chan struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]*subscriber),
		done: make(chan struct{}),
	}
}

// Publish queues one event for every online subscriber.
func (h *Hub) Publish(ev *events.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("event serialization failed", "kind", ev.Kind(), "err", err)
		return
	}

	h.mu.Lock()
	for _, sub := range h.subs {
		sub.push(msg)
	}
	n := len(h.subs)
	h.mu.Unlock()

	metricMessages().Add(int64(n))
}

// Online reports the number of connected subscribers.
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close wakes every connection handler so hijacked conns wind down; the
// HTTP server's shutdown does not reach them.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}

func (h *Hub) register() *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &subscriber{
		id:   h.nextID,
		wake: make(chan struct{}, 1),
	}
	h.subs[sub.id] = sub
	metricSubscribers().Set(int64(len(h.subs)))
	return sub
}

func (h *Hub) unregister(id uint64) (online int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, id)
	metricSubscribers().Set(int64(len(h.subs)))
	return len(h.subs)
}

// subscriber buffers encoded messages for one connection. push never
// blocks, the write loop drains whole batches on each wake.
type subscriber struct {
	id    uint64
	mu    sync.Mutex
	queue [][]byte
	wake  chan struct{}
}

func (s *subscriber) push(msg []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() [][]byte {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	return q
}
