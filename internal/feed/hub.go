// Package feed republishes committed game documents to connected
// clients. Delivery is ordered per game by commit version; a slow
// subscriber drops snapshots rather than stalling the engine and
// resynchronizes from the next one.
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adidanco/scambodia/internal/engine"
)

// subscriberBuffer is the per-subscriber channel depth. Snapshots are
// full documents, so skipping intermediate versions is safe.
const subscriberBuffer = 16

// Hub is the in-process pub/sub fan-out, decoupled from the mutation
// path: the engine publishes, gateways subscribe.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[int64]chan engine.Snapshot
	next int64
	log  *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		subs: make(map[uuid.UUID]map[int64]chan engine.Snapshot),
		log:  log,
	}
}

// Publish fans a committed snapshot out to every subscriber of the
// game. The hub lock serializes fan-out so subscribers observe versions
// in commit order.
func (h *Hub) Publish(ctx context.Context, snap engine.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs[snap.State.GameID] {
		select {
		case ch <- snap:
		default:
			h.log.WithFields(logrus.Fields{
				"game_id": snap.State.GameID, "subscriber": id, "version": snap.Version,
			}).Warn("slow feed subscriber, dropping snapshot")
		}
	}
}

// Subscribe registers for a game's committed snapshots. The returned
// cancel func must be called to release the subscription.
func (h *Hub) Subscribe(gameID uuid.UUID) (<-chan engine.Snapshot, func()) {
	ch := make(chan engine.Snapshot, subscriberBuffer)

	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[int64]chan engine.Snapshot)
	}
	id := h.next
	h.next++
	h.subs[gameID][id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subs[gameID]; ok {
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subs, gameID)
			}
		}
	}
	return ch, cancel
}

// Fanout publishes to several publishers in order. It lets the server
// drive the in-process hub and the Redis feed from one engine hook.
type Fanout []engine.Publisher

// Publish forwards the snapshot to every member.
func (f Fanout) Publish(ctx context.Context, snap engine.Snapshot) {
	for _, p := range f {
		p.Publish(ctx, snap)
	}
}
