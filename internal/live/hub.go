package live

import (
	"sync"
)

// Change describes a mutation of one bill.
type Change struct {
	BillID string
	Reason string
}

// Hub fans bill changes out to the watchers of that bill.
// Delivery is lossy: a watcher that has not consumed its previous change only
// keeps the pending one, since any change triggers the same recomputation.
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[*watcher]struct{}
}

type watcher struct {
	ch chan Change
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[*watcher]struct{})}
}

// Subscribe registers interest in billID. The returned cancel func must be
// called once the caller stops reading; it closes the channel.
func (h *Hub) Subscribe(billID string) (<-chan Change, func()) {
	w := &watcher{ch: make(chan Change, 1)}

	h.mu.Lock()
	set, ok := h.watchers[billID]
	if !ok {
		set = make(map[*watcher]struct{})
		h.watchers[billID] = set
	}
	set[w] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.watchers[billID], w)
			if len(h.watchers[billID]) == 0 {
				delete(h.watchers, billID)
			}
			close(w.ch)
		})
	}
	return w.ch, cancel
}

// Publish notifies every watcher of c.BillID without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers[c.BillID] {
		select {
		case w.ch <- c:
		default:
		}
	}
}

// Watchers returns the number of active watchers for billID.
func (h *Hub) Watchers(billID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[billID])
}
