package dreams

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"goalflow-backend/internal/auth"
)

// Broker fans dream snapshots out to each user's open subscriptions.
// Every successful mutation publishes the dream's new state; slow
// subscribers miss intermediate snapshots rather than block writers.
type Broker struct {
	mu   sync.Mutex
	subs map[int]map[chan Dream]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[int]map[chan Dream]struct{}{}}
}

func (b *Broker) Subscribe(userID int) (<-chan Dream, func()) {
	ch := make(chan Dream, 8)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = map[chan Dream]struct{}{}
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broker) Publish(userID int, d Dream) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- d:
		default: // subscriber lagging, drop this snapshot
		}
	}
}

// StreamHandler streams dream snapshots to the client as server-sent
// events. GET /dreams/stream (behind auth).
func StreamHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch, cancel := broker.Subscribe(uid)
		defer cancel()

		for {
			select {
			case <-r.Context().Done():
				return
			case d := <-ch:
				blob, err := json.Marshal(d)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: dream\ndata: %s\n\n", blob)
				flusher.Flush()
			}
		}
	}
}
