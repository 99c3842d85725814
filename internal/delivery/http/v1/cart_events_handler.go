package v1

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"shopcart-backend/internal/domain"
	"shopcart-backend/internal/usecase"
	"shopcart-backend/pkg/logger"

	"github.com/goccy/go-json"
)

// CartEventsHandler streams the cart as server-sent events. Each event carries
// a whole snapshot, so a client that falls behind only skips intermediate versions.
type CartEventsHandler struct {
	store     *usecase.CartStore
	heartbeat time.Duration
}

func NewCartEventsHandler(store *usecase.CartStore, heartbeat time.Duration) *CartEventsHandler {
	return &CartEventsHandler{
		store:     store,
		heartbeat: heartbeat,
	}
}

func (h *CartEventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())
	rc := http.NewResponseController(w)

	// Subscribe before taking the first snapshot so no change falls in between.
	notify := make(chan struct{}, 1)
	unsubscribe := h.store.Subscribe(func(domain.CartChange) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	state, last := h.store.Snapshot()
	if err := writeCartEvent(w, state, last); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Warn().Err(err).Msg("Cart event stream cannot flush")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Uint64("version", last).Msg("Cart event stream closed")
			return
		case <-notify:
			state, version := h.store.Snapshot()
			if version <= last {
				continue
			}
			if err := writeCartEvent(w, state, version); err != nil {
				return
			}
			last = version
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeCartEvent(w io.Writer, state domain.CartState, version uint64) error {
	data, err := json.Marshal(newCartResponse(state, version))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", version, data)
	return err
}
