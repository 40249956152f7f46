package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mirari/uploader/internal/cache"
	"github.com/mirari/uploader/internal/queue"
)

// Handler applies counter deltas from the queue to the count cache.
type Handler struct {
	counts cache.CountCache
}

// NewHandler creates a new counter event handler.
func NewHandler(counts cache.CountCache) *Handler {
	return &Handler{counts: counts}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.CounterEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventCounterDelta:
		err = h.handleCounterDelta(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleCounterDelta seeds-if-absent and increments one counter. The count
// cache owns the seed/increment interleaving and its own bounded retries.
func (h *Handler) handleCounterDelta(ctx context.Context, event queue.CounterEvent) error {
	log.Printf("[Worker] CounterDelta: key=%s delta=%d post=%s", event.Key, event.Delta, event.PostID)

	if err := h.counts.Increment(ctx, event.Key, event.Delta); err != nil {
		return fmt.Errorf("apply counter delta: %w", err)
	}
	return nil
}
