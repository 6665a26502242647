package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

const historyWriteTimeout = 5 * time.Second

// History decouples call-event logging from the relay path. Submission
// never blocks and never fails the caller: a full queue or a failing
// sink is logged and dropped.
type History struct {
	sink  core.HistorySink
	queue chan domain.CallEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewHistory(sink core.HistorySink, buffer int) *History {
	if buffer <= 0 {
		buffer = 64
	}
	h := &History{
		sink:  sink,
		queue: make(chan domain.CallEvent, buffer),
		done:  make(chan struct{}),
	}
	go h.run()
	return h
}

// Submit enqueues the event for background persistence.
func (h *History) Submit(ev domain.CallEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.queue <- ev:
	default:
		log.Warn().Str("module", "app.history").Str("kind", string(ev.Kind)).Msg("history queue full, event dropped")
	}
}

// Close stops intake and drains what is already queued.
func (h *History) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()
	<-h.done
}

func (h *History) run() {
	defer close(h.done)
	for ev := range h.queue {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		if err := h.sink.LogCallEvent(ctx, ev); err != nil {
			log.Error().Err(err).Str("module", "app.history").Str("kind", string(ev.Kind)).Str("user", string(ev.UserID)).Msg("history write failed")
		}
		cancel()
	}
}
