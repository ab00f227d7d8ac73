package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ledgergames/splitsecond/pkg/events"
	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/messages"
	"github.com/ledgergames/splitsecond/pkg/queue"
)

type EventBroadcastWorker struct {
	eventQueue queue.Queue
	hub        *events.Hub
	interval   time.Duration
}

type NewEventBroadcastWorkerOptions struct {
	EventQueue queue.Queue
	Hub        *events.Hub
	Interval   time.Duration
}

// NewEventBroadcastWorker creates a new EventBroadcastWorker.
// The worker drains result events emitted by the ledger and fans them
// out to websocket subscribers.
func NewEventBroadcastWorker(opts NewEventBroadcastWorkerOptions) *EventBroadcastWorker {
	return &EventBroadcastWorker{
		eventQueue: opts.EventQueue,
		hub:        opts.Hub,
		interval:   opts.Interval,
	}
}

func (w *EventBroadcastWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.broadcastPending()
		}
	}
}

func (w *EventBroadcastWorker) broadcastPending() {
	pending, err := w.eventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read result events: %v", err)
		return
	}
	for _, item := range pending {
		event, ok := item.(*gametypes.ResultEvent)
		if !ok {
			log.Error("Unknown event type in event queue: %T", item)
			continue
		}
		payload, err := json.Marshal(event)
		if err != nil {
			log.Error("Failed to marshal result event: %v", err)
			continue
		}
		message, err := json.Marshal(&messages.Message{
			Type:    messages.MessageTypeResultEvent,
			Payload: payload,
		})
		if err != nil {
			log.Error("Failed to marshal event message: %v", err)
			continue
		}
		w.hub.Broadcast(message)
	}
}
