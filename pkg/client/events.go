package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/messages"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ResultEventHandler receives result events as they are emitted.
type ResultEventHandler func(event gametypes.ResultEvent)

// SubscribeEvents connects to the event stream and invokes the handler
// for every result event until the context is cancelled or the
// connection drops. Events are transient: anything emitted before the
// subscription connects is never delivered.
func (c *Client) SubscribeEvents(ctx context.Context, handler ResultEventHandler) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		message := &messages.Message{}
		if err := wsjson.Read(ctx, conn, message); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event stream closed: %v", err)
		}

		switch message.Type {
		case messages.MessageTypeResultEvent:
			event := gametypes.ResultEvent{}
			if err := json.Unmarshal(message.Payload, &event); err != nil {
				log.Warn("Failed to unmarshal result event: %v", err)
				continue
			}
			handler(event)
		default:
			log.Debug("Ignoring unknown event message type: %s", message.Type)
		}
	}
}
