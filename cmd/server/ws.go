package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/learn-tracker/internal/feed"
)

const wsWriteTimeout = 5 * time.Second

// handleFeed streams feed events to a websocket client until either side
// goes away. Client messages are ignored.
func (a *app) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	sub := a.hub.Subscribe(feed.DefaultBuffer)
	defer a.hub.Unsubscribe(sub.ID)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				slog.Warn("websocket write failed", "subscriber_id", sub.ID, "error", err)
				return
			}
		}
	}
}
