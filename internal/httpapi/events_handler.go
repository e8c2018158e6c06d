// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/northbound/hive-rag/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEvents upgrades to a websocket and tails the process-wide log
// stream, giving operators the same live view the heartbeat log tail
// and folder-monitor scans write to disk.
func (a *api) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := logger.GetDefault()
	ch := log.Subscribe()
	if ch == nil {
		return
	}
	defer log.Unsubscribe(ch)

	pings := time.NewTicker(30 * time.Second)
	defer pings.Stop()

	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-pings.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
