// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams applied events to WebSocket clients. Each
// subscriber owns an unbounded FIFO queue, a slow reader delays only
// itself.
package subscriptions

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/daotrack/daotrack/api/utils"
	"github.com/daotrack/daotrack/metrics"
)

var logger = log.New("pkg", "subscriptions")

var (
	metricSubscribers = metrics.LazyLoadGauge("api_subscribers_online")
	metricMessages    = metrics.LazyLoadCounter("api_subscription_messages_total")
)

type Subscriptions struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// New creates the endpoint group streaming from hub. origins follows the
// CORS allowlist, "*" admits everyone, otherwise same-origin plus the
// listed ones.
func New(hub *Hub, origins []string) *Subscriptions {
	return &Subscriptions{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(origins),
		},
	}
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already responded
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	sub := s.hub.register()
	defer func() {
		online := s.hub.unregister(sub.id)
		logger.Debug("subscriber disconnected", "id", sub.id, "online", online)
	}()
	logger.Debug("subscriber connected", "id", sub.id, "online", s.hub.Online())

	// reads are discarded, the loop only notices the peer going away
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-sub.wake:
			for _, msg := range sub.drain() {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Debug("subscriber write failed", "id", sub.id, "err", err)
					return nil
				}
			}
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("subscriber read failed", "id", sub.id, "err", err)
			}
			return nil
		case <-s.hub.done:
			return nil
		}
	}
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
