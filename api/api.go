// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the REST and WebSocket surface over the tracker.
package api

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/daotrack/daotrack/api/accounts"
	"github.com/daotrack/daotrack/api/epochs"
	"github.com/daotrack/daotrack/api/status"
	"github.com/daotrack/daotrack/api/subscriptions"
	"github.com/daotrack/daotrack/api/utils"
	"github.com/daotrack/daotrack/api/votings"
	"github.com/daotrack/daotrack/tracker"
)

var logger = log.New("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
}

// New returns the assembled handler and a close function. The close
// function winds down hijacked WebSocket connections, which the HTTP
// server's shutdown does not reach.
func New(tr *tracker.Tracker, hub *subscriptions.Hub, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	// liveness, never gated on readiness
	router.Path("/healthz").
		Methods(http.MethodGet).
		Name("healthz").
		HandlerFunc(utils.WrapHandlerFunc(handleHealth))

	accounts.New(tr).Mount(router, "/accounts")
	votings.New(tr).Mount(router, "/votings")
	epochs.New(tr).Mount(router, "/epochs")
	status.New(tr).Mount(router, "/status")
	subscriptions.New(hub, origins).Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := readinessHandler(tr, router)
	handler = handlers.CompressHandler(handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLoggerHandler(handler)
	}
	return handler.ServeHTTP, hub.Close
}

func handleHealth(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, utils.M{"healthy": true})
}

// readinessHandler rejects everything but liveness with 503 until the
// historical scan has caught up, so clients never see half-built state.
func readinessHandler(tr *tracker.Tracker, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !tr.Ready() {
			w.Header().Set("Retry-After", "10")
			http.Error(w, "historical scan in progress", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}
