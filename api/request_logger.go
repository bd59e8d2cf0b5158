// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"
)

// requestLoggerHandler logs every request once it completed.
func requestLoggerHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		mrw := newMetricsResponseWriter(w)
		next.ServeHTTP(mrw, r)

		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", mrw.statusCode,
			"duration", time.Since(started))
	})
}
