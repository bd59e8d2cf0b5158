// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package status serves the DAO-wide summary.
package status

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/daotrack/daotrack/api/utils"
	"github.com/daotrack/daotrack/tracker"
)

type Status struct {
	tracker *tracker.Tracker
}

func New(tr *tracker.Tracker) *Status {
	return &Status{tr}
}

func (s *Status) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, s.tracker.Status())
}

func (s *Status) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("status_get_status").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStatus))
}
