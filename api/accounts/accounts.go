// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accounts serves the member account views.
package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/api/utils"
	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/tracker"
)

type Accounts struct {
	tracker *tracker.Tracker
}

func New(tr *tracker.Tracker) *Accounts {
	return &Accounts{tr}
}

func (a *Accounts) handleGetAccounts(w http.ResponseWriter, req *http.Request) error {
	var opts utils.ListOptions
	if err := utils.DecodeQuery(req, &opts); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "query"))
	}
	order, err := parseOrder(opts.Order)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "order"))
	}

	snap := a.tracker.Snapshot()
	items := make([]*Summary, 0, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		items = append(items, buildSummary(acc))
	}
	sortSummaries(items, order)

	from, to := opts.Window(len(items))
	return utils.WriteJSON(w, &List{
		Total: len(items),
		Items: items[from:to],
	})
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := dao.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}

	snap := a.tracker.Snapshot()
	acc, ok := snap.Accounts[*addr]
	if !ok {
		return utils.NotFound(errors.New("no such account"))
	}
	return utils.WriteJSON(w, &Detail{
		Account: acc,
		Labels:  acc.Labels(),
		Events:  snap.AccountEvents[*addr],
	})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("accounts_get_accounts").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccounts))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get_account").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
