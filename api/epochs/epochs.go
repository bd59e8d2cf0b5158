// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epochs serves the reward epoch views.
package epochs

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/api/utils"
	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/tracker"
)

type Epochs struct {
	tracker *tracker.Tracker
}

func New(tr *tracker.Tracker) *Epochs {
	return &Epochs{tr}
}

// Summary is one row of the epoch list, the per-account snapshot omitted.
type Summary struct {
	Index       uint64      `json:"index"`
	APR         float64     `json:"apr"`
	Minted      *dao.Amount `json:"minted"`
	Total       *dao.Amount `json:"total"`
	Stakers     int         `json:"stakers"`
	Time        uint64      `json:"tm"`
	BlockNumber uint64      `json:"block_number"`
}

// List is the epoch list response.
type List struct {
	Total int        `json:"total"`
	Items []*Summary `json:"items"`
}

// Detail is the single epoch response. Rewards is the sum actually
// credited, which undershoots Minted by the division dust.
type Detail struct {
	*tracker.Epoch
	Rewards *dao.Amount `json:"rewards"`
}

func (e *Epochs) handleGetEpochs(w http.ResponseWriter, req *http.Request) error {
	var opts utils.ListOptions
	if err := utils.DecodeQuery(req, &opts); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "query"))
	}
	if opts.Order != "" && opts.Order != "recent" {
		return utils.BadRequest(errors.Errorf("unknown order %q", opts.Order))
	}

	snap := e.tracker.Snapshot()
	items := make([]*Summary, 0, len(snap.Epochs))
	for _, epoch := range snap.Epochs {
		items = append(items, &Summary{
			Index:       epoch.Index,
			APR:         epoch.APR,
			Minted:      epoch.Minted,
			Total:       epoch.Total,
			Stakers:     len(epoch.Stake),
			Time:        epoch.Time,
			BlockNumber: epoch.BlockNumber,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index > items[j].Index
	})

	from, to := opts.Window(len(items))
	return utils.WriteJSON(w, &List{
		Total: len(items),
		Items: items[from:to],
	})
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	index, err := strconv.ParseUint(mux.Vars(req)["index"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}

	snap := e.tracker.Snapshot()
	epoch, ok := snap.Epochs[index]
	if !ok {
		return utils.NotFound(errors.New("no such epoch"))
	}
	return utils.WriteJSON(w, &Detail{
		Epoch:   epoch,
		Rewards: snap.RewardsForEpoch(index),
	})
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("epochs_get_epochs").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpochs))
	sub.Path("/{index}").
		Methods(http.MethodGet).
		Name("epochs_get_epoch").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
}
