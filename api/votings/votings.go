// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package votings serves the proposal views of both voting agents.
package votings

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/api/utils"
	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
	"github.com/daotrack/daotrack/tracker"
)

type Votings struct {
	tracker *tracker.Tracker
}

func New(tr *tracker.Tracker) *Votings {
	return &Votings{tr}
}

// Summary is one row of the proposal list.
type Summary struct {
	Ref        dao.VotingRef `json:"ref"`
	Name       string        `json:"name"`
	Creator    dao.Address   `json:"creator"`
	Title      string        `json:"title"`
	VotesTotal *dao.Amount   `json:"votes_total"`
	YesTotal   *dao.Amount   `json:"voted_yes"`
	NoTotal    *dao.Amount   `json:"voted_no"`
	Executed   bool          `json:"executed"`
	StartedAt  uint64        `json:"started_at"`
}

// List is the proposal list response.
type List struct {
	Total int        `json:"total"`
	Items []*Summary `json:"items"`
}

// Detail is the single proposal response with its event history.
type Detail struct {
	*tracker.Voting
	Name   string          `json:"name"`
	Events []*events.Event `json:"events,omitempty"`
}

func (v *Votings) handleGetVotings(w http.ResponseWriter, req *http.Request) error {
	var opts utils.ListOptions
	if err := utils.DecodeQuery(req, &opts); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "query"))
	}
	if opts.Order != "" && opts.Order != "recent" {
		return utils.BadRequest(errors.Errorf("unknown order %q", opts.Order))
	}

	snap := v.tracker.Snapshot()
	items := make([]*Summary, 0, len(snap.Votings))
	for _, voting := range snap.Votings {
		items = append(items, &Summary{
			Ref:        voting.Ref,
			Name:       voting.Ref.String(),
			Creator:    voting.Creator,
			Title:      voting.Title,
			VotesTotal: voting.VotesTotal,
			YesTotal:   voting.YesTotal,
			NoTotal:    voting.NoTotal,
			Executed:   voting.Executed,
			StartedAt:  voting.StartedAt,
		})
	}
	// newest first, ties on ref key for stable pagination
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartedAt != items[j].StartedAt {
			return items[i].StartedAt > items[j].StartedAt
		}
		return items[i].Ref.Key() < items[j].Ref.Key()
	})

	from, to := opts.Window(len(items))
	return utils.WriteJSON(w, &List{
		Total: len(items),
		Items: items[from:to],
	})
}

func (v *Votings) handleGetVoting(w http.ResponseWriter, req *http.Request) error {
	ref, err := dao.ParseVotingRef(mux.Vars(req)["ref"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "ref"))
	}

	snap := v.tracker.Snapshot()
	voting, ok := snap.Votings[ref.Key()]
	if !ok {
		return utils.NotFound(errors.New("no such voting"))
	}
	return utils.WriteJSON(w, &Detail{
		Voting: voting,
		Name:   voting.Ref.String(),
		Events: snap.VotingEvents[ref.Key()],
	})
}

func (v *Votings) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("votings_get_votings").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetVotings))
	sub.Path("/{ref}").
		Methods(http.MethodGet).
		Name("votings_get_voting").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetVoting))
}
