// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
	"github.com/daotrack/daotrack/tracker"
)

// Summary is one row of the account list.
type Summary struct {
	Address     dao.Address `json:"address"`
	Name        string      `json:"name,omitempty"`
	Staked      *dao.Amount `json:"staked"`
	Shares      *dao.Amount `json:"shares"`
	VotingPower *dao.Amount `json:"voting_power"`
	Rewards     *dao.Amount `json:"rewards"`
	Labels      []string    `json:"labels,omitempty"`
	CreatedAt   uint64      `json:"created_at"`
	UpdatedAt   uint64      `json:"updated_at,omitempty"`
}

func buildSummary(acc *tracker.Account) *Summary {
	return &Summary{
		Address:     acc.Address,
		Name:        acc.Name,
		Staked:      acc.Staked,
		Shares:      acc.Shares,
		VotingPower: acc.VotingPower,
		Rewards:     acc.Rewards,
		Labels:      acc.Labels(),
		CreatedAt:   acc.CreatedAt,
		UpdatedAt:   acc.UpdatedAt,
	}
}

// List is the account list response.
type List struct {
	Total int        `json:"total"`
	Items []*Summary `json:"items"`
}

// Detail is the single account response: the full ledger entry plus its
// labels and causal event history.
type Detail struct {
	*tracker.Account
	Labels []string        `json:"labels,omitempty"`
	Events []*events.Event `json:"events,omitempty"`
}

type order byte

const (
	orderStaked order = iota
	orderPower
	orderRecent
)

func parseOrder(s string) (order, error) {
	switch s {
	case "", "staked":
		return orderStaked, nil
	case "power":
		return orderPower, nil
	case "recent":
		return orderRecent, nil
	default:
		return 0, errors.Errorf("unknown order %q", s)
	}
}

// sortSummaries orders descending by the chosen measure; ties break on
// address so pagination is stable.
func sortSummaries(items []*Summary, o order) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch o {
		case orderPower:
			if c := a.VotingPower.Cmp(b.VotingPower); c != 0 {
				return c > 0
			}
		case orderRecent:
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt > b.CreatedAt
			}
		default:
			as := new(dao.Amount).Add(a.Staked, a.Rewards)
			bs := new(dao.Amount).Add(b.Staked, b.Rewards)
			if c := as.Cmp(bs); c != 0 {
				return c > 0
			}
		}
		return bytes.Compare(a.Address[:], b.Address[:]) < 0
	})
}
