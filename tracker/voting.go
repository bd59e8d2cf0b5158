// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import (
	"strings"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

// Voting is the materialized tally of one proposal.
type Voting struct {
	Ref     dao.VotingRef `json:"ref"`
	Creator dao.Address   `json:"creator"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Metadata    string `json:"metadata,omitempty"`

	// VotesTotal is the DAO-wide voting power when the vote started.
	VotesTotal *dao.Amount `json:"votes_total"`

	Yes      map[dao.Address]*dao.Amount `json:"yes"`
	No       map[dao.Address]*dao.Amount `json:"no"`
	YesTotal *dao.Amount                 `json:"voted_yes"`
	NoTotal  *dao.Amount                 `json:"voted_no"`

	Executed    bool     `json:"executed"`
	StartedAt   uint64   `json:"started_at"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      dao.Hash `json:"tx"`
}

// Clone returns an independent deep copy.
func (v *Voting) Clone() *Voting {
	c := *v
	c.VotesTotal = dao.CloneAmount(v.VotesTotal)
	c.Yes = cloneAmountMap(v.Yes)
	c.No = cloneAmountMap(v.No)
	c.YesTotal = dao.CloneAmount(v.YesTotal)
	c.NoTotal = dao.CloneAmount(v.NoTotal)
	return &c
}

func (v *Voting) recomputeTallies() {
	v.YesTotal = sumAmounts(v.Yes)
	v.NoTotal = sumAmounts(v.No)
}

func sumAmounts(m map[dao.Address]*dao.Amount) *dao.Amount {
	total := dao.ZeroAmount()
	for _, a := range m {
		total.Add(total, a)
	}
	return total
}

// parseVoteMetadata splits the conventional "scheme|cid|title|description"
// form. Metadata missing the expected fields degrades to empty title and
// description; the raw string stays available on the proposal.
func parseVoteMetadata(metadata string) (title, description string) {
	parts := strings.Split(metadata, "|")
	if len(parts) < 3 {
		return "", ""
	}
	title = parts[2]
	if len(parts) > 3 {
		description = parts[3]
	}
	return title, description
}

// startVote opens a proposal: the creator's current power is recorded as
// the first yes ballot and the DAO-wide power is snapshotted as the
// achievable total.
func (s *State) startVote(p *events.StartVote, ev *events.Event) {
	title, description := parseVoteMetadata(p.Metadata)

	v := &Voting{
		Ref:         p.Ref,
		Creator:     p.Creator,
		Title:       title,
		Description: description,
		Metadata:    p.Metadata,
		VotesTotal:  s.TotalVotingPower(),
		Yes:         make(map[dao.Address]*dao.Amount),
		No:          make(map[dao.Address]*dao.Amount),
		StartedAt:   ev.Time,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
	}
	if creator, ok := s.Accounts[p.Creator]; ok {
		v.Yes[p.Creator] = dao.CloneAmount(creator.VotingPower)
		creator.Votes++
	}
	v.recomputeTallies()
	s.Votings[p.Ref.Key()] = v
}

// castVote records a ballot. A repeat ballot by the same voter replaces the
// earlier one, whichever side it was on.
func (s *State) castVote(p *events.CastVote) {
	if voter, ok := s.Accounts[p.Voter]; ok {
		voter.Votes++
	}

	v, ok := s.Votings[p.Ref.Key()]
	if !ok {
		logger.Debug("ballot for unknown voting", "ref", p.Ref, "voter", p.Voter)
		return
	}
	if p.Supports {
		v.Yes[p.Voter] = dao.CloneAmount(p.Stake)
		delete(v.No, p.Voter)
	} else {
		v.No[p.Voter] = dao.CloneAmount(p.Stake)
		delete(v.Yes, p.Voter)
	}
	v.recomputeTallies()
}

// executeVote marks a proposal executed. An absent proposal is a no-op.
func (s *State) executeVote(p *events.ExecuteVote) {
	if v, ok := s.Votings[p.Ref.Key()]; ok {
		v.Executed = true
	}
}
