// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tracker folds the ordered DAO event stream into a materialized
// in-memory state: accounts, delegations, reward epochs and proposal
// tallies. The fold is deterministic, replaying the same events yields an
// identical state.
package tracker

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

var logger = log.New("pkg", "tracker")

// State is the materialized view of the whole DAO. Methods on State are
// not synchronized, Tracker serializes access.
type State struct {
	ChainID    uint64  `json:"chain_id"`
	Version    string  `json:"version"`
	APR        float64 `json:"apr"`
	EpochIndex uint64  `json:"epoch_index"`
	LastBlock  uint64  `json:"last_block"`

	Accounts map[dao.Address]*Account `json:"accounts"`
	Epochs   map[uint64]*Epoch        `json:"epochs"`
	Votings  map[uint64]*Voting       `json:"votings"`

	// Append-only event histories keyed by account and by voting.
	AccountEvents map[dao.Address][]*events.Event `json:"account_events,omitempty"`
	VotingEvents  map[uint64][]*events.Event      `json:"voting_events,omitempty"`

	Vested     []dao.Address        `json:"vested,omitempty"`
	Treasuries map[string]*Treasury `json:"treasuries,omitempty"`
	Decimals   map[string]uint8     `json:"decimals"`
}

// NewState creates an empty state for one chain.
func NewState(chainID uint64, decimals map[string]uint8) *State {
	d := map[string]uint8{}
	for sym, dec := range decimals {
		d[sym] = dec
	}
	return &State{
		ChainID:       chainID,
		Version:       dao.SchemaVersion,
		APR:           dao.InitialAPR,
		EpochIndex:    dao.GenesisEpochIndex,
		Accounts:      make(map[dao.Address]*Account),
		Epochs:        make(map[uint64]*Epoch),
		Votings:       make(map[uint64]*Voting),
		AccountEvents: make(map[dao.Address][]*events.Event),
		VotingEvents:  make(map[uint64][]*events.Event),
		Treasuries:    make(map[string]*Treasury),
		Decimals:      d,
	}
}

// Apply folds one event into the state. The ledger entries for every
// touched account are materialized and their histories extended before the
// payload handler runs, so handlers see all participants. Handler errors
// mean the event contradicts the ledger; the state keeps whatever the
// handler changed before it gave up and the block cursor still advances.
func (s *State) Apply(ev *events.Event) error {
	for _, addr := range ev.Touched() {
		a := s.ensureAccount(addr, ev.Time)
		a.UpdatedAt = ev.Time
		s.AccountEvents[addr] = append(s.AccountEvents[addr], ev)
	}
	if key, ok := ev.VotingKey(); ok {
		s.VotingEvents[key] = append(s.VotingEvents[key], ev)
	}

	var err error
	switch p := ev.Payload.(type) {
	case *events.Deposited:
		err = s.deposited(p)
	case *events.DepositedVesting:
		err = s.depositedVesting(p)
	case *events.DepositedByTimelockManager:
		err = s.depositedByTimelock(p)
	case *events.Withdrawn:
		err = s.withdrawn(p)
	case *events.Staked:
		err = s.staked(p)
	case *events.ScheduledUnstake:
		err = s.scheduledUnstake(p)
	case *events.Unstaked:
		err = s.unstaked(p)
	case *events.Delegated:
		err = s.delegate(p.From, p.To, ev.Time)
	case *events.Undelegated:
		err = s.undelegate(p.From, p.To, p.Shares)
	case *events.MintedReward:
		s.distribute(p, ev)
	case *events.StartVote:
		s.startVote(p, ev)
	case *events.CastVote:
		s.castVote(p)
	case *events.ExecuteVote:
		s.executeVote(p)
	case *events.VestingAddressesSet:
		s.setVestingAddresses(p.Addresses)
	}

	if ev.BlockNumber > s.LastBlock {
		s.LastBlock = ev.BlockNumber
	}
	return err
}

func (s *State) ensureAccount(addr dao.Address, tm uint64) *Account {
	if a, ok := s.Accounts[addr]; ok {
		return a
	}
	a := newAccount(addr, tm)
	s.Accounts[addr] = a
	return a
}

// recomputeVotingPower is the only writer of Account.VotingPower. A
// delegating account has none; otherwise power is own shares plus all
// shares delegated in.
func (s *State) recomputeVotingPower(a *Account) {
	if a.Delegating() {
		a.VotingPower = dao.ZeroAmount()
		return
	}
	power := dao.CloneAmount(a.Shares)
	for _, shares := range a.Delegated {
		power.Add(power, shares)
	}
	a.VotingPower = power
}

// setVestingAddresses replaces the vested address list and reflags every
// account against it.
func (s *State) setVestingAddresses(addrs []dao.Address) {
	vested := make(map[dao.Address]bool, len(addrs))
	s.Vested = make([]dao.Address, 0, len(addrs))
	for _, addr := range addrs {
		vested[addr] = true
		s.Vested = append(s.Vested, addr)
	}
	for addr, a := range s.Accounts {
		a.Vested = vested[addr]
	}
}

// Clone returns a deep copy safe to read while the original keeps folding.
// Event records are immutable once applied and are shared, the containers
// holding them are copied.
func (s *State) Clone() *State {
	c := *s

	c.Accounts = make(map[dao.Address]*Account, len(s.Accounts))
	for addr, a := range s.Accounts {
		c.Accounts[addr] = a.Clone()
	}
	c.Epochs = make(map[uint64]*Epoch, len(s.Epochs))
	for i, e := range s.Epochs {
		c.Epochs[i] = e.Clone()
	}
	c.Votings = make(map[uint64]*Voting, len(s.Votings))
	for k, v := range s.Votings {
		c.Votings[k] = v.Clone()
	}
	c.AccountEvents = make(map[dao.Address][]*events.Event, len(s.AccountEvents))
	for addr, evs := range s.AccountEvents {
		c.AccountEvents[addr] = append([]*events.Event(nil), evs...)
	}
	c.VotingEvents = make(map[uint64][]*events.Event, len(s.VotingEvents))
	for k, evs := range s.VotingEvents {
		c.VotingEvents[k] = append([]*events.Event(nil), evs...)
	}
	c.Vested = append([]dao.Address(nil), s.Vested...)
	c.Treasuries = make(map[string]*Treasury, len(s.Treasuries))
	for name, t := range s.Treasuries {
		c.Treasuries[name] = t.Clone()
	}
	c.Decimals = make(map[string]uint8, len(s.Decimals))
	for sym, dec := range s.Decimals {
		c.Decimals[sym] = dec
	}
	return &c
}
