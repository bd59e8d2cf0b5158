// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import (
	"sync"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

// DesyncPolicy decides what happens when a scheduled unstake contradicts
// the ledger. Everything else is always logged and skipped.
type DesyncPolicy byte

const (
	// HaltOnDesync aborts ingestion. A contradicted unstake reservation
	// would silently corrupt every later balance, better to stop.
	HaltOnDesync DesyncPolicy = iota
	// LogOnDesync downgrades the contradiction to a logged skip.
	LogOnDesync
)

// Config configures a Tracker.
type Config struct {
	ChainID  uint64
	Decimals map[string]uint8
	Policy   DesyncPolicy
}

// Tracker serializes access to the materialized state. One ingestion
// goroutine applies events; readers take consistent snapshots.
type Tracker struct {
	mu     sync.RWMutex
	state  *State
	policy DesyncPolicy
	ready  bool
}

// New creates a Tracker holding a fresh state.
func New(cfg Config) *Tracker {
	return &Tracker{
		state:  NewState(cfg.ChainID, cfg.Decimals),
		policy: cfg.Policy,
	}
}

// Apply folds one event in. The returned error is non-nil only when the
// configured policy demands ingestion stop.
func (t *Tracker) Apply(ev *events.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.state.Apply(ev)
	metricEventsApplied().AddWithLabel(1, map[string]string{"kind": ev.Kind().String()})
	metricLastBlock().Set(int64(t.state.LastBlock))
	metricAccounts().Set(int64(len(t.state.Accounts)))

	if err == nil {
		return nil
	}
	metricApplyErrors().AddWithLabel(1, map[string]string{"kind": ev.Kind().String()})
	if ev.Kind() == events.KindScheduledUnstake && t.policy == HaltOnDesync {
		logger.Error("ledger contradicts scheduled unstake, halting ingestion",
			"err", err, "block", ev.BlockNumber, "tx", ev.TxHash)
		return err
	}
	logger.Warn("event skipped",
		"kind", ev.Kind(), "err", err, "block", ev.BlockNumber, "tx", ev.TxHash)
	return nil
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// LastBlock returns the highest block folded in so far.
func (t *Tracker) LastBlock() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.LastBlock
}

// MarkReady flags the historical scan as complete.
func (t *Tracker) MarkReady() {
	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()
}

// Ready reports whether the historical scan completed.
func (t *Tracker) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// SetNames attaches resolved display names to their accounts.
func (t *Tracker) SetNames(names map[dao.Address]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, name := range names {
		if a, ok := t.state.Accounts[addr]; ok {
			a.Name = name
		}
	}
}

// UnnamedAccounts lists up to limit accounts with no display name yet.
// limit <= 0 means all.
func (t *Tracker) UnnamedAccounts(limit int) []dao.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var addrs []dao.Address
	for addr, a := range t.state.Accounts {
		if a.Name != "" {
			continue
		}
		addrs = append(addrs, addr)
		if limit > 0 && len(addrs) == limit {
			break
		}
	}
	return addrs
}

// UpdateTreasury replaces one treasury's polled balance sheet.
func (t *Tracker) UpdateTreasury(name string, addr dao.Address, balances map[string]*dao.Amount, tm uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.updateTreasury(name, addr, balances, tm)
	for sym, balance := range balances {
		whole := new(dao.Amount).Div(balance, pow10(t.state.Decimals[sym]))
		if v, overflow := whole.Uint64WithOverflow(); !overflow {
			metricTreasuryBalance().SetWithLabel(int64(v), map[string]string{
				"treasury": name, "token": sym,
			})
		}
	}
}

func pow10(n uint8) *dao.Amount {
	p := dao.NewAmount(1)
	ten := dao.NewAmount(10)
	for i := uint8(0); i < n; i++ {
		p.Mul(p, ten)
	}
	return p
}

// Status is the cheap summary served by the status endpoint.
type Status struct {
	ChainID    uint64  `json:"chain_id"`
	Version    string  `json:"version"`
	Ready      bool    `json:"ready"`
	LastBlock  uint64  `json:"last_block"`
	EpochIndex uint64  `json:"epoch_index"`
	APR        float64 `json:"apr"`

	Accounts int `json:"accounts"`
	Epochs   int `json:"epochs"`
	Votings  int `json:"votings"`

	TotalStaked      *dao.Amount `json:"total_staked"`
	TotalShares      *dao.Amount `json:"total_shares"`
	TotalVotingPower *dao.Amount `json:"total_voting_power"`
	TotalMinted      *dao.Amount `json:"total_minted"`

	Delegating        int `json:"delegating"`
	VestedAccounts    int `json:"vested_accounts"`
	WithdrawnAccounts int `json:"withdrawn_accounts"`

	Treasuries map[string]*Treasury `json:"treasuries,omitempty"`
}

// Status assembles the summary without copying the full state.
func (t *Tracker) Status() *Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.state
	status := &Status{
		ChainID:           s.ChainID,
		Version:           s.Version,
		Ready:             t.ready,
		LastBlock:         s.LastBlock,
		EpochIndex:        s.EpochIndex,
		APR:               s.APR,
		Accounts:          len(s.Accounts),
		Epochs:            len(s.Epochs),
		Votings:           len(s.Votings),
		TotalStaked:       s.TotalStaked(),
		TotalShares:       s.TotalShares(),
		TotalVotingPower:  s.TotalVotingPower(),
		TotalMinted:       s.TotalMinted(),
		Delegating:        s.DelegatingNum(),
		VestedAccounts:    s.VestedNum(),
		WithdrawnAccounts: s.WithdrawnNum(),
		Treasuries:        make(map[string]*Treasury, len(s.Treasuries)),
	}
	for name, tr := range s.Treasuries {
		status.Treasuries[name] = tr.Clone()
	}
	return status
}
