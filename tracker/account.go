// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import "github.com/daotrack/daotrack/dao"

// Account is the materialized view of one DAO member.
//
// VotingPower is derived state. Only recomputeVotingPower writes it, every
// mutation of shares or the delegation graph ends with a recompute of the
// affected accounts.
type Account struct {
	Address   dao.Address `json:"address"`
	Name      string      `json:"name,omitempty"`
	CreatedAt uint64      `json:"created_at"`
	UpdatedAt uint64      `json:"updated_at,omitempty"`

	Deposited   *dao.Amount `json:"deposited"`
	Withdrawn   *dao.Amount `json:"withdrawn"`
	Staked      *dao.Amount `json:"staked"`
	Shares      *dao.Amount `json:"shares"`
	VotingPower *dao.Amount `json:"voting_power"`
	Rewards     *dao.Amount `json:"rewards"`
	Votes       uint64      `json:"votes"`

	// VestedAmount is nil until the account receives a vesting deposit.
	VestedAmount *dao.Amount `json:"vested_amount,omitempty"`

	Delegates        *Delegation                 `json:"delegates,omitempty"`
	Delegated        map[dao.Address]*dao.Amount `json:"delegated,omitempty"`
	ScheduledUnstake *ScheduledUnstake           `json:"scheduled_unstake,omitempty"`

	Supporter bool `json:"supporter"`
	Vested    bool `json:"vested"`
}

func newAccount(addr dao.Address, tm uint64) *Account {
	return &Account{
		Address:     addr,
		CreatedAt:   tm,
		Deposited:   dao.ZeroAmount(),
		Withdrawn:   dao.ZeroAmount(),
		Staked:      dao.ZeroAmount(),
		Shares:      dao.ZeroAmount(),
		VotingPower: dao.ZeroAmount(),
		Rewards:     dao.ZeroAmount(),
	}
}

// Delegating reports whether the account currently delegates its power.
func (a *Account) Delegating() bool {
	return a.Delegates != nil
}

// Clone returns an independent deep copy.
func (a *Account) Clone() *Account {
	c := *a
	c.Deposited = dao.CloneAmount(a.Deposited)
	c.Withdrawn = dao.CloneAmount(a.Withdrawn)
	c.Staked = dao.CloneAmount(a.Staked)
	c.Shares = dao.CloneAmount(a.Shares)
	c.VotingPower = dao.CloneAmount(a.VotingPower)
	c.Rewards = dao.CloneAmount(a.Rewards)
	if a.VestedAmount != nil {
		c.VestedAmount = a.VestedAmount.Clone()
	}
	if a.Delegates != nil {
		c.Delegates = a.Delegates.Clone()
	}
	if a.Delegated != nil {
		c.Delegated = cloneAmountMap(a.Delegated)
	}
	if a.ScheduledUnstake != nil {
		c.ScheduledUnstake = a.ScheduledUnstake.Clone()
	}
	return &c
}

// Delegation records where an account points its voting power.
type Delegation struct {
	Address   dao.Address `json:"address"`
	Shares    *dao.Amount `json:"shares"`
	UpdatedAt uint64      `json:"updated_at"`
}

// Clone returns an independent deep copy.
func (d *Delegation) Clone() *Delegation {
	return &Delegation{
		Address:   d.Address,
		Shares:    dao.CloneAmount(d.Shares),
		UpdatedAt: d.UpdatedAt,
	}
}

// ScheduledUnstake is a pending unstake reservation. Stake and shares are
// decremented when the reservation is recorded, the later unstake event
// only clears it.
type ScheduledUnstake struct {
	Amount     *dao.Amount `json:"amount"`
	Shares     *dao.Amount `json:"shares"`
	DeadlineAt uint64      `json:"deadline_at"`
}

// Clone returns an independent deep copy.
func (s *ScheduledUnstake) Clone() *ScheduledUnstake {
	return &ScheduledUnstake{
		Amount:     dao.CloneAmount(s.Amount),
		Shares:     dao.CloneAmount(s.Shares),
		DeadlineAt: s.DeadlineAt,
	}
}

func cloneAmountMap[K comparable](m map[K]*dao.Amount) map[K]*dao.Amount {
	c := make(map[K]*dao.Amount, len(m))
	for k, v := range m {
		c[k] = dao.CloneAmount(v)
	}
	return c
}
