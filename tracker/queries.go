// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import "github.com/daotrack/daotrack/dao"

// Derived figures over the materialized state. All of them allocate fresh
// amounts; none mutate the state.

// TotalShares sums pool shares over all accounts.
func (s *State) TotalShares() *dao.Amount {
	total := dao.ZeroAmount()
	for _, a := range s.Accounts {
		total.Add(total, a.Shares)
	}
	return total
}

// TotalStaked sums staked tokens over all accounts.
func (s *State) TotalStaked() *dao.Amount {
	total := dao.ZeroAmount()
	for _, a := range s.Accounts {
		total.Add(total, a.Staked)
	}
	return total
}

// TotalVotingPower sums voting power over all accounts. Delegated power
// counts once, at the delegate.
func (s *State) TotalVotingPower() *dao.Amount {
	total := dao.ZeroAmount()
	for _, a := range s.Accounts {
		total.Add(total, a.VotingPower)
	}
	return total
}

// TotalMinted sums minted rewards over all epochs.
func (s *State) TotalMinted() *dao.Amount {
	total := dao.ZeroAmount()
	for _, e := range s.Epochs {
		total.Add(total, e.Minted)
	}
	return total
}

// StakedForEpoch sums the stake snapshot of one epoch.
func (s *State) StakedForEpoch(index uint64) *dao.Amount {
	total := dao.ZeroAmount()
	if e, ok := s.Epochs[index]; ok {
		for _, staked := range e.Stake {
			total.Add(total, staked)
		}
	}
	return total
}

// RewardsForEpoch recomputes the rewards an epoch actually credited. The
// difference to the minted amount is flooring dust.
func (s *State) RewardsForEpoch(index uint64) *dao.Amount {
	total := dao.ZeroAmount()
	e, ok := s.Epochs[index]
	if !ok || e.Total.IsZero() {
		return total
	}
	for _, staked := range e.Stake {
		credit := new(dao.Amount).Mul(staked, e.Minted)
		credit.Div(credit, e.Total)
		total.Add(total, credit)
	}
	return total
}

// DelegatingNum counts accounts that currently delegate.
func (s *State) DelegatingNum() int {
	n := 0
	for _, a := range s.Accounts {
		if a.Delegating() {
			n++
		}
	}
	return n
}

// DelegatingShares sums the share balances of delegating accounts.
func (s *State) DelegatingShares() *dao.Amount {
	total := dao.ZeroAmount()
	for _, a := range s.Accounts {
		if a.Delegating() {
			total.Add(total, a.Shares)
		}
	}
	return total
}

// VestedNum counts accounts on the vested address list.
func (s *State) VestedNum() int {
	n := 0
	for _, a := range s.Accounts {
		if a.Vested {
			n++
		}
	}
	return n
}

// VestedShares sums the share balances of vested accounts.
func (s *State) VestedShares() *dao.Amount {
	total := dao.ZeroAmount()
	for _, a := range s.Accounts {
		if a.Vested {
			total.Add(total, a.Shares)
		}
	}
	return total
}

// WithdrawnNum counts accounts that took most of their deposits out.
func (s *State) WithdrawnNum() int {
	n := 0
	for _, a := range s.Accounts {
		if a.mostlyWithdrawn() {
			n++
		}
	}
	return n
}

// mostlyWithdrawn reports whether over 90% of deposits left again.
func (a *Account) mostlyWithdrawn() bool {
	withdrawn := new(dao.Amount).Mul(a.Withdrawn, dao.NewAmount(10))
	deposited := new(dao.Amount).Mul(a.Deposited, dao.NewAmount(9))
	return withdrawn.Cmp(deposited) > 0
}

// Account classification labels.
const (
	LabelVested     = "vested"
	LabelSupporter  = "supporter"
	LabelWithdrawn  = "withdrawn"
	LabelUnstaking  = "unstaking"
	LabelNotStaking = "deposited, not staking"
	LabelDelegates  = "delegates"
)

// Labels classifies the account for display. Order is fixed. The
// withdrawn, unstaking and not-staking badges are mutually exclusive.
func (a *Account) Labels() []string {
	var labels []string
	vestedDeposit := a.VestedAmount != nil && !a.VestedAmount.IsZero()
	if a.Vested || vestedDeposit {
		labels = append(labels, LabelVested)
	}
	if !vestedDeposit && a.Supporter {
		labels = append(labels, LabelSupporter)
	}
	switch {
	case !a.Withdrawn.IsZero():
		labels = append(labels, LabelWithdrawn)
	case a.ScheduledUnstake != nil:
		labels = append(labels, LabelUnstaking)
	case !a.Supporter && !a.Deposited.IsZero() && a.VotingPower.IsZero():
		if !vestedDeposit && !a.Delegating() {
			labels = append(labels, LabelNotStaking)
		}
	}
	if a.Delegating() {
		labels = append(labels, LabelDelegates)
	}
	return labels
}
