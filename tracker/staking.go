// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import (
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

func (s *State) deposited(p *events.Deposited) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return nil
	}
	a.Deposited.Add(a.Deposited, p.Amount)
	return nil
}

// depositedVesting marks the account as grant funded: the vesting amount
// accumulates and the account no longer counts as an organic supporter.
func (s *State) depositedVesting(p *events.DepositedVesting) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return nil
	}
	a.Deposited.Add(a.Deposited, p.Amount)
	if a.VestedAmount == nil {
		a.VestedAmount = dao.ZeroAmount()
	}
	a.VestedAmount.Add(a.VestedAmount, p.Amount)
	a.Supporter = false
	return nil
}

func (s *State) depositedByTimelock(p *events.DepositedByTimelockManager) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return nil
	}
	a.Deposited.Add(a.Deposited, p.Amount)
	a.Supporter = false
	return nil
}

func (s *State) withdrawn(p *events.Withdrawn) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return nil
	}
	a.Withdrawn.Add(a.Withdrawn, p.Amount)
	a.Supporter = false
	return nil
}

// staked converts deposited tokens into shares. An account staking with no
// vesting history and no withdrawals counts as a supporter.
func (s *State) staked(p *events.Staked) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return nil
	}
	a.Staked.Add(a.Staked, p.Amount)
	a.Shares.Add(a.Shares, p.MintedShares)
	if a.VestedAmount == nil && a.Withdrawn.IsZero() {
		a.Supporter = true
	}
	s.syncDelegation(a)
	return nil
}

// scheduledUnstake reserves shares for a future unstake. Stake and shares
// come off the account now; the unstake event later only clears the
// reservation.
func (s *State) scheduledUnstake(p *events.ScheduledUnstake) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return errors.WithMessagef(ErrUnknownAccount, "scheduled unstake for %v", p.User)
	}
	if a.Shares.Cmp(p.Shares) < 0 {
		return errors.WithMessagef(ErrInsufficientShares,
			"scheduled unstake of %s shares, %s recorded for %v", p.Shares, a.Shares, p.User)
	}

	amount := dao.CloneAmount(p.Amount)
	if amount.Cmp(a.Staked) > 0 {
		amount = dao.CloneAmount(a.Staked)
	}
	if a.ScheduledUnstake != nil {
		logger.Warn("unstake scheduled twice", "user", p.User, "deadline", p.ScheduledFor)
	}
	a.ScheduledUnstake = &ScheduledUnstake{
		Amount:     amount,
		Shares:     dao.CloneAmount(p.Shares),
		DeadlineAt: p.ScheduledFor,
	}
	a.Staked.Sub(a.Staked, amount)
	a.Shares.Sub(a.Shares, p.Shares)
	a.Supporter = false
	s.syncDelegation(a)
	return nil
}

// unstaked clears a matured reservation. The balances were already
// adjusted when the unstake was scheduled.
func (s *State) unstaked(p *events.Unstaked) error {
	a, ok := s.Accounts[p.User]
	if !ok {
		return errors.WithMessagef(ErrUnknownAccount, "unstaked for %v", p.User)
	}

	if a.ScheduledUnstake != nil {
		if totalStake := s.TotalStaked(); !totalStake.IsZero() {
			implied := new(dao.Amount).Mul(p.Amount, s.TotalShares())
			implied.Div(implied, totalStake)
			if implied.Cmp(a.ScheduledUnstake.Shares) != 0 {
				logger.Debug("unstaked amount does not match reservation",
					"user", p.User, "implied", implied, "reserved", a.ScheduledUnstake.Shares)
			}
		}
	}
	a.ScheduledUnstake = nil
	return nil
}

// syncDelegation pushes the account's share balance through its outgoing
// delegation edge after the balance changed, then recomputes power on both
// sides.
func (s *State) syncDelegation(a *Account) {
	if a.Delegates != nil {
		a.Delegates.Shares = dao.CloneAmount(a.Shares)
	}
	s.recomputeVotingPower(a)
	if a.Delegates == nil {
		return
	}
	if dst, ok := s.Accounts[a.Delegates.Address]; ok {
		if dst.Delegated == nil {
			dst.Delegated = make(map[dao.Address]*dao.Amount)
		}
		dst.Delegated[a.Address] = dao.CloneAmount(a.Shares)
		s.recomputeVotingPower(dst)
	}
}
