// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import (
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/dao"
)

// delegate points from's voting power at to. Any previous delegation is
// detached first. Both sides of the edge stay in sync: the source records
// target and shares, the target records the same shares keyed by source.
func (s *State) delegate(from, to dao.Address, tm uint64) error {
	src, ok := s.Accounts[from]
	if !ok {
		return errors.WithMessagef(ErrUnknownAccount, "delegate from %v", from)
	}

	if src.Delegates != nil {
		if old, ok := s.Accounts[src.Delegates.Address]; ok {
			delete(old.Delegated, from)
			s.recomputeVotingPower(old)
		}
	}

	src.Delegates = &Delegation{
		Address:   to,
		Shares:    dao.CloneAmount(src.Shares),
		UpdatedAt: tm,
	}
	s.recomputeVotingPower(src)

	dst, ok := s.Accounts[to]
	if !ok {
		return errors.WithMessagef(ErrUnknownAccount, "delegate to %v", to)
	}
	if dst.Delegated == nil {
		dst.Delegated = make(map[dao.Address]*dao.Amount)
	}
	dst.Delegated[from] = dao.CloneAmount(src.Shares)
	s.recomputeVotingPower(dst)
	return nil
}

// undelegate clears from's delegation after checking it matches the
// claimed target. A shares figure larger than the ledger records is
// reported but does not block the clear.
func (s *State) undelegate(from, to dao.Address, shares *dao.Amount) error {
	src, ok := s.Accounts[from]
	if !ok {
		return errors.WithMessagef(ErrUnknownAccount, "undelegate from %v", from)
	}
	if src.Delegates == nil || src.Delegates.Address != to {
		return errors.WithMessagef(ErrDelegationMismatch, "undelegate %v from %v", from, to)
	}

	if dst, ok := s.Accounts[to]; ok {
		delete(dst.Delegated, from)
		s.recomputeVotingPower(dst)
	}

	if src.Shares.Cmp(shares) < 0 {
		logger.Warn("undelegated shares exceed recorded shares",
			"from", from, "to", to, "shares", shares, "recorded", src.Shares)
	}
	src.Delegates = nil
	s.recomputeVotingPower(src)
	return nil
}
