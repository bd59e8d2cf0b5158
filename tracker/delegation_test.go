// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

// delegationState builds two staked accounts ready to delegate.
func delegationState(t *testing.T) (*State, *seq, dao.Address, dao.Address) {
	t.Helper()
	s := newTestState()
	q := &seq{}
	a, b := addr(0xa), addr(0xb)
	require.NoError(t, s.Apply(q.ev(staked(a, 1000, 1000))))
	require.NoError(t, s.Apply(q.ev(staked(b, 300, 300))))
	return s, q, a, b
}

func assertSymmetry(t *testing.T, s *State) {
	t.Helper()
	for from, a := range s.Accounts {
		if a.Delegates == nil {
			continue
		}
		to := s.Accounts[a.Delegates.Address]
		require.NotNil(t, to, "delegation target of %v missing", from)
		assert.Equal(t, a.Shares, a.Delegates.Shares, "snapshot off for %v", from)
		assert.Equal(t, a.Shares, to.Delegated[from], "back-reference off for %v", from)
	}
}

func TestDelegate(t *testing.T) {
	s, q, a, b := delegationState(t)

	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1000)})))

	accA, accB := s.Accounts[a], s.Accounts[b]
	assert.True(t, accA.VotingPower.IsZero())
	assert.Equal(t, b, accA.Delegates.Address)
	assert.Equal(t, amt(1300), accB.VotingPower)
	assertSymmetry(t, s)
}

func TestDelegateIgnoresEventShares(t *testing.T) {
	s, q, a, b := delegationState(t)

	// chain-supplied shares are untrustworthy mid stake+delegate sequences;
	// the ledger's own balance wins
	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1)})))
	assert.Equal(t, amt(1000), s.Accounts[b].Delegated[a])
	assertSymmetry(t, s)
}

func TestDelegateRetarget(t *testing.T) {
	s, q, a, b := delegationState(t)
	c := addr(0xc)
	require.NoError(t, s.Apply(q.ev(staked(c, 500, 500))))

	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1000)})))
	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: c, Shares: amt(1000)})))

	// the old edge is fully detached
	assert.NotContains(t, s.Accounts[b].Delegated, a)
	assert.Equal(t, amt(300), s.Accounts[b].VotingPower)
	assert.Equal(t, amt(1500), s.Accounts[c].VotingPower)
	assertSymmetry(t, s)
}

func TestDelegateUndelegateRoundTrip(t *testing.T) {
	s, q, a, b := delegationState(t)

	beforeA := s.Accounts[a].Clone()
	beforeB := s.Accounts[b].Clone()

	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1000)})))
	require.NoError(t, s.Apply(q.ev(&events.Undelegated{From: a, To: b, Shares: amt(1000)})))

	assert.Equal(t, beforeA.VotingPower, s.Accounts[a].VotingPower)
	assert.Equal(t, beforeB.VotingPower, s.Accounts[b].VotingPower)
	assert.Nil(t, s.Accounts[a].Delegates)
	assert.NotContains(t, s.Accounts[b].Delegated, a)
	assertSymmetry(t, s)
}

func TestUndelegateMismatch(t *testing.T) {
	s, q, a, b := delegationState(t)
	c := addr(0xc)
	require.NoError(t, s.Apply(q.ev(staked(c, 1, 1))))
	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1000)})))

	// wrong target: reported and skipped, the delegation stays
	err := s.undelegate(a, c, amt(1000))
	require.ErrorIs(t, err, ErrDelegationMismatch)
	assert.Equal(t, b, s.Accounts[a].Delegates.Address)
	assertSymmetry(t, s)

	// no delegation at all is a mismatch too
	err = s.undelegate(c, a, amt(1))
	require.ErrorIs(t, err, ErrDelegationMismatch)
}

func TestUndelegateInsufficientSharesStillClears(t *testing.T) {
	s, q, a, b := delegationState(t)
	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1000)})))

	// claimed shares exceed the ledger's; the clear proceeds regardless
	require.NoError(t, s.undelegate(a, b, amt(5000)))
	assert.Nil(t, s.Accounts[a].Delegates)
	assert.NotContains(t, s.Accounts[b].Delegated, a)
	assert.Equal(t, amt(1000), s.Accounts[a].VotingPower)
}

func TestDelegateUnknownAccounts(t *testing.T) {
	s := newTestState()

	err := s.delegate(addr(1), addr(2), 0)
	require.ErrorIs(t, err, ErrUnknownAccount)

	err = s.undelegate(addr(1), addr(2), amt(0))
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestStakeWhileDelegatingSyncsEdge(t *testing.T) {
	s, q, a, b := delegationState(t)
	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: b, Shares: amt(1000)})))

	require.NoError(t, s.Apply(q.ev(staked(a, 500, 500))))

	assert.True(t, s.Accounts[a].VotingPower.IsZero())
	assert.Equal(t, amt(1500), s.Accounts[b].Delegated[a])
	assert.Equal(t, amt(1800), s.Accounts[b].VotingPower)
	assertSymmetry(t, s)
}

func TestSelfDelegation(t *testing.T) {
	s, q, a, _ := delegationState(t)

	require.NoError(t, s.Apply(q.ev(&events.Delegated{From: a, To: a, Shares: amt(1000)})))
	// a delegating account has no power, even pointed at itself
	assert.True(t, s.Accounts[a].VotingPower.IsZero())
	assert.Equal(t, amt(1000), s.Accounts[a].Delegated[a])
}
