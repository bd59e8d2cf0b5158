// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import "github.com/daotrack/daotrack/dao"

// Deposited reports tokens moved into the pool, not yet staked.
type Deposited struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	UserUnstaked *dao.Amount `json:"user_unstaked,omitempty"`
}

func (p *Deposited) Kind() Kind { return KindDeposited }
func (p *Deposited) Touched() []dao.Address { return []dao.Address{p.User} }

// DepositedVesting reports a deposit locked under a vesting schedule.
type DepositedVesting struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	Start        uint64      `json:"start"`
	End          uint64      `json:"end"`
	UserUnstaked *dao.Amount `json:"user_unstaked,omitempty"`
	UserVesting  *dao.Amount `json:"user_vesting,omitempty"`
}

func (p *DepositedVesting) Kind() Kind { return KindDepositedVesting }
func (p *DepositedVesting) Touched() []dao.Address { return []dao.Address{p.User} }

// DepositedByTimelockManager reports a deposit made on the user's behalf by
// the timelock manager contract.
type DepositedByTimelockManager struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	UserUnstaked *dao.Amount `json:"user_unstaked,omitempty"`
}

func (p *DepositedByTimelockManager) Kind() Kind { return KindDepositedByTimelockManager }
func (p *DepositedByTimelockManager) Touched() []dao.Address { return []dao.Address{p.User} }

// Withdrawn reports tokens leaving the pool.
type Withdrawn struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	UserUnstaked *dao.Amount `json:"user_unstaked,omitempty"`
}

func (p *Withdrawn) Kind() Kind { return KindWithdrawn }
func (p *Withdrawn) Touched() []dao.Address { return []dao.Address{p.User} }

// Staked reports deposited tokens converted into pool shares.
type Staked struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	MintedShares *dao.Amount `json:"minted_shares"`
	UserUnstaked *dao.Amount `json:"user_unstaked,omitempty"`
	UserShares   *dao.Amount `json:"user_shares,omitempty"`
	TotalShares  *dao.Amount `json:"total_shares,omitempty"`
	TotalStake   *dao.Amount `json:"total_stake,omitempty"`
}

func (p *Staked) Kind() Kind { return KindStaked }
func (p *Staked) Touched() []dao.Address { return []dao.Address{p.User} }

// Unstaked reports a matured scheduled unstake paid out.
type Unstaked struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	UserUnstaked *dao.Amount `json:"user_unstaked,omitempty"`
	TotalShares  *dao.Amount `json:"total_shares,omitempty"`
	TotalStake   *dao.Amount `json:"total_stake,omitempty"`
}

func (p *Unstaked) Kind() Kind { return KindUnstaked }
func (p *Unstaked) Touched() []dao.Address { return []dao.Address{p.User} }

// ScheduledUnstake reports shares reserved for a future unstake.
type ScheduledUnstake struct {
	User         dao.Address `json:"user"`
	Amount       *dao.Amount `json:"amount"`
	Shares       *dao.Amount `json:"shares"`
	ScheduledFor uint64      `json:"scheduled_for"`
	UserShares   *dao.Amount `json:"user_shares,omitempty"`
}

func (p *ScheduledUnstake) Kind() Kind { return KindScheduledUnstake }
func (p *ScheduledUnstake) Touched() []dao.Address { return []dao.Address{p.User} }

// Delegated reports From pointing its voting power at To.
type Delegated struct {
	From             dao.Address `json:"from"`
	To               dao.Address `json:"to"`
	Shares           *dao.Amount `json:"shares"`
	TotalDelegatedTo *dao.Amount `json:"total_delegated_to,omitempty"`
}

func (p *Delegated) Kind() Kind { return KindDelegated }
func (p *Delegated) Touched() []dao.Address { return []dao.Address{p.From, p.To} }

// Undelegated reports From reclaiming its voting power from To.
type Undelegated struct {
	From             dao.Address `json:"from"`
	To               dao.Address `json:"to"`
	Shares           *dao.Amount `json:"shares"`
	TotalDelegatedTo *dao.Amount `json:"total_delegated_to,omitempty"`
}

func (p *Undelegated) Kind() Kind { return KindUndelegated }
func (p *Undelegated) Touched() []dao.Address { return []dao.Address{p.From, p.To} }

// MintedReward reports one epoch's reward distribution.
type MintedReward struct {
	EpochIndex uint64      `json:"epoch_index"`
	Amount     *dao.Amount `json:"amount"`
	NewAPR     *dao.Amount `json:"new_apr"`
	TotalStake *dao.Amount `json:"total_stake,omitempty"`
}

func (p *MintedReward) Kind() Kind { return KindMintedReward }
func (p *MintedReward) Touched() []dao.Address { return nil }

// StartVote reports a new vote opened on one of the voting apps.
type StartVote struct {
	Ref      dao.VotingRef `json:"ref"`
	Creator  dao.Address   `json:"creator"`
	Metadata string        `json:"metadata"`
}

func (p *StartVote) Kind() Kind { return KindStartVote }
func (p *StartVote) Touched() []dao.Address { return []dao.Address{p.Creator} }
func (p *StartVote) VotingRef() dao.VotingRef { return p.Ref }

// CastVote reports a ballot cast on an open vote.
type CastVote struct {
	Ref      dao.VotingRef `json:"ref"`
	Voter    dao.Address   `json:"voter"`
	Supports bool          `json:"supports"`
	Stake    *dao.Amount   `json:"stake"`
}

func (p *CastVote) Kind() Kind { return KindCastVote }
func (p *CastVote) Touched() []dao.Address { return []dao.Address{p.Voter} }
func (p *CastVote) VotingRef() dao.VotingRef { return p.Ref }

// ExecuteVote reports a passed vote executed on chain.
type ExecuteVote struct {
	Ref dao.VotingRef `json:"ref"`
}

func (p *ExecuteVote) Kind() Kind { return KindExecuteVote }
func (p *ExecuteVote) Touched() []dao.Address { return nil }
func (p *ExecuteVote) VotingRef() dao.VotingRef { return p.Ref }

// VestingAddressesSet replaces the set of addresses funded through the
// timelock manager. Synthesized from contract state, not a raw log.
type VestingAddressesSet struct {
	Addresses []dao.Address `json:"addresses"`
}

func (p *VestingAddressesSet) Kind() Kind { return KindVestingAddressesSet }
func (p *VestingAddressesSet) Touched() []dao.Address { return nil }
