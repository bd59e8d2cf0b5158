// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines the canonical DAO event model and decodes raw
// contract logs into it. Each on-chain event kind may exist in two ABI
// generations; both decode into one canonical payload where the fields the
// first generation lacks stay nil.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/daotrack/daotrack/dao"
)

// Kind enumerates the canonical event kinds.
type Kind byte

const (
	KindDeposited Kind = iota
	KindDepositedVesting
	KindDepositedByTimelockManager
	KindWithdrawn
	KindStaked
	KindUnstaked
	KindScheduledUnstake
	KindDelegated
	KindUndelegated
	KindMintedReward
	KindStartVote
	KindCastVote
	KindExecuteVote
	KindVestingAddressesSet
)

var kindNames = map[Kind]string{
	KindDeposited:                  "Deposited",
	KindDepositedVesting:           "DepositedVesting",
	KindDepositedByTimelockManager: "DepositedByTimelockManager",
	KindWithdrawn:                  "Withdrawn",
	KindStaked:                     "Staked",
	KindUnstaked:                   "Unstaked",
	KindScheduledUnstake:           "ScheduledUnstake",
	KindDelegated:                  "Delegated",
	KindUndelegated:                "Undelegated",
	KindMintedReward:               "MintedReward",
	KindStartVote:                  "StartVote",
	KindCastVote:                   "CastVote",
	KindExecuteVote:                "ExecuteVote",
	KindVestingAddressesSet:        "VestingAddressesSet",
}

// String implements the stringer interface.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Payload is the decoded body of one event.
type Payload interface {
	Kind() Kind
	// Touched lists the member accounts the payload concerns. The ledger
	// routes the event into these accounts' histories.
	Touched() []dao.Address
}

// VotingPayload is implemented by payloads that belong to one vote.
type VotingPayload interface {
	Payload
	VotingRef() dao.VotingRef
}

// Event is one canonical event with its chain position attached.
// Ordering is (BlockNumber, LogIndex), total within one chain.
type Event struct {
	Payload

	Time        uint64
	BlockNumber uint64
	TxHash      dao.Hash
	LogIndex    uint
}

// VotingKey returns the voting map key the event belongs to, if any.
func (e *Event) VotingKey() (uint64, bool) {
	if vp, ok := e.Payload.(VotingPayload); ok {
		return vp.VotingRef().Key(), true
	}
	return 0, false
}

// Before reports whether e precedes other in chain order.
func (e *Event) Before(other *Event) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

// MarshalJSON implements json.Marshaler. The payload is wrapped in an
// envelope naming its kind so stream consumers can dispatch without
// guessing from field shapes.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name        string   `json:"name"`
		Payload     Payload  `json:"payload"`
		Time        uint64   `json:"tm"`
		BlockNumber uint64   `json:"block_number"`
		TxHash      dao.Hash `json:"tx"`
		LogIndex    uint     `json:"log_index"`
	}{
		Name:        e.Kind().String(),
		Payload:     e.Payload,
		Time:        e.Time,
		BlockNumber: e.BlockNumber,
		TxHash:      e.TxHash,
		LogIndex:    e.LogIndex,
	})
}
