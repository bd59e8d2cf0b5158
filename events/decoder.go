// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/dao"
)

// Topic signatures of the current contract generation.
var (
	sigDeposited        = crypto.Keccak256Hash([]byte("Deposited(address,uint256,uint256)"))
	sigDepositedVesting = crypto.Keccak256Hash([]byte("DepositedVesting(address,uint256,uint256,uint256,uint256,uint256)"))
	sigDepositedByTM    = crypto.Keccak256Hash([]byte("DepositedByTimelockManager(address,uint256,uint256)"))
	sigWithdrawn        = crypto.Keccak256Hash([]byte("Withdrawn(address,uint256,uint256)"))
	sigStaked           = crypto.Keccak256Hash([]byte("Staked(address,uint256,uint256,uint256,uint256,uint256,uint256)"))
	sigUnstaked         = crypto.Keccak256Hash([]byte("Unstaked(address,uint256,uint256,uint256,uint256)"))
	sigScheduledUnstake = crypto.Keccak256Hash([]byte("ScheduledUnstake(address,uint256,uint256,uint256,uint256)"))
	sigDelegated        = crypto.Keccak256Hash([]byte("Delegated(address,address,uint256,uint256)"))
	sigUndelegated      = crypto.Keccak256Hash([]byte("Undelegated(address,address,uint256,uint256)"))
	sigMintedReward     = crypto.Keccak256Hash([]byte("MintedReward(uint256,uint256,uint256,uint256)"))
)

// Topic signatures of the first deployment. Same kinds, fewer fields.
var (
	sigDepositedV0        = crypto.Keccak256Hash([]byte("Deposited(address,uint256)"))
	sigWithdrawnV0        = crypto.Keccak256Hash([]byte("Withdrawn(address,uint256)"))
	sigStakedV0           = crypto.Keccak256Hash([]byte("Staked(address,uint256,uint256)"))
	sigUnstakedV0         = crypto.Keccak256Hash([]byte("Unstaked(address,uint256)"))
	sigScheduledUnstakeV0 = crypto.Keccak256Hash([]byte("ScheduledUnstake(address,uint256,uint256,uint256)"))
	sigDelegatedV0        = crypto.Keccak256Hash([]byte("Delegated(address,address,uint256)"))
	sigUndelegatedV0      = crypto.Keccak256Hash([]byte("Undelegated(address,address,uint256)"))
	sigMintedRewardV0     = crypto.Keccak256Hash([]byte("MintedReward(uint256,uint256,uint256)"))
)

// Aragon voting app topic signatures, one generation only.
var (
	sigStartVote   = crypto.Keccak256Hash([]byte("StartVote(uint256,address,string)"))
	sigCastVote    = crypto.Keccak256Hash([]byte("CastVote(uint256,address,bool,uint256)"))
	sigExecuteVote = crypto.Keccak256Hash([]byte("ExecuteVote(uint256)"))
)

// Contracts holds the deployed addresses the decoder dispatches on.
type Contracts struct {
	Pool            dao.Address
	PrimaryVoting   dao.Address
	SecondaryVoting dao.Address
	Timelock        dao.Address
}

// Decoder turns raw contract logs into canonical events.
type Decoder struct {
	contracts Contracts
	agents    map[common.Address]dao.Agent
}

// NewDecoder creates a decoder for one deployment.
func NewDecoder(contracts Contracts) *Decoder {
	return &Decoder{
		contracts: contracts,
		agents: map[common.Address]dao.Agent{
			common.Address(contracts.PrimaryVoting):   dao.AgentPrimary,
			common.Address(contracts.SecondaryVoting): dao.AgentSecondary,
		},
	}
}

// Addresses returns the contract addresses to filter logs by.
func (d *Decoder) Addresses() []common.Address {
	return []common.Address{
		common.Address(d.contracts.Pool),
		common.Address(d.contracts.PrimaryVoting),
		common.Address(d.contracts.SecondaryVoting),
		common.Address(d.contracts.Timelock),
	}
}

// Decode decodes one raw log into a canonical event stamped with the block
// time. Logs with signatures the tracker does not follow decode to
// (nil, nil); a recognized signature with a malformed body is an error.
func (d *Decoder) Decode(lg *types.Log, blockTime uint64) (*Event, error) {
	if len(lg.Topics) == 0 {
		return nil, nil
	}

	var (
		payload Payload
		err     error
	)
	if agent, ok := d.agents[lg.Address]; ok {
		payload, err = decodeVoting(agent, lg)
	} else {
		payload, err = decodePool(lg)
	}
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return &Event{
		Payload:     payload,
		Time:        blockTime,
		BlockNumber: lg.BlockNumber,
		TxHash:      dao.Hash(lg.TxHash),
		LogIndex:    lg.Index,
	}, nil
}

func decodePool(lg *types.Log) (Payload, error) {
	switch lg.Topics[0] {
	case sigDeposited:
		user, w, err := userAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &Deposited{User: user, Amount: w[0], UserUnstaked: w[1]}, nil

	case sigDepositedV0:
		user, w, err := userAndWords(lg, 1)
		if err != nil {
			return nil, err
		}
		return &Deposited{User: user, Amount: w[0]}, nil

	case sigDepositedVesting:
		user, w, err := userAndWords(lg, 5)
		if err != nil {
			return nil, err
		}
		start, err := wordToUint64(w[1])
		if err != nil {
			return nil, err
		}
		end, err := wordToUint64(w[2])
		if err != nil {
			return nil, err
		}
		return &DepositedVesting{
			User:         user,
			Amount:       w[0],
			Start:        start,
			End:          end,
			UserUnstaked: w[3],
			UserVesting:  w[4],
		}, nil

	case sigDepositedByTM:
		user, w, err := userAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &DepositedByTimelockManager{User: user, Amount: w[0], UserUnstaked: w[1]}, nil

	case sigWithdrawn:
		user, w, err := userAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &Withdrawn{User: user, Amount: w[0], UserUnstaked: w[1]}, nil

	case sigWithdrawnV0:
		user, w, err := userAndWords(lg, 1)
		if err != nil {
			return nil, err
		}
		return &Withdrawn{User: user, Amount: w[0]}, nil

	case sigStaked:
		user, w, err := userAndWords(lg, 6)
		if err != nil {
			return nil, err
		}
		return &Staked{
			User:         user,
			Amount:       w[0],
			MintedShares: w[1],
			UserUnstaked: w[2],
			UserShares:   w[3],
			TotalShares:  w[4],
			TotalStake:   w[5],
		}, nil

	case sigStakedV0:
		user, w, err := userAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &Staked{User: user, Amount: w[0], MintedShares: w[1]}, nil

	case sigUnstaked:
		user, w, err := userAndWords(lg, 4)
		if err != nil {
			return nil, err
		}
		return &Unstaked{
			User:         user,
			Amount:       w[0],
			UserUnstaked: w[1],
			TotalShares:  w[2],
			TotalStake:   w[3],
		}, nil

	case sigUnstakedV0:
		user, w, err := userAndWords(lg, 1)
		if err != nil {
			return nil, err
		}
		return &Unstaked{User: user, Amount: w[0]}, nil

	case sigScheduledUnstake:
		user, w, err := userAndWords(lg, 4)
		if err != nil {
			return nil, err
		}
		scheduledFor, err := wordToUint64(w[2])
		if err != nil {
			return nil, err
		}
		return &ScheduledUnstake{
			User:         user,
			Amount:       w[0],
			Shares:       w[1],
			ScheduledFor: scheduledFor,
			UserShares:   w[3],
		}, nil

	case sigScheduledUnstakeV0:
		user, w, err := userAndWords(lg, 3)
		if err != nil {
			return nil, err
		}
		scheduledFor, err := wordToUint64(w[2])
		if err != nil {
			return nil, err
		}
		return &ScheduledUnstake{
			User:         user,
			Amount:       w[0],
			Shares:       w[1],
			ScheduledFor: scheduledFor,
		}, nil

	case sigDelegated:
		from, to, w, err := pairAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &Delegated{From: from, To: to, Shares: w[0], TotalDelegatedTo: w[1]}, nil

	case sigDelegatedV0:
		from, to, w, err := pairAndWords(lg, 1)
		if err != nil {
			return nil, err
		}
		return &Delegated{From: from, To: to, Shares: w[0]}, nil

	case sigUndelegated:
		from, to, w, err := pairAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &Undelegated{From: from, To: to, Shares: w[0], TotalDelegatedTo: w[1]}, nil

	case sigUndelegatedV0:
		from, to, w, err := pairAndWords(lg, 1)
		if err != nil {
			return nil, err
		}
		return &Undelegated{From: from, To: to, Shares: w[0]}, nil

	case sigMintedReward:
		epoch, w, err := epochAndWords(lg, 3)
		if err != nil {
			return nil, err
		}
		return &MintedReward{EpochIndex: epoch, Amount: w[0], NewAPR: w[1], TotalStake: w[2]}, nil

	case sigMintedRewardV0:
		epoch, w, err := epochAndWords(lg, 2)
		if err != nil {
			return nil, err
		}
		return &MintedReward{EpochIndex: epoch, Amount: w[0], NewAPR: w[1]}, nil
	}
	return nil, nil
}

func decodeVoting(agent dao.Agent, lg *types.Log) (Payload, error) {
	switch lg.Topics[0] {
	case sigStartVote:
		if len(lg.Topics) != 3 {
			return nil, badTopics(KindStartVote, lg)
		}
		id, err := topicUint64(lg, 1)
		if err != nil {
			return nil, err
		}
		metadata, err := unpackString(lg.Data)
		if err != nil {
			return nil, errors.WithMessagef(err, "%v: vote %d", KindStartVote, id)
		}
		return &StartVote{
			Ref:      dao.VotingRef{Agent: agent, ID: id},
			Creator:  topicAddress(lg, 2),
			Metadata: metadata,
		}, nil

	case sigCastVote:
		if len(lg.Topics) != 3 {
			return nil, badTopics(KindCastVote, lg)
		}
		id, err := topicUint64(lg, 1)
		if err != nil {
			return nil, err
		}
		w, err := dataWords(KindCastVote, lg, 2)
		if err != nil {
			return nil, err
		}
		return &CastVote{
			Ref:      dao.VotingRef{Agent: agent, ID: id},
			Voter:    topicAddress(lg, 2),
			Supports: !w[0].IsZero(),
			Stake:    w[1],
		}, nil

	case sigExecuteVote:
		if len(lg.Topics) != 2 {
			return nil, badTopics(KindExecuteVote, lg)
		}
		id, err := topicUint64(lg, 1)
		if err != nil {
			return nil, err
		}
		return &ExecuteVote{Ref: dao.VotingRef{Agent: agent, ID: id}}, nil
	}
	return nil, nil
}

func userAndWords(lg *types.Log, n int) (dao.Address, []*dao.Amount, error) {
	kind := poolKind(lg.Topics[0])
	if len(lg.Topics) != 2 {
		return dao.Address{}, nil, badTopics(kind, lg)
	}
	w, err := dataWords(kind, lg, n)
	if err != nil {
		return dao.Address{}, nil, err
	}
	return topicAddress(lg, 1), w, nil
}

func pairAndWords(lg *types.Log, n int) (dao.Address, dao.Address, []*dao.Amount, error) {
	kind := poolKind(lg.Topics[0])
	if len(lg.Topics) != 3 {
		return dao.Address{}, dao.Address{}, nil, badTopics(kind, lg)
	}
	w, err := dataWords(kind, lg, n)
	if err != nil {
		return dao.Address{}, dao.Address{}, nil, err
	}
	return topicAddress(lg, 1), topicAddress(lg, 2), w, nil
}

func epochAndWords(lg *types.Log, n int) (uint64, []*dao.Amount, error) {
	kind := poolKind(lg.Topics[0])
	if len(lg.Topics) != 2 {
		return 0, nil, badTopics(kind, lg)
	}
	epoch, err := topicUint64(lg, 1)
	if err != nil {
		return 0, nil, err
	}
	w, err := dataWords(kind, lg, n)
	if err != nil {
		return 0, nil, err
	}
	return epoch, w, nil
}

func topicAddress(lg *types.Log, i int) dao.Address {
	return dao.BytesToAddress(lg.Topics[i].Bytes())
}

func topicUint64(lg *types.Log, i int) (uint64, error) {
	return wordToUint64(dao.BytesToAmount(lg.Topics[i].Bytes()))
}

func wordToUint64(w *dao.Amount) (uint64, error) {
	v, overflow := w.Uint64WithOverflow()
	if overflow {
		return 0, errors.Errorf("event word %s overflows uint64", w.Hex())
	}
	return v, nil
}

// dataWords splits the log data into exactly n 32 byte words.
func dataWords(kind Kind, lg *types.Log, n int) ([]*dao.Amount, error) {
	if len(lg.Data) != n*32 {
		return nil, errors.Errorf("%v: event data is %d bytes, want %d", kind, len(lg.Data), n*32)
	}
	words := make([]*dao.Amount, n)
	for i := range words {
		words[i] = dao.BytesToAmount(lg.Data[i*32 : (i+1)*32])
	}
	return words, nil
}

// unpackString decodes a single dynamic string argument from ABI data.
func unpackString(data []byte) (string, error) {
	if len(data) < 64 {
		return "", errors.New("string data too short")
	}
	offset, err := wordToUint64(dao.BytesToAmount(data[:32]))
	if err != nil {
		return "", err
	}
	dlen := uint64(len(data))
	if offset >= dlen || dlen-offset < 32 {
		return "", errors.New("string offset out of range")
	}
	length, err := wordToUint64(dao.BytesToAmount(data[offset : offset+32]))
	if err != nil {
		return "", err
	}
	if dlen-offset-32 < length {
		return "", errors.New("string length out of range")
	}
	return string(data[offset+32 : offset+32+length]), nil
}

func badTopics(kind Kind, lg *types.Log) error {
	return errors.Errorf("%v: unexpected topic count %d", kind, len(lg.Topics))
}

var poolKinds = map[common.Hash]Kind{
	sigDeposited:          KindDeposited,
	sigDepositedV0:        KindDeposited,
	sigDepositedVesting:   KindDepositedVesting,
	sigDepositedByTM:      KindDepositedByTimelockManager,
	sigWithdrawn:          KindWithdrawn,
	sigWithdrawnV0:        KindWithdrawn,
	sigStaked:             KindStaked,
	sigStakedV0:           KindStaked,
	sigUnstaked:           KindUnstaked,
	sigUnstakedV0:         KindUnstaked,
	sigScheduledUnstake:   KindScheduledUnstake,
	sigScheduledUnstakeV0: KindScheduledUnstake,
	sigDelegated:          KindDelegated,
	sigDelegatedV0:        KindDelegated,
	sigUndelegated:        KindUndelegated,
	sigUndelegatedV0:      KindUndelegated,
	sigMintedReward:       KindMintedReward,
	sigMintedRewardV0:     KindMintedReward,
}

func poolKind(sig common.Hash) Kind {
	return poolKinds[sig]
}
