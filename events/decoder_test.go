// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daotrack/daotrack/dao"
)

var testContracts = Contracts{
	Pool:            dao.MustParseAddress("0x0000000000000000000000000000000000000001"),
	PrimaryVoting:   dao.MustParseAddress("0x0000000000000000000000000000000000000002"),
	SecondaryVoting: dao.MustParseAddress("0x0000000000000000000000000000000000000003"),
	Timelock:        dao.MustParseAddress("0x0000000000000000000000000000000000000004"),
}

func addrTopic(a dao.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(a.Bytes(), 32))
}

func uintTopic(v uint64) common.Hash {
	return common.Hash(uint256.NewInt(v).Bytes32())
}

func word(v uint64) []byte {
	b := uint256.NewInt(v).Bytes32()
	return b[:]
}

func packWords(vs ...uint64) []byte {
	var data []byte
	for _, v := range vs {
		data = append(data, word(v)...)
	}
	return data
}

func packString(s string) []byte {
	data := word(32)
	data = append(data, word(uint64(len(s)))...)
	data = append(data, common.RightPadBytes([]byte(s), (len(s)+31)/32*32)...)
	return data
}

func newLog(from dao.Address, topics []common.Hash, data []byte) *types.Log {
	return &types.Log{
		Address:     common.Address(from),
		Topics:      topics,
		Data:        data,
		BlockNumber: 100,
		TxHash:      common.HexToHash("0xc0ffee"),
		Index:       3,
	}
}

func TestDecodeStaked(t *testing.T) {
	d := NewDecoder(testContracts)
	user := dao.MustParseAddress("0x00000000000000000000000000000000000000aa")

	t.Run("current", func(t *testing.T) {
		lg := newLog(testContracts.Pool,
			[]common.Hash{sigStaked, addrTopic(user)},
			packWords(1000, 900, 5, 950, 10000, 11000))
		ev, err := d.Decode(lg, 1600000000)
		require.NoError(t, err)
		require.NotNil(t, ev)

		p, ok := ev.Payload.(*Staked)
		require.True(t, ok)
		assert.Equal(t, user, p.User)
		assert.Equal(t, uint64(1000), p.Amount.Uint64())
		assert.Equal(t, uint64(900), p.MintedShares.Uint64())
		assert.Equal(t, uint64(10000), p.TotalShares.Uint64())
		assert.Equal(t, uint64(11000), p.TotalStake.Uint64())
		assert.Equal(t, uint64(1600000000), ev.Time)
		assert.Equal(t, uint64(100), ev.BlockNumber)
		assert.Equal(t, uint(3), ev.LogIndex)
	})

	t.Run("legacy", func(t *testing.T) {
		lg := newLog(testContracts.Pool,
			[]common.Hash{sigStakedV0, addrTopic(user)},
			packWords(1000, 900))
		ev, err := d.Decode(lg, 1600000000)
		require.NoError(t, err)
		require.NotNil(t, ev)

		p := ev.Payload.(*Staked)
		assert.Equal(t, uint64(1000), p.Amount.Uint64())
		assert.Nil(t, p.TotalShares)
		assert.Nil(t, p.TotalStake)
		assert.Nil(t, p.UserShares)
	})

	t.Run("truncated data", func(t *testing.T) {
		lg := newLog(testContracts.Pool,
			[]common.Hash{sigStaked, addrTopic(user)},
			packWords(1000))
		_, err := d.Decode(lg, 0)
		assert.ErrorContains(t, err, "Staked")
	})
}

func TestDecodeDelegated(t *testing.T) {
	d := NewDecoder(testContracts)
	from := dao.MustParseAddress("0x00000000000000000000000000000000000000aa")
	to := dao.MustParseAddress("0x00000000000000000000000000000000000000bb")

	lg := newLog(testContracts.Pool,
		[]common.Hash{sigDelegated, addrTopic(from), addrTopic(to)},
		packWords(500, 700))
	ev, err := d.Decode(lg, 10)
	require.NoError(t, err)
	p := ev.Payload.(*Delegated)
	assert.Equal(t, from, p.From)
	assert.Equal(t, to, p.To)
	assert.Equal(t, uint64(500), p.Shares.Uint64())
	assert.Equal(t, uint64(700), p.TotalDelegatedTo.Uint64())
	assert.Equal(t, []dao.Address{from, to}, p.Touched())

	// missing delegate topic
	lg = newLog(testContracts.Pool,
		[]common.Hash{sigDelegated, addrTopic(from)},
		packWords(500, 700))
	_, err = d.Decode(lg, 10)
	assert.ErrorContains(t, err, "topic")
}

func TestDecodeMintedReward(t *testing.T) {
	d := NewDecoder(testContracts)

	lg := newLog(testContracts.Pool,
		[]common.Hash{sigMintedReward, uintTopic(12)},
		packWords(3000, 0, 90000))
	ev, err := d.Decode(lg, 10)
	require.NoError(t, err)
	p := ev.Payload.(*MintedReward)
	assert.Equal(t, uint64(12), p.EpochIndex)
	assert.Equal(t, uint64(3000), p.Amount.Uint64())
	assert.Equal(t, uint64(90000), p.TotalStake.Uint64())

	lg = newLog(testContracts.Pool,
		[]common.Hash{sigMintedRewardV0, uintTopic(12)},
		packWords(3000, 0))
	ev, err = d.Decode(lg, 10)
	require.NoError(t, err)
	assert.Nil(t, ev.Payload.(*MintedReward).TotalStake)
}

func TestDecodeVoting(t *testing.T) {
	d := NewDecoder(testContracts)
	creator := dao.MustParseAddress("0x00000000000000000000000000000000000000cc")

	t.Run("start vote", func(t *testing.T) {
		lg := newLog(testContracts.SecondaryVoting,
			[]common.Hash{sigStartVote, uintTopic(7), addrTopic(creator)},
			packString("ipfs|Qm123|Raise grant budget|More grants"))
		ev, err := d.Decode(lg, 10)
		require.NoError(t, err)

		p := ev.Payload.(*StartVote)
		assert.Equal(t, dao.VotingRef{Agent: dao.AgentSecondary, ID: 7}, p.Ref)
		assert.Equal(t, creator, p.Creator)
		assert.Equal(t, "ipfs|Qm123|Raise grant budget|More grants", p.Metadata)

		key, ok := ev.VotingKey()
		require.True(t, ok)
		assert.Equal(t, p.Ref.Key(), key)
	})

	t.Run("cast vote", func(t *testing.T) {
		lg := newLog(testContracts.PrimaryVoting,
			[]common.Hash{sigCastVote, uintTopic(7), addrTopic(creator)},
			packWords(1, 12345))
		ev, err := d.Decode(lg, 10)
		require.NoError(t, err)

		p := ev.Payload.(*CastVote)
		assert.Equal(t, dao.AgentPrimary, p.Ref.Agent)
		assert.True(t, p.Supports)
		assert.Equal(t, uint64(12345), p.Stake.Uint64())
	})

	t.Run("execute vote", func(t *testing.T) {
		lg := newLog(testContracts.PrimaryVoting,
			[]common.Hash{sigExecuteVote, uintTopic(7)}, nil)
		ev, err := d.Decode(lg, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), ev.Payload.(*ExecuteVote).Ref.ID)
	})

	t.Run("pool event signatures are not voting events", func(t *testing.T) {
		lg := newLog(testContracts.PrimaryVoting,
			[]common.Hash{sigStaked, addrTopic(creator)},
			packWords(1, 2, 3, 4, 5, 6))
		ev, err := d.Decode(lg, 10)
		require.NoError(t, err)
		assert.Nil(t, ev)
	})
}

func TestDecodeUnknownTopic(t *testing.T) {
	d := NewDecoder(testContracts)

	lg := newLog(testContracts.Pool,
		[]common.Hash{common.HexToHash("0xdeadbeef")},
		packWords(1))
	ev, err := d.Decode(lg, 10)
	require.NoError(t, err)
	assert.Nil(t, ev)

	// no topics at all
	ev, err = d.Decode(newLog(testContracts.Pool, nil, nil), 10)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDecodeVestingDeposits(t *testing.T) {
	d := NewDecoder(testContracts)
	user := dao.MustParseAddress("0x00000000000000000000000000000000000000aa")

	lg := newLog(testContracts.Pool,
		[]common.Hash{sigDepositedVesting, addrTopic(user)},
		packWords(1000, 1600000000, 1700000000, 0, 1000))
	ev, err := d.Decode(lg, 10)
	require.NoError(t, err)
	p := ev.Payload.(*DepositedVesting)
	assert.Equal(t, uint64(1600000000), p.Start)
	assert.Equal(t, uint64(1700000000), p.End)
	assert.Equal(t, uint64(1000), p.UserVesting.Uint64())

	lg = newLog(testContracts.Timelock,
		[]common.Hash{sigDepositedByTM, addrTopic(user)},
		packWords(2000, 0))
	ev, err = d.Decode(lg, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), ev.Payload.(*DepositedByTimelockManager).Amount.Uint64())
}

func TestDecoderAddresses(t *testing.T) {
	d := NewDecoder(testContracts)
	assert.Len(t, d.Addresses(), 4)
	assert.Contains(t, d.Addresses(), common.Address(testContracts.Pool))
}
