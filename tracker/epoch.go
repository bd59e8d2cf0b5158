// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import (
	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

// Epoch is the record of one reward distribution.
type Epoch struct {
	Index uint64 `json:"index"`

	// APR is the rate that was in effect when this epoch minted, i.e. the
	// value before the distribution updated it.
	APR float64 `json:"apr"`

	Minted *dao.Amount `json:"minted"`

	// Total is the stake basis rewards were divided over.
	Total *dao.Amount `json:"total"`

	// Stake snapshots each account's staked+rewards balance at
	// distribution time. Zero balances are not recorded.
	Stake map[dao.Address]*dao.Amount `json:"stake"`

	Time        uint64   `json:"tm"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      dao.Hash `json:"tx"`
}

// Clone returns an independent deep copy.
func (e *Epoch) Clone() *Epoch {
	c := *e
	c.Minted = dao.CloneAmount(e.Minted)
	c.Total = dao.CloneAmount(e.Total)
	c.Stake = cloneAmountMap(e.Stake)
	return &c
}

// distribute applies a MintedReward event: snapshot stakes, record the
// epoch, credit every staker its floor share of the mint, then advance the
// epoch counter and the APR.
func (s *State) distribute(p *events.MintedReward, ev *events.Event) {
	stake := make(map[dao.Address]*dao.Amount)
	for addr, a := range s.Accounts {
		base := new(dao.Amount).Add(a.Staked, a.Rewards)
		if !base.IsZero() {
			stake[addr] = base
		}
	}

	// The event's pool total, when present, includes the freshly minted
	// reward; subtract it to get the pre-mint basis. A reported total
	// smaller than the mint cannot be right, fall back to the snapshot sum.
	var total *dao.Amount
	if p.TotalStake != nil {
		var underflow bool
		total, underflow = new(dao.Amount).SubOverflow(p.TotalStake, p.Amount)
		if underflow {
			logger.Warn("reported total stake below minted amount",
				"epoch", p.EpochIndex, "total", p.TotalStake, "minted", p.Amount)
			total = nil
		}
	}
	if total == nil {
		total = dao.ZeroAmount()
		for _, base := range stake {
			total.Add(total, base)
		}
	}

	s.Epochs[p.EpochIndex] = &Epoch{
		Index:       p.EpochIndex,
		APR:         s.APR,
		Minted:      dao.CloneAmount(p.Amount),
		Total:       total,
		Stake:       stake,
		Time:        ev.Time,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
	}

	// Floor division; the remainder stays unminted dust, strictly less
	// than one unit per credited account.
	for addr, base := range stake {
		credit := new(dao.Amount).Mul(base, p.Amount)
		credit.Div(credit, total)
		a := s.Accounts[addr]
		a.Rewards.Add(a.Rewards, credit)
	}

	s.EpochIndex = p.EpochIndex + 1
	s.APR = dao.AmountToFloat(p.NewAPR) / dao.APRScale
}
