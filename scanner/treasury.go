// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scanner

import (
	"context"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/tracker"
)

var selectorBalanceOf = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

// pollTreasuries reads every configured token balance of every configured
// treasury and writes the sheets into the tracker. Individual read failures
// drop that token from the sheet until the next round.
func (s *Scanner) pollTreasuries(ctx context.Context, tr *tracker.Tracker) {
	if len(s.cfg.Treasuries) == 0 || len(s.cfg.Tokens) == 0 {
		return
	}
	now := uint64(time.Now().Unix())
	for name, treasury := range s.cfg.Treasuries {
		balances := make(map[string]*dao.Amount, len(s.cfg.Tokens))
		for sym, token := range s.cfg.Tokens {
			balance, err := s.tokenBalance(ctx, token, treasury)
			if err != nil {
				logger.Warn("treasury balance read failed",
					"treasury", name, "token", sym, "err", err)
				continue
			}
			balances[sym] = balance
		}
		if len(balances) == 0 {
			continue
		}
		tr.UpdateTreasury(name, treasury, balances, now)
		logger.Debug("treasury updated", "treasury", name, "tokens", len(balances))
	}
}

// tokenBalance calls balanceOf(holder) on an ERC-20 token at the latest
// block.
func (s *Scanner) tokenBalance(ctx context.Context, token, holder dao.Address) (*dao.Amount, error) {
	data := make([]byte, 0, 36)
	data = append(data, selectorBalanceOf...)
	var arg [32]byte
	copy(arg[12:], holder[:])
	data = append(data, arg[:]...)

	to := common.Address(token)
	out, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) != 32 {
		return nil, errors.Errorf("balanceOf returned %d bytes", len(out))
	}
	return dao.BytesToAmount(out), nil
}
