// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import "github.com/daotrack/daotrack/dao"

// Treasury is the polled token balance sheet of one DAO-controlled wallet.
// Balances come from direct contract calls, not from the event stream.
type Treasury struct {
	Name      string                 `json:"name"`
	Address   dao.Address            `json:"address"`
	Balances  map[string]*dao.Amount `json:"balances"`
	UpdatedAt uint64                 `json:"updated_at"`
}

// Clone returns an independent deep copy.
func (t *Treasury) Clone() *Treasury {
	c := *t
	c.Balances = cloneAmountMap(t.Balances)
	return &c
}

func (s *State) updateTreasury(name string, addr dao.Address, balances map[string]*dao.Amount, tm uint64) {
	s.Treasuries[name] = &Treasury{
		Name:      name,
		Address:   addr,
		Balances:  cloneAmountMap(balances),
		UpdatedAt: tm,
	}
}
