// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

// deployment describes one tracked DAO: the contracts, the block they
// appeared at, and the treasuries and tokens to watch.
type deployment struct {
	ChainID    uint64
	StartBlock uint64
	Contracts  events.Contracts
	Treasuries map[string]dao.Address
	Tokens     map[string]dao.Address
	Decimals   map[string]uint8
	Vesting    []dao.Address
}

type rawDeployment struct {
	ChainID    uint64 `yaml:"chain_id"`
	StartBlock uint64 `yaml:"start_block"`
	Contracts  struct {
		Pool            string `yaml:"pool"`
		PrimaryVoting   string `yaml:"primary_voting"`
		SecondaryVoting string `yaml:"secondary_voting"`
		Timelock        string `yaml:"timelock"`
	} `yaml:"contracts"`
	Treasuries map[string]string   `yaml:"treasuries"`
	Tokens     map[string]rawToken `yaml:"tokens"`
	Vesting    []string            `yaml:"vesting"`
}

type rawToken struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// parseDeployment decodes a YAML deployment file. Unknown fields are
// rejected, they are almost always typos.
func parseDeployment(r io.Reader) (*deployment, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw rawDeployment
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode deployment")
	}
	if raw.ChainID == 0 {
		return nil, errors.New("chain_id required")
	}

	d := &deployment{
		ChainID:    raw.ChainID,
		StartBlock: raw.StartBlock,
		Treasuries: make(map[string]dao.Address, len(raw.Treasuries)),
		Tokens:     make(map[string]dao.Address, len(raw.Tokens)),
		Decimals:   make(map[string]uint8, len(raw.Tokens)),
	}

	var err error
	if d.Contracts.Pool, err = parseAddr("contracts.pool", raw.Contracts.Pool); err != nil {
		return nil, err
	}
	if d.Contracts.PrimaryVoting, err = parseAddr("contracts.primary_voting", raw.Contracts.PrimaryVoting); err != nil {
		return nil, err
	}
	if d.Contracts.SecondaryVoting, err = parseAddr("contracts.secondary_voting", raw.Contracts.SecondaryVoting); err != nil {
		return nil, err
	}
	if d.Contracts.Timelock, err = parseAddr("contracts.timelock", raw.Contracts.Timelock); err != nil {
		return nil, err
	}

	for name, s := range raw.Treasuries {
		addr, err := parseAddr("treasuries."+name, s)
		if err != nil {
			return nil, err
		}
		d.Treasuries[name] = addr
	}
	for sym, tok := range raw.Tokens {
		addr, err := parseAddr("tokens."+sym, tok.Address)
		if err != nil {
			return nil, err
		}
		d.Tokens[sym] = addr
		// Zero means unspecified. A real zero-decimals token has no
		// place in a DAO treasury.
		if tok.Decimals == 0 {
			d.Decimals[sym] = dao.DefaultTokenDecimals
		} else {
			d.Decimals[sym] = tok.Decimals
		}
	}
	for i, s := range raw.Vesting {
		addr, err := parseAddr(fmt.Sprintf("vesting[%d]", i), s)
		if err != nil {
			return nil, err
		}
		d.Vesting = append(d.Vesting, addr)
	}
	return d, nil
}

func parseAddr(field, s string) (dao.Address, error) {
	if s == "" {
		return dao.Address{}, errors.Errorf("%s: address required", field)
	}
	addr, err := dao.ParseAddress(s)
	if err != nil {
		return dao.Address{}, errors.Wrap(err, field)
	}
	return *addr, nil
}
