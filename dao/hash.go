// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Hash a 32 byte hash, transaction id or log topic.
type Hash common.Hash

// String implements the stringer interface.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// AbbrevString returns an abbreviated string presentation.
func (h Hash) AbbrevString() string {
	return fmt.Sprintf("0x%x...%x", h[:4], h[28:])
}

// Bytes returns the byte slice form of the hash.
func (h Hash) Bytes() []byte {
	return h[:]
}

// IsZero returns whether the hash holds all zero bytes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash converts a string presented hash into Hash type.
func ParseHash(s string) (Hash, error) {
	if len(s) == 32*2 {
	} else if len(s) == 32*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return Hash{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return Hash{}, errors.New("invalid length")
	}

	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// MustParseHash convert string presented hash into Hash type, panic on error.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// BytesToHash converts a byte slice into a hash.
func BytesToHash(b []byte) Hash {
	return Hash(common.BytesToHash(b))
}
