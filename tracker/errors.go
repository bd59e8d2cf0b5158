// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import "github.com/pkg/errors"

// Desync errors. Each one means the event stream claims something the
// materialized ledger disagrees with.
var (
	// ErrUnknownAccount an operation references an account the ledger has
	// never materialized.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrInsufficientShares an event claims more shares than the ledger
	// records for the account.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrDelegationMismatch an undelegation names a target that does not
	// match the recorded delegation.
	ErrDelegationMismatch = errors.New("delegation mismatch")
)
