// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

// Constants of the tracked DAO.
const (
	// SchemaVersion tags the snapshot layout. Bump when the materialized
	// state shape changes.
	SchemaVersion = "20210820"

	// GenesisEpochIndex is the index the first reward distribution mints.
	GenesisEpochIndex uint64 = 1

	// InitialAPR is the pool's annual percentage rate before the first
	// distribution reports one.
	InitialAPR = 0.3875

	// DefaultTokenDecimals applies to the governance token.
	DefaultTokenDecimals = 18

	// APRScale converts the on-chain scaled APR integer to a ratio.
	APRScale = 1e18
)
