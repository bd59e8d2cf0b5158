// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logstore caches raw contract logs in sqlite so restarts replay
// from disk instead of re-scanning the chain.
package logstore

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	sqlite3 "github.com/mattn/go-sqlite3"
)

var logger = log.New("pkg", "logstore")

const schema = `
create table if not exists log (
	blockNumber integer not null,
	logIndex integer not null,
	blockTime integer not null,
	txHash blob(32),
	address blob(20),
	topic0 blob(32),
	topic1 blob(32),
	topic2 blob(32),
	topic3 blob(32),
	data blob,
	primary key (blockNumber, logIndex)
);

CREATE INDEX if not exists addressIndex on log(address);
CREATE INDEX if not exists topicIndex0 on log(topic0);

create table if not exists scan_meta (
	key text primary key,
	value integer not null
);
`

const nextBlockKey = "next_block"

// Entry is one cached log with its resolved block time. Only the fields
// the event fold needs are kept.
type Entry struct {
	Log       types.Log
	BlockTime uint64
}

// Store is the on-disk log cache.
type Store struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens a log cache at the given path.
func New(path string) (store *Store, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if store == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("log cache opened", "path", path, "sqlite", driverVer)
	return &Store{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem creates a log cache in ram.
func NewMem() (*Store, error) {
	return New(":memory:")
}

// Close closes the cache.
func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// Put writes one scanned batch and moves the watermark in a single
// transaction, so a crash never leaves cached logs past the watermark or
// the other way round. An empty batch just advances the watermark.
func (s *Store) Put(entries []Entry, nextBlock uint64) error {
	return s.execInTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			"INSERT OR REPLACE INTO log(blockNumber, logIndex, blockTime, txHash, address, topic0, topic1, topic2, topic3, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range entries {
			e := &entries[i]
			if _, err := stmt.Exec(
				e.Log.BlockNumber,
				e.Log.Index,
				e.BlockTime,
				e.Log.TxHash.Bytes(),
				e.Log.Address.Bytes(),
				topicValue(e.Log.Topics, 0),
				topicValue(e.Log.Topics, 1),
				topicValue(e.Log.Topics, 2),
				topicValue(e.Log.Topics, 3),
				e.Log.Data,
			); err != nil {
				return err
			}
		}
		_, err = tx.Exec("INSERT OR REPLACE INTO scan_meta(key, value) VALUES (?, ?);", nextBlockKey, nextBlock)
		return err
	})
}

// NextBlock returns the first block not yet scanned. A fresh cache
// returns 0.
func (s *Store) NextBlock() (uint64, error) {
	var next uint64
	err := s.db.QueryRow("SELECT value FROM scan_meta WHERE key = ?", nextBlockKey).Scan(&next)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Count returns the number of cached logs.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM log").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Iterate streams all cached logs in chain order.
func (s *Store) Iterate(ctx context.Context, fn func(*Entry) error) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT blockNumber, logIndex, blockTime, txHash, address, topic0, topic1, topic2, topic3, data FROM log ORDER BY blockNumber ASC, logIndex ASC")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var (
			blockNumber uint64
			index       uint
			blockTime   uint64
			txHash      []byte
			address     []byte
			topics      [4][]byte
			data        []byte
		)
		if err := rows.Scan(
			&blockNumber,
			&index,
			&blockTime,
			&txHash,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&data,
		); err != nil {
			return err
		}
		entry := &Entry{
			Log: types.Log{
				Address:     common.BytesToAddress(address),
				Data:        data,
				BlockNumber: blockNumber,
				TxHash:      common.BytesToHash(txHash),
				Index:       index,
			},
			BlockTime: blockTime,
		}
		for _, topic := range topics {
			if len(topic) > 0 {
				entry.Log.Topics = append(entry.Log.Topics, common.BytesToHash(topic))
			}
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func topicValue(topics []common.Hash, i int) []byte {
	if i >= len(topics) {
		return nil
	}
	return topics[i].Bytes()
}
