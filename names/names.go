// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package names reverse-resolves account addresses to ENS names. Results,
// including misses, are cached on disk so restarts do not repeat lookups.
package names

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/daotrack/daotrack/dao"
)

var logger = log.New("pkg", "names")

// Resolver annotates addresses with display names. ok is false when the
// address has no name.
type Resolver interface {
	Resolve(ctx context.Context, addr dao.Address) (name string, ok bool)
}

// Client is the read-only chain access the resolver needs.
type Client interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// The ENS registry lives at the same address on mainnet and the public
// testnets.
var registryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	selectorResolver = crypto.Keccak256([]byte("resolver(bytes32)"))[:4]
	selectorName     = crypto.Keccak256([]byte("name(bytes32)"))[:4]
)

const memCacheSize = 4096

var (
	readOpt  = opt.ReadOptions{}
	writeOpt = opt.WriteOptions{}
)

// ENS resolves reverse records through the registry. Every answer, empty
// ones included, is written through to a level db cache; lookup errors are
// not cached and will be retried.
type ENS struct {
	client Client
	db     *leveldb.DB
	mem    *lru.Cache
}

// New opens or creates the persistent name cache at path.
func New(client Client, path string) (*ENS, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open name cache")
	}
	return openENS(client, stg)
}

// NewMem keeps the cache in memory only.
func NewMem(client Client) (*ENS, error) {
	return openENS(client, storage.NewMemStorage())
}

func openENS(client Client, stg storage.Storage) (*ENS, error) {
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: 16,
		BlockCacheCapacity:     8 * opt.MiB,
		WriteBuffer:            4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open name cache")
	}
	mem, _ := lru.New(memCacheSize)
	return &ENS{client: client, db: db, mem: mem}, nil
}

// Close closes the cache. Later lookups will fail.
func (e *ENS) Close() error {
	return e.db.Close()
}

// Resolve implements Resolver.
func (e *ENS) Resolve(ctx context.Context, addr dao.Address) (string, bool) {
	if v, ok := e.mem.Get(addr); ok {
		name := v.(string)
		return name, name != ""
	}
	if val, err := e.db.Get(addr[:], &readOpt); err == nil {
		name := string(val)
		e.mem.Add(addr, name)
		return name, name != ""
	} else if err != leveldb.ErrNotFound {
		logger.Warn("name cache read failed", "err", err)
	}

	name, err := e.lookup(ctx, addr)
	if err != nil {
		logger.Debug("reverse lookup failed", "address", addr, "err", err)
		return "", false
	}
	if err := e.db.Put(addr[:], []byte(name), &writeOpt); err != nil {
		logger.Warn("name cache write failed", "err", err)
	}
	e.mem.Add(addr, name)
	if name != "" {
		logger.Debug("resolved name", "address", addr, "name", name)
	}
	return name, name != ""
}

// lookup walks registry -> resolver -> name. The forward check is skipped,
// a reverse record is trusted as-is.
func (e *ENS) lookup(ctx context.Context, addr dao.Address) (string, error) {
	node := reverseNode(addr)

	out, err := e.call(ctx, registryAddress, selectorResolver, node)
	if err != nil {
		return "", errors.Wrap(err, "registry resolver")
	}
	if len(out) != 32 {
		return "", errors.Errorf("resolver answer has %d bytes, want 32", len(out))
	}
	var resolver common.Address
	copy(resolver[:], out[12:])
	if resolver == (common.Address{}) {
		return "", nil
	}

	out, err = e.call(ctx, resolver, selectorName, node)
	if err != nil {
		return "", errors.Wrap(err, "resolver name")
	}
	if len(out) == 0 {
		return "", nil
	}
	return unpackString(out)
}

func (e *ENS) call(ctx context.Context, to common.Address, selector []byte, node common.Hash) ([]byte, error) {
	data := make([]byte, 0, 36)
	data = append(data, selector...)
	data = append(data, node[:]...)
	return e.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// reverseNode is the namehash of "<address-hex>.addr.reverse".
func reverseNode(addr dao.Address) common.Hash {
	return namehash(hex.EncodeToString(addr[:]) + ".addr.reverse")
}

func namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node[:], label[:])
	}
	return node
}

func unpackString(out []byte) (string, error) {
	if len(out) < 64 {
		return "", errors.New("string answer too short")
	}
	offset, overflow := dao.BytesToAmount(out[:32]).Uint64WithOverflow()
	olen := uint64(len(out))
	if overflow || offset >= olen || olen-offset < 32 {
		return "", errors.New("string offset out of range")
	}
	length, overflow := dao.BytesToAmount(out[offset : offset+32]).Uint64WithOverflow()
	if overflow || olen-offset-32 < length {
		return "", errors.New("string length out of range")
	}
	return string(out[offset+32 : offset+32+length]), nil
}
