// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package names

import (
	"bytes"
	"context"
	"math/big"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daotrack/daotrack/dao"
)

type fakeChain struct {
	mu      sync.Mutex
	calls   int
	answers map[common.Address]func(data []byte) ([]byte, error)
}

func (c *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if fn, ok := c.answers[*msg.To]; ok {
		return fn(msg.Data)
	}
	return nil, errors.New("unknown contract")
}

func (c *fakeChain) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func naddr(b byte) dao.Address {
	var a dao.Address
	a[19] = b
	return a
}

func addrWord(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a[:])
	return out
}

func abiString(s string) []byte {
	out := make([]byte, 64+(len(s)+31)/32*32)
	out[31] = 0x20
	out[63] = byte(len(s))
	copy(out[64:], s)
	return out
}

func TestNamehash(t *testing.T) {
	assert.Equal(t, common.Hash{}, namehash(""))
	assert.Equal(t,
		common.HexToHash("0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"),
		namehash("eth"))
	assert.Equal(t,
		common.HexToHash("0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"),
		namehash("foo.eth"))
}

func TestResolve(t *testing.T) {
	user := naddr(0xa)
	resolver := common.HexToAddress("0x0000000000000000000000000000000000000005")
	node := reverseNode(user)

	chain := &fakeChain{answers: map[common.Address]func([]byte) ([]byte, error){
		registryAddress: func(data []byte) ([]byte, error) {
			require.True(t, bytes.HasPrefix(data, selectorResolver))
			require.Equal(t, node[:], data[4:])
			return addrWord(resolver), nil
		},
		resolver: func(data []byte) ([]byte, error) {
			require.True(t, bytes.HasPrefix(data, selectorName))
			require.Equal(t, node[:], data[4:])
			return abiString("alice.eth"), nil
		},
	}}

	e, err := NewMem(chain)
	require.NoError(t, err)
	defer e.Close()

	name, ok := e.Resolve(context.Background(), user)
	assert.True(t, ok)
	assert.Equal(t, "alice.eth", name)
	assert.Equal(t, 2, chain.callCount())

	// cached, no further chain traffic
	name, ok = e.Resolve(context.Background(), user)
	assert.True(t, ok)
	assert.Equal(t, "alice.eth", name)
	assert.Equal(t, 2, chain.callCount())
}

func TestResolveNoRecord(t *testing.T) {
	chain := &fakeChain{answers: map[common.Address]func([]byte) ([]byte, error){
		registryAddress: func([]byte) ([]byte, error) {
			return make([]byte, 32), nil
		},
	}}

	e, err := NewMem(chain)
	require.NoError(t, err)
	defer e.Close()

	name, ok := e.Resolve(context.Background(), naddr(0xb))
	assert.False(t, ok)
	assert.Empty(t, name)
	assert.Equal(t, 1, chain.callCount())

	// the miss is cached too
	_, ok = e.Resolve(context.Background(), naddr(0xb))
	assert.False(t, ok)
	assert.Equal(t, 1, chain.callCount())
}

func TestResolveErrorNotCached(t *testing.T) {
	chain := &fakeChain{answers: map[common.Address]func([]byte) ([]byte, error){
		registryAddress: func([]byte) ([]byte, error) {
			return nil, errors.New("node down")
		},
	}}

	e, err := NewMem(chain)
	require.NoError(t, err)
	defer e.Close()

	_, ok := e.Resolve(context.Background(), naddr(0xc))
	assert.False(t, ok)
	_, ok = e.Resolve(context.Background(), naddr(0xc))
	assert.False(t, ok)
	assert.Equal(t, 2, chain.callCount())
}

func TestResolvePersists(t *testing.T) {
	user := naddr(0xd)
	resolver := common.HexToAddress("0x0000000000000000000000000000000000000005")
	chain := &fakeChain{answers: map[common.Address]func([]byte) ([]byte, error){
		registryAddress: func([]byte) ([]byte, error) { return addrWord(resolver), nil },
		resolver:        func([]byte) ([]byte, error) { return abiString("bob.eth"), nil },
	}}

	dir := t.TempDir()
	e, err := New(chain, dir)
	require.NoError(t, err)
	name, ok := e.Resolve(context.Background(), user)
	require.True(t, ok)
	require.Equal(t, "bob.eth", name)
	require.NoError(t, e.Close())

	// reopen against a dead node, the answer must come from disk
	dead := &fakeChain{}
	e, err = New(dead, dir)
	require.NoError(t, err)
	defer e.Close()

	name, ok = e.Resolve(context.Background(), user)
	assert.True(t, ok)
	assert.Equal(t, "bob.eth", name)
	assert.Zero(t, dead.callCount())
}
