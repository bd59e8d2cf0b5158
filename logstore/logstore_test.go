// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(block uint64, index uint, topics int) Entry {
	e := Entry{
		Log: types.Log{
			Address:     common.BytesToAddress([]byte{0xda, 0x0}),
			Data:        []byte{byte(block), byte(index)},
			BlockNumber: block,
			TxHash:      common.BytesToHash([]byte{byte(block)}),
			Index:       index,
		},
		BlockTime: 1_600_000_000 + block,
	}
	for i := 0; i < topics; i++ {
		e.Log.Topics = append(e.Log.Topics, common.BytesToHash([]byte{byte(i + 1)}))
	}
	return e
}

func TestPutAndIterate(t *testing.T) {
	store, err := NewMem()
	require.NoError(t, err)
	defer store.Close()

	// out of order on purpose, iteration sorts
	require.NoError(t, store.Put([]Entry{
		entry(2, 0, 3),
		entry(1, 1, 2),
		entry(1, 0, 1),
	}, 3))

	var got []Entry
	require.NoError(t, store.Iterate(context.Background(), func(e *Entry) error {
		got = append(got, *e)
		return nil
	}))

	require.Len(t, got, 3)
	assert.Equal(t, entry(1, 0, 1), got[0])
	assert.Equal(t, entry(1, 1, 2), got[1])
	assert.Equal(t, entry(2, 0, 3), got[2])
}

func TestWatermark(t *testing.T) {
	store, err := NewMem()
	require.NoError(t, err)
	defer store.Close()

	next, err := store.NextBlock()
	require.NoError(t, err)
	assert.Zero(t, next)

	// an empty batch still advances the watermark
	require.NoError(t, store.Put(nil, 42))
	next, err = store.NextBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), next)

	require.NoError(t, store.Put([]Entry{entry(50, 0, 1)}, 51))
	next, err = store.NextBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(51), next)
}

func TestPutReplaces(t *testing.T) {
	store, err := NewMem()
	require.NoError(t, err)
	defer store.Close()

	first := entry(7, 0, 1)
	require.NoError(t, store.Put([]Entry{first}, 8))

	second := first
	second.Log.Data = []byte("replacement")
	require.NoError(t, store.Put([]Entry{second}, 8))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Iterate(context.Background(), func(e *Entry) error {
		assert.Equal(t, []byte("replacement"), e.Log.Data)
		return nil
	}))
}

func TestIterateCancel(t *testing.T) {
	store, err := NewMem()
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Put([]Entry{entry(1, 0, 1)}, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.Iterate(ctx, func(*Entry) error { return nil })
	assert.Error(t, err)
}

func TestIterateCallbackError(t *testing.T) {
	store, err := NewMem()
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Put([]Entry{entry(1, 0, 1), entry(2, 0, 1)}, 3))

	calls := 0
	boom := errors.New("boom")
	err = store.Iterate(context.Background(), func(*Entry) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Put([]Entry{entry(1, 0, 2)}, 2))
	store.Close()

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	next, err := store.NextBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
