// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
)

func testEvent(block uint64) *events.Event {
	var user dao.Address
	user[19] = 0xa
	return &events.Event{
		Payload: &events.Staked{
			User:         user,
			Amount:       dao.NewAmount(1000),
			MintedShares: dao.NewAmount(1000),
		},
		Time:        1_600_000_000 + block,
		BlockNumber: block,
	}
}

func TestPublishFanout(t *testing.T) {
	hub := NewHub()
	s1 := hub.register()
	s2 := hub.register()
	require.Equal(t, 2, hub.Online())

	hub.Publish(testEvent(5))

	for _, sub := range []*subscriber{s1, s2} {
		select {
		case <-sub.wake:
		default:
			t.Fatalf("subscriber %d not woken", sub.id)
		}
		msgs := sub.drain()
		require.Len(t, msgs, 1)

		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(msgs[0], &envelope))
		assert.Equal(t, "Staked", envelope["name"])
		assert.Equal(t, float64(5), envelope["block_number"])
	}
}

func TestQueueKeepsOrder(t *testing.T) {
	hub := NewHub()
	sub := hub.register()

	for i := uint64(1); i <= 3; i++ {
		hub.Publish(testEvent(i))
	}

	msgs := sub.drain()
	require.Len(t, msgs, 3)
	for i, msg := range msgs {
		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		assert.Equal(t, float64(i+1), envelope["block_number"])
	}
	assert.Empty(t, sub.drain())
}

func TestUnregister(t *testing.T) {
	hub := NewHub()
	s1 := hub.register()
	s2 := hub.register()

	online := hub.unregister(s1.id)
	assert.Equal(t, 1, online)
	assert.Equal(t, 1, hub.Online())

	hub.Publish(testEvent(1))
	assert.Empty(t, s1.drain())
	assert.Len(t, s2.drain(), 1)
}

func TestCloseIdempotent(t *testing.T) {
	hub := NewHub()
	hub.Close()
	hub.Close()

	select {
	case <-hub.done:
	default:
		t.Fatal("done channel still open")
	}
}
