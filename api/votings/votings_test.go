// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package votings_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daotrack/daotrack/api/votings"
	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
	"github.com/daotrack/daotrack/tracker"
)

func testAddr(b byte) dao.Address {
	var a dao.Address
	a[19] = b
	return a
}

func apply(t *testing.T, tr *tracker.Tracker, block uint64, index uint, p events.Payload) {
	t.Helper()
	require.NoError(t, tr.Apply(&events.Event{
		Payload:     p,
		Time:        1_600_000_000 + block,
		BlockNumber: block,
		TxHash:      dao.BytesToHash([]byte{byte(block)}),
		LogIndex:    index,
	}))
}

func initServer(t *testing.T) (*tracker.Tracker, *httptest.Server) {
	tr := tracker.New(tracker.Config{ChainID: 1, Policy: tracker.LogOnDesync})
	apply(t, tr, 1, 0, &events.Staked{
		User: testAddr(0xa), Amount: dao.NewAmount(600), MintedShares: dao.NewAmount(600),
	})
	apply(t, tr, 1, 1, &events.Staked{
		User: testAddr(0xb), Amount: dao.NewAmount(400), MintedShares: dao.NewAmount(400),
	})
	apply(t, tr, 2, 0, &events.StartVote{
		Ref:      dao.VotingRef{Agent: dao.AgentPrimary, ID: 1},
		Creator:  testAddr(0xa),
		Metadata: "api3|1|Fund the grants program|Quarterly budget",
	})
	apply(t, tr, 3, 0, &events.CastVote{
		Ref:      dao.VotingRef{Agent: dao.AgentPrimary, ID: 1},
		Voter:    testAddr(0xb),
		Supports: false,
		Stake:    dao.NewAmount(400),
	})
	apply(t, tr, 4, 0, &events.StartVote{
		Ref:      dao.VotingRef{Agent: dao.AgentSecondary, ID: 1},
		Creator:  testAddr(0xb),
		Metadata: "api3|1|Rotate the multisig|",
	})
	apply(t, tr, 5, 0, &events.ExecuteVote{
		Ref: dao.VotingRef{Agent: dao.AgentSecondary, ID: 1},
	})

	router := mux.NewRouter()
	votings.New(tr).Mount(router, "/votings")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return tr, ts
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res.StatusCode
}

func TestGetVotings(t *testing.T) {
	_, ts := initServer(t)

	var list votings.List
	code := getJSON(t, ts.URL+"/votings", &list)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)

	// newest first
	assert.Equal(t, "secondary-1", list.Items[0].Name)
	assert.True(t, list.Items[0].Executed)
	assert.Equal(t, "primary-1", list.Items[1].Name)
	assert.Equal(t, "Fund the grants program", list.Items[1].Title)
	assert.Equal(t, dao.NewAmount(600), list.Items[1].YesTotal)
	assert.Equal(t, dao.NewAmount(400), list.Items[1].NoTotal)
	assert.Equal(t, dao.NewAmount(1000), list.Items[1].VotesTotal)
}

func TestGetVotingsWindow(t *testing.T) {
	_, ts := initServer(t)

	var list votings.List
	code := getJSON(t, ts.URL+"/votings?limit=1&offset=1", &list)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "primary-1", list.Items[0].Name)
}

func TestGetVoting(t *testing.T) {
	_, ts := initServer(t)

	var detail map[string]interface{}
	code := getJSON(t, ts.URL+"/votings/primary-1", &detail)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "primary-1", detail["name"])
	assert.Equal(t, "Fund the grants program", detail["title"])
	assert.Equal(t, "Quarterly budget", detail["description"])
	assert.Equal(t, "600", detail["voted_yes"])
	assert.Equal(t, "400", detail["voted_no"])

	evs, ok := detail["events"].([]interface{})
	require.True(t, ok)
	require.Len(t, evs, 2)
	first := evs[0].(map[string]interface{})
	assert.Equal(t, "StartVote", first["name"])
}

func TestGetVotingNotFound(t *testing.T) {
	_, ts := initServer(t)

	var detail map[string]interface{}
	code := getJSON(t, ts.URL+"/votings/primary-99", &detail)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetVotingBadRef(t *testing.T) {
	_, ts := initServer(t)

	var detail map[string]interface{}
	code := getJSON(t, ts.URL+"/votings/tertiary-1", &detail)
	assert.Equal(t, http.StatusBadRequest, code)
}
