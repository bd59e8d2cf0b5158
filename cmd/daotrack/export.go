// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/log"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/daotrack/daotrack/events"
	"github.com/daotrack/daotrack/scanner"
)

// exportAction decodes the whole tracked range, cached logs first, to
// NDJSON on stdout. Logging stays on stderr so the stream pipes clean.
func exportAction(ctx *cli.Context) error {
	initLogger(ctx)
	depl := loadDeployment(ctx)
	dataDir := makeDataDir(ctx, depl.ChainID)

	store := openLogStore(dataDir)
	defer store.Close()

	client := dialEndpoint(ctx)
	defer client.Close()

	sc := scanner.New(client, store, scanner.Config{
		ChainID:       depl.ChainID,
		Contracts:     depl.Contracts,
		StartBlock:    depl.StartBlock,
		BatchSize:     ctx.Uint64(batchSizeFlag.Name),
		Confirmations: ctx.Uint64(confirmationsFlag.Name),
		Quiet:         true,
	})

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	var count int64
	next, err := sc.ScanToHead(handleExitSignal(), sinkFunc(func(ev *events.Event) error {
		count++
		return enc.Encode(ev)
	}))
	if err != nil {
		return err
	}

	log.Info("export complete", "events", count, "next", next)
	return nil
}

// sinkFunc adapts a plain function to the scanner's sink.
type sinkFunc func(ev *events.Event) error

func (f sinkFunc) Apply(ev *events.Event) error { return f(ev) }
