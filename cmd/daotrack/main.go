// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/daotrack/daotrack/api"
	"github.com/daotrack/daotrack/api/subscriptions"
	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/metrics"
	"github.com/daotrack/daotrack/names"
	"github.com/daotrack/daotrack/scanner"
	"github.com/daotrack/daotrack/tracker"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

const nameRefreshInterval = 10 * time.Minute

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Daotrack",
		Usage:     "DAO on-chain event tracker",
		Copyright: "2021 The Daotrack developers",
		Flags: []cli.Flag{
			endpointFlag,
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			confirmationsFlag,
			batchSizeFlag,
			pollIntervalFlag,
			treasuryIntervalFlag,
			noENSFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "export",
				Usage: "decode the tracked contract logs to NDJSON on stdout",
				Flags: []cli.Flag{
					endpointFlag,
					configFlag,
					dataDirFlag,
					verbosityFlag,
					confirmationsFlag,
					batchSizeFlag,
				},
				Action: exportAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)
	depl := loadDeployment(ctx)
	dataDir := makeDataDir(ctx, depl.ChainID)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeMetrics := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		defer func() { log.Info("stopping metrics server..."); closeMetrics() }()
		log.Info("metrics server started", "url", url)
	}

	store := openLogStore(dataDir)
	defer func() { log.Info("closing log cache..."); store.Close() }()

	client := dialEndpoint(ctx)
	defer client.Close()

	tr := tracker.New(tracker.Config{
		ChainID:  depl.ChainID,
		Decimals: depl.Decimals,
		Policy:   tracker.HaltOnDesync,
	})

	var resolver names.Resolver
	if !ctx.Bool(noENSFlag.Name) {
		ens := openNames(client, dataDir)
		defer func() { log.Info("closing name cache..."); ens.Close() }()
		resolver = ens
	}

	hub := subscriptions.NewHub()
	handler, closeAPI := api.New(tr, hub, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	apiURL, closeServer := startAPIServer(ctx, handler)
	defer func() { log.Info("stopping API server..."); closeServer(); closeAPI() }()

	sc := scanner.New(client, store, scanner.Config{
		ChainID:          depl.ChainID,
		Contracts:        depl.Contracts,
		StartBlock:       depl.StartBlock,
		BatchSize:        ctx.Uint64(batchSizeFlag.Name),
		Confirmations:    ctx.Uint64(confirmationsFlag.Name),
		PollInterval:     ctx.Duration(pollIntervalFlag.Name),
		VestingAddresses: depl.Vesting,
		Treasuries:       depl.Treasuries,
		Tokens:           depl.Tokens,
		TreasuryEvery:    ctx.Duration(treasuryIntervalFlag.Name),
		OnEvent:          hub.Publish,
	})

	printStartupMessage(depl, dataDir, apiURL)

	goes, gctx := errgroup.WithContext(handleExitSignal())
	goes.Go(func() error {
		return sc.Run(gctx, tr)
	})
	if resolver != nil {
		goes.Go(func() error {
			refreshNames(gctx, tr, resolver)
			return nil
		})
	}

	if err := goes.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// refreshNames annotates accounts with their ENS names once the
// historical scan is done, then keeps polling for accounts the live feed
// adds. Known misses are answered from the resolver's cache.
func refreshNames(ctx context.Context, tr *tracker.Tracker, resolver names.Resolver) {
	const batch = 256

	for !tr.Ready() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}

	resolve := func() {
		pending := tr.UnnamedAccounts(batch)
		if len(pending) == 0 {
			return
		}
		found := make(map[dao.Address]string)
		for _, addr := range pending {
			if ctx.Err() != nil {
				return
			}
			if name, ok := resolver.Resolve(ctx, addr); ok {
				found[addr] = name
			}
		}
		if len(found) > 0 {
			tr.SetNames(found)
			log.Info("resolved account names", "count", len(found))
		}
	}

	resolve()
	ticker := time.NewTicker(nameRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resolve()
		}
	}
}

func printStartupMessage(depl *deployment, dataDir, apiURL string) {
	fmt.Printf(`Starting %v
    Chain       [ %v ]
    Pool        [ %v ]
    Start block [ %v ]
    Data dir    [ %v ]
    API portal  [ %v ]
`,
		common.MakeName("Daotrack", fullVersion()),
		depl.ChainID,
		depl.Contracts.Pool,
		depl.StartBlock,
		dataDir,
		apiURL)
}
