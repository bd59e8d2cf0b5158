// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	endpointFlag = cli.StringFlag{
		Name:  "endpoint",
		Usage: "URL of the Ethereum RPC endpoint to scan",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the deployment file naming the tracked contracts",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the log and name caches",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8660",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	confirmationsFlag = cli.Uint64Flag{
		Name:  "confirmations",
		Value: 12,
		Usage: "blocks to lag behind the chain head",
	}
	batchSizeFlag = cli.Uint64Flag{
		Name:  "batch-size",
		Value: 2048,
		Usage: "widest block range per log request",
	}
	pollIntervalFlag = cli.DurationFlag{
		Name:  "poll-interval",
		Value: 13 * time.Second,
		Usage: "how often to poll the chain head in live mode",
	}
	treasuryIntervalFlag = cli.DurationFlag{
		Name:   "treasury-interval",
		Value:  10 * time.Minute,
		Usage:  "how often to refresh treasury balances",
		Hidden: true,
	}
	noENSFlag = cli.BoolFlag{
		Name:  "no-ens",
		Usage: "disable ENS reverse resolution of account names",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
)
