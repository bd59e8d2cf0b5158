// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/daotrack/daotrack/logstore"
	"github.com/daotrack/daotrack/metrics"
	"github.com/daotrack/daotrack/names"
)

func fatal(args ...interface{}) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func fatalf(format string, args ...interface{}) {
	fatal(fmt.Sprintf(format, args...))
}

func initLogger(ctx *cli.Context) {
	verbosity := ctx.Int(verbosityFlag.Name)
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

// handleExitSignal returns a context canceled on SIGINT or SIGTERM.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func loadDeployment(ctx *cli.Context) *deployment {
	path := ctx.String(configFlag.Name)
	if path == "" {
		fatalf("no deployment file, use --%s to specify one", configFlag.Name)
	}
	f, err := os.Open(path)
	if err != nil {
		fatalf("open deployment file: %v", err)
	}
	defer f.Close()

	depl, err := parseDeployment(f)
	if err != nil {
		fatalf("parse deployment file '%v': %v", path, err)
	}
	return depl
}

func dialEndpoint(ctx *cli.Context) *ethclient.Client {
	endpoint := ctx.String(endpointFlag.Name)
	if endpoint == "" {
		fatalf("no RPC endpoint, use --%s to specify one", endpointFlag.Name)
	}
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		fatalf("dial RPC endpoint '%v': %v", endpoint, err)
	}
	return client
}

// makeDataDir keeps one instance dir per chain so switching deployments
// never mixes caches.
func makeDataDir(ctx *cli.Context, chainID uint64) string {
	mainDir := ctx.String(dataDirFlag.Name)
	if mainDir == "" {
		fatalf("unable to infer default data dir, use --%s to specify one", dataDirFlag.Name)
	}
	dataDir := filepath.Join(mainDir, fmt.Sprintf("chain-%d", chainID))
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatalf("create data dir at '%v': %v", dataDir, err)
	}
	return dataDir
}

func openLogStore(dataDir string) *logstore.Store {
	path := filepath.Join(dataDir, "logs.db")
	store, err := logstore.New(path)
	if err != nil {
		fatalf("open log cache at '%v': %v", path, err)
	}
	return store
}

func openNames(client names.Client, dataDir string) *names.ENS {
	path := filepath.Join(dataDir, "names.db")
	ens, err := names.New(client, path)
	if err != nil {
		fatalf("open name cache at '%v': %v", path, err)
	}
	return ens
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatalf("listen API addr [%v]: %v", addr, err)
	}
	srv := &http.Server{Handler: handler}
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(listener)
	}()
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		<-done
	}
}

func startMetricsServer(addr string) (string, func()) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatalf("listen metrics addr [%v]: %v", addr, err)
	}
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	srv := &http.Server{
		Handler:           handlers.CompressHandler(router),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(listener)
	}()
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		<-done
	}
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "Daotrack")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Daotrack")
		} else {
			return filepath.Join(home, ".daotrack")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
