// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scanner downloads contract logs from an Ethereum node, folds them
// through the decoder into the tracker, and keeps following the chain head.
// Scanned logs are cached on disk so a restart replays from the cache
// instead of the network.
package scanner

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/beevik/ntp"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/daotrack/daotrack/dao"
	"github.com/daotrack/daotrack/events"
	"github.com/daotrack/daotrack/logstore"
	"github.com/daotrack/daotrack/tracker"
)

var logger = log.New("pkg", "scanner")

// Client is the node RPC surface the scanner needs. Satisfied by
// ethclient.Client.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Sink consumes decoded events in chain order.
type Sink interface {
	Apply(ev *events.Event) error
}

// Config configures a Scanner.
type Config struct {
	// ChainID, when non-zero, must match the connected node.
	ChainID   uint64
	Contracts events.Contracts

	// StartBlock is the deployment block, nothing older is scanned.
	StartBlock uint64
	// BatchSize is the widest block range per eth_getLogs call.
	BatchSize uint64
	// Confirmations lags the followed head to stay clear of shallow reorgs.
	Confirmations uint64
	PollInterval  time.Duration

	// VestingAddresses are applied as a synthesized address-list event once
	// the historical scan is done.
	VestingAddresses []dao.Address

	// Treasuries and Tokens drive the periodic balance poll.
	Treasuries    map[string]dao.Address
	Tokens        map[string]dao.Address
	TreasuryEvery time.Duration

	// Quiet suppresses the progress bars. Set when stdout carries data.
	Quiet bool

	// OnEvent, when set, observes every event applied in live mode.
	OnEvent func(ev *events.Event)
}

const (
	defaultBatchSize     = 2048
	defaultPollInterval  = 13 * time.Second
	defaultTreasuryEvery = 10 * time.Minute

	headerFetchParallelism = 8
	headerTimeCacheSize    = 4096

	clockSyncInterval = 10 * time.Minute
	clockTolerance    = 10 * time.Second
)

// Scanner pulls logs from one deployment and feeds a sink.
type Scanner struct {
	client      Client
	store       *logstore.Store
	decoder     *events.Decoder
	cfg         Config
	headerTimes *lru.Cache
}

// New creates a Scanner over an open log cache.
func New(client Client, store *logstore.Store, cfg Config) *Scanner {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.TreasuryEvery == 0 {
		cfg.TreasuryEvery = defaultTreasuryEvery
	}
	headerTimes, _ := lru.New(headerTimeCacheSize)
	return &Scanner{
		client:      client,
		store:       store,
		decoder:     events.NewDecoder(cfg.Contracts),
		cfg:         cfg,
		headerTimes: headerTimes,
	}
}

// Run is the server ingestion loop: replay the cache, scan to the head,
// mark the tracker ready and keep following. It returns on context
// cancellation or when the tracker halts ingestion.
func (s *Scanner) Run(ctx context.Context, tr *tracker.Tracker) error {
	next, err := s.ScanToHead(ctx, tr)
	if err != nil {
		return err
	}

	s.applyVestingList(tr)
	s.pollTreasuries(ctx, tr)
	tr.MarkReady()

	status := tr.Status()
	logger.Info("historical scan complete",
		"block", status.LastBlock, "accounts", status.Accounts, "votings", status.Votings, "epochs", status.Epochs)

	go checkClockOffset()
	return s.follow(ctx, tr, next)
}

// ScanToHead replays cached logs, then scans the remaining range up to the
// confirmed head in batches. It returns the first unscanned block. The
// connected chain is verified first, a mismatch would poison the cache.
func (s *Scanner) ScanToHead(ctx context.Context, sink Sink) (uint64, error) {
	if err := s.verifyChain(ctx); err != nil {
		return 0, err
	}
	next, err := s.replayCache(ctx, sink)
	if err != nil {
		return 0, err
	}
	if next < s.cfg.StartBlock {
		next = s.cfg.StartBlock
	}

	head, err := s.head(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "chain head")
	}
	if next > head {
		return next, nil
	}

	logger.Info("scanning chain", "from", next, "to", head)
	bar := pb.New64(int64(head - next + 1)).SetMaxWidth(90)
	bar.NotPrint = s.cfg.Quiet
	bar.Start()
	defer func() { bar.NotPrint = true }()

	for next <= head {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		to := next + s.cfg.BatchSize - 1
		if to > head {
			to = head
		}
		if err := s.scanRange(ctx, sink, next, to, false); err != nil {
			return 0, err
		}
		bar.Add64(int64(to - next + 1))
		next = to + 1
	}
	bar.Finish()
	return next, nil
}

// replayCache folds all cached logs and returns the cache watermark.
func (s *Scanner) replayCache(ctx context.Context, sink Sink) (uint64, error) {
	next, err := s.store.NextBlock()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return 0, nil
	}
	count, err := s.store.Count()
	if err != nil {
		return 0, err
	}

	logger.Info("replaying cached logs", "logs", count, "scanned", next)
	bar := pb.New64(count).SetMaxWidth(90)
	bar.NotPrint = s.cfg.Quiet
	bar.Start()
	defer func() { bar.NotPrint = true }()

	if err := s.store.Iterate(ctx, func(e *logstore.Entry) error {
		bar.Add64(1)
		return s.deliver(sink, &e.Log, e.BlockTime, false)
	}); err != nil {
		return 0, err
	}
	bar.Finish()
	return next, nil
}

// follow polls the confirmed head and scans whatever accumulated since the
// previous tick. Treasury balances refresh on their own cadence.
func (s *Scanner) follow(ctx context.Context, tr *tracker.Tracker, next uint64) error {
	logger.Info("following chain head", "from", next, "interval", s.cfg.PollInterval)

	poll := time.NewTicker(s.cfg.PollInterval)
	treasury := time.NewTicker(s.cfg.TreasuryEvery)
	clockSync := time.NewTicker(clockSyncInterval)
	defer func() {
		poll.Stop()
		treasury.Stop()
		clockSync.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			head, err := s.head(ctx)
			if err != nil {
				logger.Warn("head poll failed", "err", err)
				continue
			}
			for next <= head {
				to := next + s.cfg.BatchSize - 1
				if to > head {
					to = head
				}
				if err := s.scanRange(ctx, tr, next, to, true); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					var halt haltError
					if errors.As(err, &halt) {
						return halt.err
					}
					// transient node failure, retry from the same spot
					logger.Warn("live scan failed", "from", next, "to", to, "err", err)
					break
				}
				next = to + 1
			}
		case <-treasury.C:
			s.pollTreasuries(ctx, tr)
		case <-clockSync.C:
			go checkClockOffset()
		}
	}
}

// scanRange fetches one block range, caches it together with the moved
// watermark, and folds it into the sink.
func (s *Scanner) scanRange(ctx context.Context, sink Sink, from, to uint64, notify bool) error {
	logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: s.decoder.Addresses(),
	})
	if err != nil {
		return errors.Wrapf(err, "filter logs %v-%v", from, to)
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	times, err := s.resolveTimes(ctx, logs)
	if err != nil {
		return err
	}

	entries := make([]logstore.Entry, len(logs))
	for i := range logs {
		entries[i] = logstore.Entry{Log: logs[i], BlockTime: times[logs[i].BlockNumber]}
	}
	if err := s.store.Put(entries, to+1); err != nil {
		return errors.Wrap(err, "cache logs")
	}

	for i := range entries {
		if err := s.deliver(sink, &entries[i].Log, entries[i].BlockTime, notify); err != nil {
			return err
		}
	}
	return nil
}

// deliver decodes one raw log and applies it. Malformed logs are reported
// and dropped; a sink failure halts the scan.
func (s *Scanner) deliver(sink Sink, lg *types.Log, blockTime uint64, notify bool) error {
	ev, err := s.decoder.Decode(lg, blockTime)
	if err != nil {
		logger.Warn("malformed log skipped", "block", lg.BlockNumber, "index", lg.Index, "err", err)
		return nil
	}
	if ev == nil {
		return nil
	}
	if err := sink.Apply(ev); err != nil {
		return haltError{err}
	}
	if notify && s.cfg.OnEvent != nil {
		s.cfg.OnEvent(ev)
	}
	return nil
}

// resolveTimes returns the timestamp of every block the logs touch,
// fetching headers for cache misses in parallel.
func (s *Scanner) resolveTimes(ctx context.Context, logs []types.Log) (map[uint64]uint64, error) {
	times := make(map[uint64]uint64)
	var missing []uint64
	for i := range logs {
		n := logs[i].BlockNumber
		if _, ok := times[n]; ok {
			continue
		}
		if v, ok := s.headerTimes.Get(n); ok {
			times[n] = v.(uint64)
			continue
		}
		times[n] = 0
		missing = append(missing, n)
	}
	if len(missing) == 0 {
		return times, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(headerFetchParallelism)
	for _, n := range missing {
		g.Go(func() error {
			header, err := s.client.HeaderByNumber(gctx, new(big.Int).SetUint64(n))
			if err != nil {
				return errors.Wrapf(err, "header %v", n)
			}
			mu.Lock()
			times[n] = header.Time
			mu.Unlock()
			s.headerTimes.Add(n, header.Time)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return times, nil
}

// head returns the newest block minus the configured confirmation lag.
func (s *Scanner) head(ctx context.Context) (uint64, error) {
	n, err := s.client.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	if n < s.cfg.Confirmations {
		return 0, nil
	}
	return n - s.cfg.Confirmations, nil
}

func (s *Scanner) verifyChain(ctx context.Context) error {
	id, err := s.client.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "chain id")
	}
	if s.cfg.ChainID != 0 && id.Uint64() != s.cfg.ChainID {
		return errors.Errorf("connected to chain %v, configured for chain %v", id, s.cfg.ChainID)
	}
	logger.Info("connected", "chain", id)
	return nil
}

// applyVestingList folds the configured vested address list in as a
// synthesized event. There is no on-chain log carrying it.
func (s *Scanner) applyVestingList(tr *tracker.Tracker) {
	if len(s.cfg.VestingAddresses) == 0 {
		return
	}
	ev := &events.Event{
		Payload:     &events.VestingAddressesSet{Addresses: s.cfg.VestingAddresses},
		Time:        uint64(time.Now().Unix()),
		BlockNumber: tr.LastBlock(),
	}
	if err := tr.Apply(ev); err != nil {
		logger.Warn("vesting address list rejected", "err", err)
	}
}

// haltError marks a sink failure, as opposed to a transient node failure.
type haltError struct {
	err error
}

func (e haltError) Error() string {
	return e.err.Error()
}

func (e haltError) Unwrap() error {
	return e.err
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > clockTolerance || resp.ClockOffset < -clockTolerance {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}
