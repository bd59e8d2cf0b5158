// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tracker

import "github.com/daotrack/daotrack/metrics"

var (
	metricEventsApplied   = metrics.LazyLoadCounterVec("events_applied_count", []string{"kind"})
	metricApplyErrors     = metrics.LazyLoadCounterVec("event_apply_errors_count", []string{"kind"})
	metricLastBlock       = metrics.LazyLoadGauge("last_block_gauge")
	metricAccounts        = metrics.LazyLoadGauge("accounts_gauge")
	metricTreasuryBalance = metrics.LazyLoadGaugeVec("treasury_balance_gauge", []string{"treasury", "token"})
)
