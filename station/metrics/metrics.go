// Package metrics exposes the gas station's counters and histograms
// through go-ethereum's metrics registry, the same package a preconf
// pipeline would use for its own metrics.
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

var (
	ReserveGasLatencyMs         = metrics.NewRegisteredTimer("gasstation/reserve/latency", nil)
	ReservedCoinCountPerRequest = metrics.NewRegisteredHistogram("gasstation/reserve/coin_count", nil, metrics.NewExpDecaySample(1028, 0.015))
	PoolAvailableCountGauge     = metrics.NewRegisteredGauge("gasstation/pool/available", nil)

	SigningLatencyMs    = metrics.NewRegisteredTimer("gasstation/execute/sign_latency", nil)
	SubmissionLatencyMs = metrics.NewRegisteredTimer("gasstation/execute/submit_latency", nil)
	RepoolLatencyMs     = metrics.NewRegisteredTimer("gasstation/execute/repool_latency", nil)

	ExecutionSuccessMeter = metrics.NewRegisteredMeter("gasstation/execute/success", nil)
	ExecutionFailureMeter = metrics.NewRegisteredMeter("gasstation/execute/failure", nil)
	SmashedCoinsMeter     = metrics.NewRegisteredMeter("gasstation/execute/smashed_coins", nil)

	DailyUsageGauge = metrics.NewRegisteredGauge("gasstation/usagecap/spent", nil)

	ExpiredCoinsMeter = metrics.NewRegisteredMeter("gasstation/expiry/coins", nil)
)

// ObserveReserveGas records reservation latency and pool fan-out for a
// single ReserveGas call.
func ObserveReserveGas(start time.Time, coinCount int) {
	ReserveGasLatencyMs.UpdateSince(start)
	ReservedCoinCountPerRequest.Update(int64(coinCount))
}

// ObserveSigning records how long the signer took to co-sign a transaction.
func ObserveSigning(start time.Time) {
	SigningLatencyMs.UpdateSince(start)
}

// ObserveSubmission records how long chain submission took.
func ObserveSubmission(start time.Time) {
	SubmissionLatencyMs.UpdateSince(start)
}

// ObserveRepool records how long it took to return coins to the pool,
// including any retry-forever backoff.
func ObserveRepool(start time.Time) {
	RepoolLatencyMs.UpdateSince(start)
}

// ObserveExecutionResult marks a successful or failed execution and how
// many payment coins were smashed (no longer present after execution).
func ObserveExecutionResult(success bool, smashedCoins int) {
	if success {
		ExecutionSuccessMeter.Mark(1)
	} else {
		ExecutionFailureMeter.Mark(1)
	}
	if smashedCoins > 0 {
		SmashedCoinsMeter.Mark(int64(smashedCoins))
	}
}

// SetDailyUsage updates the daily spend gauge to the new value.
func SetDailyUsage(v int64) {
	DailyUsageGauge.Update(v)
}

// SetPoolAvailable updates the available-coin gauge.
func SetPoolAvailable(n uint64) {
	PoolAvailableCountGauge.Update(int64(n))
}

// ObserveExpiry records how many coins a single expiry sweep released.
func ObserveExpiry(count int) {
	if count > 0 {
		ExpiredCoinsMeter.Mark(int64(count))
	}
}
