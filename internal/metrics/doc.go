// Package metrics records per-request outcomes of a load run and derives its summary.
//
// # Collector
//
// A single [Collector] is shared by every worker of a run:
//
//	collector := metrics.NewCollector()
//	collector.Start()
//
//	collector.RecordSuccess(12) // latency in milliseconds
//	collector.RecordFailure(40)
//
//	summary := collector.Snapshot(elapsed)
//
// Successes and failures are kept as ordered latency sequences in arrival order.
// The exporter reads them back with [Collector.Successes] and [Collector.Failures].
//
// # Accounting
//
// Only successful requests contribute to the running latency sum, so
// [Summary.AvgResponseTimeMs] and the percentiles describe successful requests.
// Failed requests are counted and their latency is kept for the export, but they
// never move the average.
//
// # Thread Safety
//
// Every mutation happens inside one critical section guarded by a mutex.
// RecordSuccess and RecordFailure are safe to call from any number of goroutines.
package metrics
