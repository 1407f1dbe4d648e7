// Package health reports whether the cache backends are usable.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. StoreChecker
// pings a store and degrades on slow replies; CapacityChecker watches the
// number of entries an in-process store holds. An Aggregator runs a set of
// checkers under one deadline and folds their results.
//
//	agg := health.NewAggregator()
//	agg.Register("redis", health.NewStoreChecker("redis", store))
//	results := agg.CheckAll(ctx)
//	if agg.OverallStatus(results) == health.StatusUnhealthy {
//	    // stop routing traffic here
//	}
//
// A failing cache never breaks correctness, only latency; callers usually
// treat Unhealthy as a signal to alert rather than to fail requests.
package health
