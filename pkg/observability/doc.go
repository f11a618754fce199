/*
Package observability turns engine lifecycle events into metrics and logs.

Both Metrics and LoggingHooks produce domain.LifecycleHooks, so they can be
merged and handed to the engine:

	m := observability.NewMetrics("lattice")
	m.MustRegister(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LoggingHooks(logger))
*/
package observability
