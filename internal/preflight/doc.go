// Package preflight runs the checks behind 'pantry doctor': configuration
// validity, writable data and log directories, a loadable favorites store,
// a reachable recipe index and a file descriptor limit that covers the
// verification pool.
//
//	checker := preflight.New(preflight.WithOutput(w))
//	results := checker.RunAll(ctx, cfg, index)
//	if checker.HasCriticalFailures(results) {
//	    // pantry cannot run
//	}
package preflight
