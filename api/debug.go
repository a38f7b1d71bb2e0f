// Package api
// Author: momentics
//
// Live introspection of bridge state: handle counts, borrows, pool usage.

package api

// Debug exposes runtime introspection.
//
// Probe names are dotted paths ("buffers.live", "pool.capacity"). A probe
// registered under an existing name replaces it.
type Debug interface {
	// DumpState evaluates every probe and returns name -> value.
	DumpState() map[string]any

	// RegisterProbe adds or replaces a probe.
	RegisterProbe(name string, fn func() any)
}
