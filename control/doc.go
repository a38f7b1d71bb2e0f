// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime control plane of hioload-bridge: the runtime-tunable configuration
// store with reload listeners, debug probes behind Bridge.DumpState, and the
// metrics registry exported through Prometheus.
package control
