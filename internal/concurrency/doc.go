// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded worker pool behind the bridge's context-aware entry points.
// Tasks queue on a shared channel; a caller whose context ends before a
// worker picks the task up never dispatches it.
package concurrency
