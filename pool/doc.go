// Package pool
// Author: momentics <momentics@gmail.com>
//
// Scratch memory for batch extraction. MemoryPool is a bump arena: callers
// allocate forward from one contiguous slice and rewind it in bulk between
// batches, so steady-state batches of similar size stop allocating.
// Growth copies the live prefix into a larger slice; regions handed out
// earlier in the same batch keep pointing at the old storage and stay valid.
package pool
