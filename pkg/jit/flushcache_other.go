//go:build !arm64

package jit

// flushInstructionCache is a no-op everywhere but aarch64: amd64 keeps its
// instruction cache coherent with the data cache for code written through
// a normal store, so newExecMem's Mprotect alone is sufficient there (§9).
func flushInstructionCache(data []byte) {}
