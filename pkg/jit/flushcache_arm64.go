//go:build arm64

package jit

import "unsafe"

// clearCacheRange is implemented in clearcache_arm64.s.
func clearCacheRange(addr, n uintptr)

// flushInstructionCache makes freshly written code visible to the
// instruction fetch unit (§9: "aarch64 requires an explicit icache
// flush"). Unlike amd64, aarch64 does not guarantee that a write through
// the data cache is automatically observed by the instruction cache, so
// every code buffer handed to Mprotect must be cleaned and invalidated
// here first, before it is ever executed.
func flushInstructionCache(data []byte) {
	if len(data) == 0 {
		return
	}
	clearCacheRange(uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)))
}
