package jit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// execMem is a page of anonymous memory holding one compiled function. It
// is never writable and executable at the same time (W^X): code is copied
// in while the mapping is RW, the instruction cache is made coherent with
// that write (a no-op on amd64, a DC/IC/barrier sequence on aarch64 — see
// flushcache_arm64.go), and only then is the mapping flipped to RX.
type execMem struct {
	data []byte
}

func newExecMem(code []byte) (*execMem, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jit: empty code buffer")
	}
	data, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap: %w", err)
	}
	copy(data, code)
	flushInstructionCache(data)
	if err := unix.Mprotect(data, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("jit: mprotect: %w", err)
	}
	return &execMem{data: data}, nil
}

func (m *execMem) Close() error {
	return unix.Munmap(m.data)
}
