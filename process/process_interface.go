package process

import (
	"trmem/process/memory_map"
)

// Process is the interface that defines operations for interacting with a system process
type Process interface {
	// PID returns the resolved process ID, InvalidPID if resolution failed
	PID() ProcessID

	// Name returns the name the handle was resolved from
	Name() string

	// IsValid reports whether the handle resolved to a process.
	// Memory operations on an invalid handle panic with ErrInvalidProcess.
	IsValid() bool

	// MapRegions replaces the cached region list with a fresh parse of the memory map
	MapRegions() error

	// Regions returns a copy of the cached region list, empty until MapRegions succeeds
	Regions() []memory_map.MemoryRegion

	// ReadMemory reads size bytes at addr. On a partial transfer the returned
	// slice holds only the bytes that were read.
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, TransferResult)

	// WriteMemory writes data at addr
	WriteMemory(addr ProcessMemoryAddress, data []byte) TransferResult

	// CallTarget decodes the E8 rel32 call instruction at addr and returns its destination
	CallTarget(addr ProcessMemoryAddress) (ProcessMemoryAddress, error)
}
