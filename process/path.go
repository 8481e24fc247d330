package process

import (
	"fmt"
	"unsafe"
)

// SizeOf returns the in-memory size of T.
func SizeOf[T any]() ProcessMemorySize {
	var t T
	return ProcessMemorySize(unsafe.Sizeof(t))
}

// Read reads a value of type T from addr. T must be a fixed-layout value
// (no pointers, slices, strings or maps) for the bytes to be meaningful.
func Read[T any](proc Process, addr ProcessMemoryAddress) (T, TransferResult) {
	return ReadSized[T](proc, addr, SizeOf[T]())
}

// ReadSized reads size bytes from addr into the leading bytes of a zero T.
// A size larger than T is clamped to the size of T.
func ReadSized[T any](proc Process, addr ProcessMemoryAddress, size ProcessMemorySize) (T, TransferResult) {
	var t T
	if limit := SizeOf[T](); size > limit {
		size = limit
	}
	if size == 0 {
		return t, TransferResult{}
	}

	data, res := proc.ReadMemory(addr, size)
	if res.Failed() {
		return t, res
	}

	copyTo(&t, data)
	return t, res
}

// Write writes the in-memory representation of v to addr.
func Write[T any](proc Process, addr ProcessMemoryAddress, v T) TransferResult {
	return WriteSized(proc, addr, v, SizeOf[T]())
}

// WriteSized writes the leading size bytes of v to addr.
// A size larger than T is clamped to the size of T.
func WriteSized[T any](proc Process, addr ProcessMemoryAddress, v T, size ProcessMemorySize) TransferResult {
	if limit := SizeOf[T](); size > limit {
		size = limit
	}
	if size == 0 {
		return TransferResult{}
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), int(size))
	out := make([]byte, size)
	copy(out, src)
	return proc.WriteMemory(addr, out)
}

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
func ReadPath[T any](proc Process, base ProcessMemoryAddress, offsets ...ProcessMemorySize) (T, error) {
	var zero T
	currentAddr := base

	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr + ProcessMemoryAddress(offsets[i])

		// Pointers are host word sized.
		ptrVal, res := Read[uintptr](proc, ptrAddr)
		if err := res.AsError(); err != nil {
			return zero, fmt.Errorf("failed to read pointer at offset %d (addr 0x%x): %w", i, ptrAddr, err)
		}

		if ptrVal == 0 {
			return zero, fmt.Errorf("pointer at offset %d (addr 0x%x) is null: %w", i, ptrAddr, ErrInvalidPointer)
		}

		currentAddr = ProcessMemoryAddress(ptrVal)
	}

	finalOffset := ProcessMemorySize(0)
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr + ProcessMemoryAddress(finalOffset)

	val, res := Read[T](proc, finalAddr)
	if err := res.AsError(); err != nil {
		return zero, fmt.Errorf("failed to read final value at 0x%x: %w", finalAddr, err)
	}

	return val, nil
}

// copyTo copies bytes to *T
func copyTo[T any](dst *T, src []byte) {
	size := int(unsafe.Sizeof(*dst))
	if len(src) < size {
		size = len(src)
	}

	dstBytes := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	copy(dstBytes, src)
}
