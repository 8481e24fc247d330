// Package process provides the platform-neutral types used to inspect and
// mutate the memory of another process.
package process

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProcess is the panic value raised when a memory operation is attempted
	// on a handle whose name never resolved to a PID. Check IsValid first.
	ErrInvalidProcess = errors.New("process is invalid")

	// ErrPartialTransfer matches a PartialTransferError via errors.Is.
	ErrPartialTransfer = errors.New("partial transfer")

	ErrInvalidPointer = errors.New("invalid pointer read")
)

// TransferError is a cross-process transfer that the kernel rejected outright.
// Err is the platform errno (EPERM, ESRCH, EFAULT, ...).
type TransferError struct {
	Op   string // "process_vm_readv" or "process_vm_writev"
	PID  ProcessID
	Addr ProcessMemoryAddress
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s pid=%d addr=%s: %v", e.Op, e.PID, e.Addr.ToString(), e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// PartialTransferError describes a transfer that succeeded but moved fewer bytes than requested.
type PartialTransferError struct {
	Requested   ProcessMemorySize
	Transferred ProcessMemorySize
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("partial transfer: %d of %d bytes", e.Transferred, e.Requested)
}

func (e *PartialTransferError) Is(target error) bool {
	return target == ErrPartialTransfer
}

// TransferResult is the outcome of one read or write against another process.
// Exactly one of Failed, Partial and Complete holds.
type TransferResult struct {
	Requested   ProcessMemorySize
	Transferred ProcessMemorySize
	Err         error // nil unless the syscall itself failed
}

// Failed reports whether the syscall returned an error.
func (r TransferResult) Failed() bool {
	return r.Err != nil
}

// Partial reports whether the syscall succeeded but moved fewer bytes than requested.
func (r TransferResult) Partial() bool {
	return r.Err == nil && r.Transferred < r.Requested
}

// Complete reports whether every requested byte was transferred.
func (r TransferResult) Complete() bool {
	return r.Err == nil && r.Transferred >= r.Requested
}

// AsError folds the result into a single error for callers that treat
// anything short of a complete transfer as a failure.
func (r TransferResult) AsError() error {
	switch {
	case r.Failed():
		return r.Err
	case r.Partial():
		return &PartialTransferError{Requested: r.Requested, Transferred: r.Transferred}
	}
	return nil
}

func (r TransferResult) String() string {
	switch {
	case r.Failed():
		return fmt.Sprintf("failed after %d of %d bytes: %v", r.Transferred, r.Requested, r.Err)
	case r.Partial():
		return fmt.Sprintf("partial: %d of %d bytes", r.Transferred, r.Requested)
	}
	return fmt.Sprintf("complete: %d bytes", r.Transferred)
}
