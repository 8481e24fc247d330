//go:build linux

package process_linux

import (
	"trmem/process"

	"golang.org/x/sys/unix"
)

// MemoryIO moves bytes between a local buffer and another process's address space.
// Implementations report failure and short transfers separately and never retry.
type MemoryIO interface {
	ReadAt(pid process.ProcessID, buf []byte, addr process.ProcessMemoryAddress) process.TransferResult
	WriteAt(pid process.ProcessID, buf []byte, addr process.ProcessMemoryAddress) process.TransferResult
}

// VMIO implements MemoryIO with process_vm_readv and process_vm_writev.
// The caller needs ptrace access to the target.
type VMIO struct{}

func (VMIO) ReadAt(pid process.ProcessID, buf []byte, addr process.ProcessMemoryAddress) process.TransferResult {
	return process_vm_readv(pid, buf, addr)
}

func (VMIO) WriteAt(pid process.ProcessID, buf []byte, addr process.ProcessMemoryAddress) process.TransferResult {
	return process_vm_writev(pid, buf, addr)
}

// process_vm_readv copies len(localBuf) bytes at remoteAddr in pid into localBuf
// as a single-segment transfer
func process_vm_readv(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) process.TransferResult {
	res := process.TransferResult{Requested: process.ProcessMemorySize(len(localBuf))}
	if len(localBuf) == 0 {
		return res
	}

	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	n, err := unix.ProcessVMReadv(int(pid), localIov, remoteIov, 0)
	if err != nil {
		res.Err = &process.TransferError{Op: "process_vm_readv", PID: pid, Addr: remoteAddr, Err: err}
		return res
	}

	res.Transferred = process.ProcessMemorySize(n)
	return res
}
