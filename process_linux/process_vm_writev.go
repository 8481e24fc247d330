//go:build linux

package process_linux

import (
	"trmem/process"

	"golang.org/x/sys/unix"
)

// process_vm_writev copies localBuf to remoteAddr in pid as a single-segment transfer
func process_vm_writev(
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

	n, err := unix.ProcessVMWritev(int(pid), localIov, remoteIov, 0)
	if err != nil {
		res.Err = &process.TransferError{Op: "process_vm_writev", PID: pid, Addr: remoteAddr, Err: err}
		return res
	}

	res.Transferred = process.ProcessMemorySize(n)
	return res
}
