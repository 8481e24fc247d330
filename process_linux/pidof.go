//go:build linux

package process_linux

import (
	"trmem/process"
)

// Locate returns the lowest PID whose command name equals name.
// The comparison is exact and case-sensitive. An empty name, an unreadable
// table or no match all report a miss; absence is not an error.
func Locate(table process.ProcessTable, name string) (process.ProcessID, bool) {
	if name == "" {
		return process.InvalidPID, false
	}

	pids, err := table.PIDs()
	if err != nil {
		return process.InvalidPID, false
	}

	for _, pid := range pids {
		comm, err := table.Comm(pid)
		if err != nil {
			continue // exited while we were scanning
		}
		if comm == name {
			return pid, true
		}
	}

	return process.InvalidPID, false
}

// LocateAll returns every PID whose command name equals name, lowest first.
func LocateAll(table process.ProcessTable, name string) []process.ProcessID {
	if name == "" {
		return nil
	}

	pids, err := table.PIDs()
	if err != nil {
		return nil
	}

	var out []process.ProcessID
	for _, pid := range pids {
		comm, err := table.Comm(pid)
		if err != nil {
			continue
		}
		if comm == name {
			out = append(out, pid)
		}
	}

	return out
}
