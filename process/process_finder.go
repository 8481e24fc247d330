package process

import "io"

// ProcessTable is a point-in-time view of the live processes on the host.
// The Linux implementation reads the /proc hierarchy; tests substitute an in-memory tree.
type ProcessTable interface {
	// PIDs lists every numerically named entry, ascending
	PIDs() ([]ProcessID, error)

	// Comm returns the first line of the process's command name file, without the newline
	Comm(pid ProcessID) (string, error)

	// Maps opens the process's memory map descriptor stream
	Maps(pid ProcessID) (io.ReadCloser, error)
}
