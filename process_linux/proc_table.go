//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"

	"trmem/process"
	"trmem/process/memory_map"
)

const (
	// DefaultProcRoot is where the kernel exposes the process table
	DefaultProcRoot = "/proc"

	// ProcRootEnv overrides DefaultProcRoot for DefaultProcTable
	ProcRootEnv = "TRMEM_PROC_ROOT"
)

// ProcTable implements process.ProcessTable over a /proc shaped file tree
type ProcTable struct {
	fsys fs.FS
}

// NewProcTable creates a ProcTable rooted at fsys. fsys must look like /proc:
// one directory per PID holding comm and maps files.
func NewProcTable(fsys fs.FS) *ProcTable {
	return &ProcTable{fsys: fsys}
}

// DefaultProcTable returns a ProcTable over /proc, or over $TRMEM_PROC_ROOT when set
func DefaultProcTable() *ProcTable {
	root := os.Getenv(ProcRootEnv)
	if root == "" {
		root = DefaultProcRoot
	}
	return NewProcTable(os.DirFS(root))
}

// PIDs lists every numerically named directory, lowest PID first
func (t *ProcTable) PIDs() ([]process.ProcessID, error) {
	entries, err := fs.ReadDir(t.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read process table: %w", err)
	}

	var pids []process.ProcessID
	for _, entry := range entries {
		if !entry.IsDir() || !onlyDigits(entry.Name()) {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, process.ProcessID(pid))
	}

	slices.Sort(pids)
	return pids, nil
}

// Comm returns the first line of /proc/<pid>/comm
func (t *ProcTable) Comm(pid process.ProcessID) (string, error) {
	data, err := fs.ReadFile(t.fsys, path.Join(strconv.Itoa(int(pid)), "comm"))
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return line, nil
}

// Maps opens /proc/<pid>/maps
func (t *ProcTable) Maps(pid process.ProcessID) (io.ReadCloser, error) {
	return t.fsys.Open(path.Join(strconv.Itoa(int(pid)), "maps"))
}

// ReadMemoryMap reads and parses the memory map for a process.
// A process that does not exist has no regions; that is not an error.
func ReadMemoryMap(table process.ProcessTable, pid process.ProcessID) ([]memory_map.MemoryRegion, error) {
	file, err := table.Maps(pid)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open memory map of pid %d: %w", pid, err)
	}
	defer file.Close()

	regions, err := memory_map.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse memory map of pid %d: %w", pid, err)
	}

	return regions, nil
}

func onlyDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
