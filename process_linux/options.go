//go:build linux

package process_linux

import (
	"os"
	"strings"

	"trmem/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

// DebugEnv turns on diagnostics for every handle when set to anything but "", "0" or "false"
const DebugEnv = "TRMEM_DEBUG"

// Option configures a LinuxProcess
type Option func(*LinuxProcess)

// WithTable resolves names and reads memory maps through table instead of /proc
func WithTable(table process.ProcessTable) Option {
	return func(p *LinuxProcess) {
		p.table = table
	}
}

// WithProcRoot reads the process table from a /proc shaped directory at root
func WithProcRoot(root string) Option {
	return WithTable(NewProcTable(os.DirFS(root)))
}

// WithMemoryIO replaces the process_vm_readv/process_vm_writev transport
func WithMemoryIO(mem MemoryIO) Option {
	return func(p *LinuxProcess) {
		p.mem = mem
	}
}

// WithLogger sends diagnostics to log
func WithLogger(log *logger.Logger) Option {
	return func(p *LinuxProcess) {
		p.log = log
	}
}

// WithDiagnostics enables diagnostics on a logger tagged with the process name and PID
func WithDiagnostics() Option {
	return func(p *LinuxProcess) {
		p.debug = true
	}
}

func debugFromEnv() bool {
	v := strings.TrimSpace(os.Getenv(DebugEnv))
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}
