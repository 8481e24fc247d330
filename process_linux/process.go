//go:build linux

package process_linux

import (
	"fmt"
	"sync"

	"trmem/process"
	"trmem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Process interface for Linux systems.
// It holds no kernel resources: every operation opens what it needs and releases it before returning.
type LinuxProcess struct {
	id    process.ProcessIdentity
	table process.ProcessTable
	mem   MemoryIO

	debug bool
	log   *logger.Logger

	mu      sync.Mutex
	regions []memory_map.MemoryRegion
}

var _ process.Process = (*LinuxProcess)(nil)

// Open resolves name to a PID and returns a handle for it. Open never fails:
// when no process matches, the handle is invalid and IsValid reports false.
func Open(name string, opts ...Option) *LinuxProcess {
	p := newLinuxProcess(opts)

	pid, ok := Locate(p.table, name)
	p.id = process.ProcessIdentity{PID: pid, Name: name}
	p.initLog()

	if !ok {
		p.logError(fmt.Sprintf("Could not get '%s' process id. Consider checking if it exists.", name))
		return p
	}

	p.logInfo("Process opened")
	return p
}

// NewWithPID creates a handle for a PID the caller already knows
func NewWithPID(pid process.ProcessID, opts ...Option) (*LinuxProcess, error) {
	p := newLinuxProcess(opts)

	name, err := p.table.Comm(pid)
	if err != nil {
		return nil, fmt.Errorf("process with PID %d does not exist: %w", pid, err)
	}

	p.id = process.ProcessIdentity{PID: pid, Name: name}
	p.initLog()
	p.logInfo("Process opened")

	return p, nil
}

func newLinuxProcess(opts []Option) *LinuxProcess {
	p := &LinuxProcess{
		debug: debugFromEnv(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.table == nil {
		p.table = DefaultProcTable()
	}
	if p.mem == nil {
		p.mem = VMIO{}
	}
	return p
}

func (p *LinuxProcess) initLog() {
	if p.log != nil || !p.debug {
		return
	}

	if p.IsValid() {
		p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("tr-%s-%d", p.id.Name, p.id.PID)))
	} else {
		p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, fmt.Sprintf("tr-%s-invalid", p.id.Name)))
	}
}

// PID returns the process ID
func (p *LinuxProcess) PID() process.ProcessID {
	return p.id.PID
}

// Name returns the name the handle was opened with
func (p *LinuxProcess) Name() string {
	return p.id.Name
}

// Identity returns the PID and name pair
func (p *LinuxProcess) Identity() process.ProcessIdentity {
	return p.id
}

// IsValid reports whether the handle resolved to a process
func (p *LinuxProcess) IsValid() bool {
	return p.id.PID.IsValid()
}

// mustBeValid panics when a memory operation is attempted on an unresolved handle.
func (p *LinuxProcess) mustBeValid() {
	if !p.IsValid() {
		panic(fmt.Errorf("%w: %q did not resolve to a pid", process.ErrInvalidProcess, p.id.Name))
	}
}

// ReadRegions parses the current memory map without touching the cache
func (p *LinuxProcess) ReadRegions() ([]memory_map.MemoryRegion, error) {
	p.mustBeValid()
	return ReadMemoryMap(p.table, p.id.PID)
}

// MapRegions replaces the cached regions with a fresh parse. On error the cache is left as it was.
func (p *LinuxProcess) MapRegions() error {
	regions, err := p.ReadRegions()
	if err != nil {
		p.logError(fmt.Sprintf("Could not get memory regions of process with %d id: %v", p.id.PID, err))
		return err
	}

	p.mu.Lock()
	p.regions = regions
	p.mu.Unlock()

	p.logInfo(fmt.Sprintf("Mapped %d memory regions", len(regions)))
	return nil
}

// Regions returns a copy of the cached regions
func (p *LinuxProcess) Regions() []memory_map.MemoryRegion {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]memory_map.MemoryRegion, len(p.regions))
	copy(result, p.regions)
	return result
}

// Modules lists the shared objects in the cached regions
func (p *LinuxProcess) Modules() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return memory_map.Modules(p.regions)
}

// RegionForAddress returns a copy of the cached region containing addr
func (p *LinuxProcess) RegionForAddress(addr process.ProcessMemoryAddress) (memory_map.MemoryRegion, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r := memory_map.RegionForAddress(uint64(addr), p.regions); r != nil {
		return *r, true
	}
	return memory_map.MemoryRegion{}, false
}

// ReadMemory reads size bytes at addr. The returned slice is truncated to the bytes actually read.
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, process.TransferResult) {
	p.mustBeValid()

	buf := make([]byte, size)
	res := p.mem.ReadAt(p.id.PID, buf, addr)

	if res.Failed() {
		p.logError(fmt.Sprintf("Memory reading failed: %v", res.Err))
		return nil, res
	}
	if res.Partial() {
		p.logInfo(fmt.Sprintf("Partial read occurred at %s: %d of %d bytes", addr.ToString(), res.Transferred, res.Requested))
	}

	return buf[:min(int(res.Transferred), len(buf))], res
}

// WriteMemory writes data at addr
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) process.TransferResult {
	p.mustBeValid()

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	res := p.mem.WriteAt(p.id.PID, dataCopy, addr)

	if res.Failed() {
		p.logError(fmt.Sprintf("Memory writing failed: %v", res.Err))
	} else if res.Partial() {
		p.logInfo(fmt.Sprintf("Partial write occurred at %s: %d of %d bytes", addr.ToString(), res.Transferred, res.Requested))
	}

	return res
}

// CallTarget returns the destination of the E8 rel32 call the caller asserts is at addr
func (p *LinuxProcess) CallTarget(addr process.ProcessMemoryAddress) (process.ProcessMemoryAddress, error) {
	return process.CallTarget(p, addr)
}

func (p *LinuxProcess) logInfo(msg string) {
	if p.log != nil {
		p.log.Infoln(msg)
	}
}

func (p *LinuxProcess) logError(msg string) {
	if p.log != nil {
		p.log.Warn(msg)
	}
}
