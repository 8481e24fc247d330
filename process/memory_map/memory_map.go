// Package memory_map parses the per-process memory map descriptor stream
// (/proc/<pid>/maps on Linux) into MemoryRegion values.
//
// Each row describes one contiguous virtual memory mapping:
//
//	address           perms offset  dev   inode   pathname
//	08048000-08056000 r-xp 00000000 03:0c 64593   /usr/sbin/gpm
package memory_map

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
)

// MemoryRegion represents a memory region in a process's address space
type MemoryRegion struct {
	Start uint64 // First address of the region
	End   uint64 // One past the last address of the region

	Readable   bool
	Writable   bool
	Executable bool
	Shared     bool // 's' in the permission field, 'p' means private

	Offset      uint64 // File offset of the mapping, 0 if not file backed
	DeviceMajor uint64
	DeviceMinor uint64
	Inode       uint64 // 0 for anonymous mappings

	Path     string // Backing shared object path, empty for anonymous and special regions
	Filename string // Final component of Path
	Special  bool   // Kernel synthesized region such as [stack], [heap] or [vdso]
	Name     string // Bracketed pseudo-name of a special region

	Pathname string // Trailing column as printed by the kernel, unclassified
}

// Size returns the size of the region in bytes
func (r MemoryRegion) Size() uint64 {
	return r.End - r.Start
}

// Contains reports whether addr falls inside the region
func (r MemoryRegion) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Perms renders the permission field the way the kernel prints it (e.g. "r-xp")
func (r MemoryRegion) Perms() string {
	perms := []byte("---p")
	if r.Readable {
		perms[0] = 'r'
	}
	if r.Writable {
		perms[1] = 'w'
	}
	if r.Executable {
		perms[2] = 'x'
	}
	if r.Shared {
		perms[3] = 's'
	}
	return string(perms)
}

// String returns a string representation of the memory region
func (r MemoryRegion) String() string {
	return fmt.Sprintf("%x-%x %s %08x %02x:%02x %d %s",
		r.Start, r.End, r.Perms(), r.Offset, r.DeviceMajor, r.DeviceMinor, r.Inode, r.Pathname)
}

// Modules returns the sorted, de-duplicated file names of every shared object in regions.
func Modules(regions []MemoryRegion) []string {
	modules := make([]string, 0, len(regions))
	for _, region := range regions {
		if strings.Contains(region.Filename, ".so") {
			modules = append(modules, region.Filename)
		}
	}

	slices.Sort(modules)
	return slices.Compact(modules)
}

// RegionForAddress returns the region containing addr. regions must be sorted by
// address, which the kernel's ordering guarantees.
func RegionForAddress(addr uint64, regions []MemoryRegion) *MemoryRegion {
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].End > addr
	})
	if i < len(regions) && regions[i].Start <= addr {
		return &regions[i]
	}

	return nil
}

// classifyPath fills the path fields from the trailing column of a maps line.
func (r *MemoryRegion) classifyPath(pathname string) {
	r.Pathname = pathname

	switch {
	case strings.Contains(pathname, "["):
		r.Special = true
		r.Name = pathname
	case strings.Contains(pathname, ".so"):
		r.Path = pathname
		r.Filename = path.Base(pathname)
	}
}
