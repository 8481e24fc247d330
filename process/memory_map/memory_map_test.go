package memory_map

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const exampleMaps = `00400000-00401000 r-xp 00000000 08:01 123456  /lib/libexample.so
7fff00000000-7fff00021000 rw-p 00000000 00:00 0  [stack]
`

func TestParseExample(t *testing.T) {
	regions, err := Parse(strings.NewReader(exampleMaps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions - got %d", len(regions))
	}

	lib := regions[0]
	if lib.Start != 0x00400000 || lib.End != 0x00401000 {
		t.Fatalf("expected 400000-401000 - got %x-%x", lib.Start, lib.End)
	}
	if !lib.Readable || lib.Writable || !lib.Executable || lib.Shared {
		t.Fatalf("expected r-xp - got %s", lib.Perms())
	}
	if lib.Filename != "libexample.so" || lib.Path != "/lib/libexample.so" || lib.Special {
		t.Fatalf("unexpected path fields: %+v", lib)
	}
	if lib.DeviceMajor != 8 || lib.DeviceMinor != 1 || lib.Inode != 123456 {
		t.Fatalf("unexpected device/inode: %+v", lib)
	}

	stack := regions[1]
	if stack.Start != 0x7fff00000000 || stack.End != 0x7fff00021000 {
		t.Fatalf("expected 7fff00000000-7fff00021000 - got %x-%x", stack.Start, stack.End)
	}
	if !stack.Readable || !stack.Writable || stack.Executable || stack.Shared {
		t.Fatalf("expected rw-p - got %s", stack.Perms())
	}
	if !stack.Special || stack.Filename != "" || stack.Path != "" || stack.Name != "[stack]" {
		t.Fatalf("unexpected special region fields: %+v", stack)
	}

	modules := Modules(regions)
	if !reflect.DeepEqual(modules, []string{"libexample.so"}) {
		t.Fatalf("expected [libexample.so] - got %v", modules)
	}
}

func TestParsePermissions(t *testing.T) {
	cases := []struct {
		perms                   string
		read, write, exec, shar bool
	}{
		{"rwxs", true, true, true, true},
		{"r--p", true, false, false, false},
		{"---p", false, false, false, false},
		{"-w-s", false, true, false, true},
	}

	for _, c := range cases {
		r, err := ParseLine("1000-2000 " + c.perms + " 00000000 00:00 0")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.perms, err)
		}
		if r.Readable != c.read || r.Writable != c.write || r.Executable != c.exec || r.Shared != c.shar {
			t.Fatalf("%s: decoded as %s", c.perms, r.Perms())
		}
		if r.Perms() != c.perms {
			t.Fatalf("expected %s - got %s", c.perms, r.Perms())
		}
	}
}

func TestParseAnonymousAndExecutable(t *testing.T) {
	input := "55d0c0a00000-55d0c0a02000 r--p 00000000 fd:01 1311 /usr/bin/cat\n" +
		"7f1c2c000000-7f1c2c021000 rw-p 00000000 00:00 0 \n" +
		"7ffd5e3f1000-7ffd5e3f3000 r-xp 00000000 00:00 0                          [vdso]\n"

	regions, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("expected 3 regions - got %d", len(regions))
	}

	exe := regions[0]
	if exe.Path != "" || exe.Filename != "" || exe.Special {
		t.Fatalf("non shared object should not carry a path: %+v", exe)
	}
	if exe.Pathname != "/usr/bin/cat" || exe.DeviceMajor != 0xfd {
		t.Fatalf("unexpected raw fields: %+v", exe)
	}

	anon := regions[1]
	if anon.Pathname != "" || anon.Special || anon.Inode != 0 {
		t.Fatalf("unexpected anonymous region: %+v", anon)
	}

	vdso := regions[2]
	if !vdso.Special || vdso.Name != "[vdso]" {
		t.Fatalf("expected [vdso] special region - got %+v", vdso)
	}
}

func TestParsePathWithSpaces(t *testing.T) {
	r, err := ParseLine("7f0000000000-7f0000001000 r--s 00001000 08:02 42 /opt/my libs/libfoo.so.1 (deleted)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Path != "/opt/my libs/libfoo.so.1 (deleted)" {
		t.Fatalf("unexpected path %q", r.Path)
	}
	if r.Filename != "libfoo.so.1 (deleted)" {
		t.Fatalf("unexpected filename %q", r.Filename)
	}
	if r.Offset != 0x1000 || !r.Shared {
		t.Fatalf("unexpected fields: %+v", r)
	}
}

func TestParseMalformedAbortsWholeParse(t *testing.T) {
	bad := []string{
		"00400000 r-xp 00000000 08:01 1",
		"zz-00401000 r-xp 00000000 08:01 1",
		"00401000-00400000 r-xp 00000000 08:01 1",
		"00400000-00401000 r-x 00000000 08:01 1",
		"00400000-00401000 rwxq 00000000 08:01 1",
		"00400000-00401000 xwrp 00000000 08:01 1",
		"00400000-00401000 r-xp 0000zz00 08:01 1",
		"00400000-00401000 r-xp 00000000 0801 1",
		"00400000-00401000 r-xp 00000000 08:01",
		"00400000-00401000 r-xp 00000000 08:01 12ab",
		"00400000-00401000",
	}

	for _, line := range bad {
		input := exampleMaps + line + "\n"
		regions, err := Parse(strings.NewReader(input))
		if err == nil {
			t.Fatalf("%q: expected error", line)
		}
		if regions != nil {
			t.Fatalf("%q: expected no regions on failure - got %d", line, len(regions))
		}
		if !errors.Is(err, ErrMalformedLine) {
			t.Fatalf("%q: expected ErrMalformedLine - got %v", line, err)
		}
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Line != 3 {
			t.Fatalf("%q: expected ParseError on line 3 - got %v", line, err)
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	a, err := Parse(strings.NewReader(exampleMaps))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(strings.NewReader(exampleMaps))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical parses - got %+v and %+v", a, b)
	}
}

func TestParseEmpty(t *testing.T) {
	regions, err := Parse(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 0 {
		t.Fatalf("expected no regions - got %d", len(regions))
	}
}

func TestModulesSortedAndUnique(t *testing.T) {
	regions := []MemoryRegion{
		{Filename: "libz.so.1"},
		{Filename: "libc.so.6"},
		{},
		{Filename: "libz.so.1"},
		{Filename: "[heap]"},
		{Filename: "cat"},
		{Filename: "ld-linux-x86-64.so.2"},
		{Filename: "libc.so.6"},
	}
	input := append([]MemoryRegion(nil), regions...)

	modules := Modules(regions)
	expected := []string{"ld-linux-x86-64.so.2", "libc.so.6", "libz.so.1"}
	if !reflect.DeepEqual(modules, expected) {
		t.Fatalf("expected %v - got %v", expected, modules)
	}
	for i := 1; i < len(modules); i++ {
		if modules[i-1] >= modules[i] {
			t.Fatalf("not strictly sorted: %v", modules)
		}
	}
	if !reflect.DeepEqual(regions, input) {
		t.Fatalf("Modules mutated its input")
	}
}

func TestRegionForAddress(t *testing.T) {
	regions := []MemoryRegion{
		{Start: 0x1000, End: 0x2000},
		{Start: 0x3000, End: 0x4000},
	}

	if r := RegionForAddress(0x1000, regions); r == nil || r.Start != 0x1000 {
		t.Fatalf("expected first region - got %v", r)
	}
	if r := RegionForAddress(0x3fff, regions); r == nil || r.Start != 0x3000 {
		t.Fatalf("expected second region - got %v", r)
	}
	if r := RegionForAddress(0x2000, regions); r != nil {
		t.Fatalf("expected nil in gap - got %v", r)
	}
	if r := RegionForAddress(0x4000, regions); r != nil {
		t.Fatalf("expected nil past end - got %v", r)
	}
}

func TestParseInodeIsDecimal(t *testing.T) {
	r, err := ParseLine("00400000-00401000 r-xp 00000000 08:01 123456 /lib/libexample.so")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Inode != 123456 {
		t.Fatalf("expected inode 123456 - got %d (0x%x)", r.Inode, r.Inode)
	}

	if _, err := ParseLine("00400000-00401000 r-xp 00000000 08:01 1a2b /lib/libexample.so"); !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine for hex inode - got %v", err)
	}
}
