package memory_map

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedLine matches every ParseError via errors.Is.
var ErrMalformedLine = errors.New("malformed memory map line")

// ParseError reports the first maps line that does not follow the descriptor grammar.
type ParseError struct {
	Line  int    // 1-based line number
	Text  string // The offending line
	Field string // Field that failed to parse
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("memory map line %d: %s: %v (%q)", e.Line, e.Field, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedLine
}

const maxLineLength = 1024 * 1024

// Parse reads a maps descriptor stream and returns one region per line, in stream order.
// A malformed line aborts the parse: either every line is returned or none are.
func Parse(r io.Reader) ([]MemoryRegion, error) {
	var regions []MemoryRegion

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		region, err := ParseLine(line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = lineNo
			}
			return nil, err
		}
		regions = append(regions, region)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read memory map: %w", err)
	}

	return regions, nil
}

// ParseLine parses a single descriptor line:
//
//	<start>-<end> <r|-><w|-><x|-><s|p> <offset> <major>:<minor> <inode> [pathname]
func ParseLine(line string) (MemoryRegion, error) {
	var region MemoryRegion
	fail := func(field string, err error) (MemoryRegion, error) {
		return MemoryRegion{}, &ParseError{Text: line, Field: field, Err: err}
	}

	addrs, rest := nextField(line)
	startHex, endHex, ok := strings.Cut(addrs, "-")
	if !ok {
		return fail("address", errors.New("missing '-' separator"))
	}
	var err error
	if region.Start, err = parseHex(startHex); err != nil {
		return fail("start address", err)
	}
	if region.End, err = parseHex(endHex); err != nil {
		return fail("end address", err)
	}
	if region.Start >= region.End {
		return fail("address", fmt.Errorf("start %x not below end %x", region.Start, region.End))
	}

	perms, rest := nextField(rest)
	if err := region.parsePerms(perms); err != nil {
		return fail("perms", err)
	}

	offset, rest := nextField(rest)
	if region.Offset, err = parseHex(offset); err != nil {
		return fail("offset", err)
	}

	dev, rest := nextField(rest)
	major, minor, ok := strings.Cut(dev, ":")
	if !ok {
		return fail("device", errors.New("missing ':' separator"))
	}
	if region.DeviceMajor, err = parseHex(major); err != nil {
		return fail("device major", err)
	}
	if region.DeviceMinor, err = parseHex(minor); err != nil {
		return fail("device minor", err)
	}

	inode, rest := nextField(rest)
	if inode == "" {
		return fail("inode", errors.New("missing field"))
	}
	// The kernel prints the inode with %lu, unlike every other numeric column.
	// Reading it as hex would corrupt real inode numbers and reject ones with digits only valid in decimal.
	if region.Inode, err = strconv.ParseUint(inode, 10, 64); err != nil {
		return fail("inode", err)
	}

	region.classifyPath(strings.TrimLeft(rest, " \t"))
	return region, nil
}

func (r *MemoryRegion) parsePerms(perms string) error {
	if len(perms) != 4 {
		return fmt.Errorf("want 4 characters, got %q", perms)
	}

	flag := func(c, set byte) (bool, error) {
		switch c {
		case set:
			return true, nil
		case '-':
			return false, nil
		}
		return false, fmt.Errorf("unexpected %q in %q", c, perms)
	}

	var err error
	if r.Readable, err = flag(perms[0], 'r'); err != nil {
		return err
	}
	if r.Writable, err = flag(perms[1], 'w'); err != nil {
		return err
	}
	if r.Executable, err = flag(perms[2], 'x'); err != nil {
		return err
	}

	switch perms[3] {
	case 's':
		r.Shared = true
	case 'p':
		r.Shared = false
	default:
		return fmt.Errorf("unexpected %q in %q", perms[3], perms)
	}
	return nil
}

// nextField splits off the next whitespace separated token.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func parseHex(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("missing field")
	}
	return strconv.ParseUint(s, 16, 64)
}
