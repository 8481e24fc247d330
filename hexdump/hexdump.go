// Package hexdump renders bytes read from a process as a coloured hex and ASCII
// listing. When given the process's regions it also lists the 64-bit words of
// each line that point into mapped memory.
package hexdump

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"trmem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

const pointerSize = 8

// HexDumpOptions controls the layout and colours of a dump
type HexDumpOptions struct {
	BytesPerLine int    // Bytes per line, 16 by default
	GroupSize    int    // Bytes printed without a separating space
	ShowASCII    bool   // Print the ASCII column
	ShowOffset   bool   // Print the address column
	StartOffset  uint64 // Address of the first byte
	OffsetWidth  int    // Width of the address column in hex digits
	MaxLines     int    // Stop after this many lines, 0 for no limit

	// Plain disables every ANSI escape, for output that is piped or compared.
	Plain bool

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ASCIIColor        coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode
	ZeroColor         coloransi.ColorCode
	PointerColor      coloransi.ColorCode

	HighlightPattern         []byte
	HighlightColor           coloransi.ColorCode
	HighlightBackgroundColor coloransi.ColorCode

	// ShowPointers lists the aligned words of each line that fall inside Regions.
	ShowPointers bool
	Regions      []memory_map.MemoryRegion // Sorted by Start
}

// DefaultOptions returns a 16 byte per line coloured layout
func DefaultOptions() HexDumpOptions {
	return HexDumpOptions{
		BytesPerLine:             16,
		GroupSize:                1,
		ShowASCII:                true,
		ShowOffset:               true,
		OffsetWidth:              8,
		OffsetColor:              coloransi.Cyan,
		HexColor:                 coloransi.Green,
		ASCIIColor:               coloransi.White,
		NonPrintableColor:        coloransi.Red,
		ZeroColor:                coloransi.BrightBlack,
		PointerColor:             coloransi.Yellow,
		HighlightColor:           coloransi.Yellow,
		HighlightBackgroundColor: coloransi.Black,
	}
}

// Dump returns the dump of data as a string
func Dump(data []byte, options HexDumpOptions) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes the dump of data to writer, one line per BytesPerLine bytes
func DumpToWriter(writer io.Writer, data []byte, options HexDumpOptions) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	// Computed over the whole buffer so a pattern may straddle two lines.
	highlight := highlightMask(data, options.HighlightPattern)

	for line, offset := 0, 0; offset < len(data); line, offset = line+1, offset+options.BytesPerLine {
		if options.MaxLines > 0 && line >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			return
		}

		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], highlight[offset:end], options.StartOffset+uint64(offset), &options)
	}
}

func formatLine(writer io.Writer, data []byte, highlight []bool, addr uint64, options *HexDumpOptions) {
	if options.ShowOffset {
		fmt.Fprint(writer, options.paint(options.OffsetColor, fmt.Sprintf("%0*x", options.OffsetWidth, addr)), "  ")
	}

	fmt.Fprint(writer, formatHex(data, highlight, options))
	if pad := hexWidth(options.BytesPerLine, options) - hexWidth(len(data), options); pad > 0 {
		fmt.Fprint(writer, strings.Repeat(" ", pad))
	}

	var pointers []string
	if options.ShowPointers {
		pointers = findPointers(data, options.Regions)
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ", formatASCII(data, highlight, options))
		if len(pointers) > 0 {
			if pad := asciiWidth(options.BytesPerLine, options) - asciiWidth(len(data), options); pad > 0 {
				fmt.Fprint(writer, strings.Repeat(" ", pad))
			}
		}
	}

	if len(pointers) > 0 {
		for i, p := range pointers {
			pointers[i] = options.paint(options.PointerColor, p)
		}
		fmt.Fprint(writer, " | ", strings.Join(pointers, " "))
	}

	fmt.Fprintln(writer)
}

// splitGroups is the number of groups left of the " | " divider, 0 when the line has none.
func splitGroups(n int, options *HexDumpOptions) int {
	if options.BytesPerLine < 8 {
		return 0
	}
	left := max(options.BytesPerLine/options.GroupSize, 1) / 2
	if left == 0 || groups(n, options) <= left {
		return 0
	}
	return left
}

func groups(n int, options *HexDumpOptions) int {
	return (n + options.GroupSize - 1) / options.GroupSize
}

// hexWidth is the printed width of the hex column for n bytes, escapes excluded.
func hexWidth(n int, options *HexDumpOptions) int {
	if n == 0 {
		return 0
	}
	width := 2*n + groups(n, options) - 1
	if splitGroups(n, options) > 0 {
		width += 2
	}
	return width
}

func asciiWidth(n int, options *HexDumpOptions) int {
	if options.BytesPerLine >= 8 && n > options.BytesPerLine/2 {
		return n + 1
	}
	return n
}

func formatHex(data []byte, highlight []bool, options *HexDumpOptions) string {
	var parts []string
	var group strings.Builder

	for i, b := range data {
		hex := fmt.Sprintf("%02x", b)
		switch {
		case highlight[i]:
			group.WriteString(options.paintHighlight(hex))
		case b == 0:
			group.WriteString(options.paint(options.ZeroColor, hex))
		default:
			group.WriteString(options.paint(options.HexColor, hex))
		}

		if (i+1)%options.GroupSize == 0 || i == len(data)-1 {
			parts = append(parts, group.String())
			group.Reset()
		}
	}

	if left := splitGroups(len(data), options); left > 0 {
		return strings.Join(parts[:left], " ") + " | " + strings.Join(parts[left:], " ")
	}
	return strings.Join(parts, " ")
}

func formatASCII(data []byte, highlight []bool, options *HexDumpOptions) string {
	var sb strings.Builder
	mid := -1
	if options.BytesPerLine >= 8 && len(data) > options.BytesPerLine/2 {
		mid = options.BytesPerLine / 2
	}

	for i, b := range data {
		if i == mid {
			sb.WriteByte(' ')
		}

		c := rune(b)
		switch {
		case highlight[i] && unicode.IsPrint(c) && c < unicode.MaxASCII:
			sb.WriteString(options.paintHighlight(string(c)))
		case highlight[i]:
			sb.WriteString(options.paintHighlight("."))
		case b == 0:
			sb.WriteString(options.paint(options.ZeroColor, "."))
		case c >= unicode.MaxASCII || !unicode.IsPrint(c):
			sb.WriteString(options.paint(options.NonPrintableColor, "."))
		default:
			sb.WriteString(options.paint(options.ASCIIColor, string(c)))
		}
	}

	return sb.String()
}

func highlightMask(data, pattern []byte) []bool {
	mask := make([]bool, len(data))
	if len(pattern) == 0 {
		return mask
	}

	for i := 0; i+len(pattern) <= len(data); {
		j := bytes.Index(data[i:], pattern)
		if j < 0 {
			break
		}
		for k := range pattern {
			mask[i+j+k] = true
		}
		i += j + 1
	}
	return mask
}

// findPointers returns every aligned little-endian word of data that lies inside one of regions.
func findPointers(data []byte, regions []memory_map.MemoryRegion) []string {
	if len(regions) == 0 {
		return nil
	}

	var pointers []string
	for i := 0; i+pointerSize <= len(data); i += pointerSize {
		ptr := binary.LittleEndian.Uint64(data[i : i+pointerSize])
		if memory_map.RegionForAddress(ptr, regions) != nil {
			pointers = append(pointers, fmt.Sprintf("0x%x", ptr))
		}
	}
	return pointers
}

func (o *HexDumpOptions) paint(fg coloransi.ColorCode, s string) string {
	if o.Plain {
		return s
	}
	return coloransi.Foreground(fg, s)
}

func (o *HexDumpOptions) paintHighlight(s string) string {
	if o.Plain {
		return s
	}
	return coloransi.Color(o.HighlightColor, o.HighlightBackgroundColor, s)
}

// HexDump builds a dump configuration step by step
type HexDump struct {
	Options HexDumpOptions
}

// NewHexDump returns a HexDump with DefaultOptions
func NewHexDump() *HexDump {
	return &HexDump{
		Options: DefaultOptions(),
	}
}

func (h *HexDump) SetBytesPerLine(value int) *HexDump {
	h.Options.BytesPerLine = value
	return h
}

func (h *HexDump) SetGroupSize(value int) *HexDump {
	h.Options.GroupSize = value
	return h
}

// SetStartOffset sets the address printed for the first byte
func (h *HexDump) SetStartOffset(value uint64) *HexDump {
	h.Options.StartOffset = value
	if value > 0xffffffff {
		h.Options.OffsetWidth = 16
	}
	return h
}

func (h *HexDump) SetMaxLines(value int) *HexDump {
	h.Options.MaxLines = value
	return h
}

func (h *HexDump) SetPlain(value bool) *HexDump {
	h.Options.Plain = value
	return h
}

// SetHighlight marks every occurrence of pattern
func (h *HexDump) SetHighlight(pattern []byte, foreground, background coloransi.ColorCode) *HexDump {
	h.Options.HighlightPattern = pattern
	h.Options.HighlightColor = foreground
	h.Options.HighlightBackgroundColor = background
	return h
}

// EnablePointerChecking lists words that point into regions. regions is copied and sorted.
func (h *HexDump) EnablePointerChecking(regions []memory_map.MemoryRegion) *HexDump {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(a, b memory_map.MemoryRegion) int {
		return cmp.Compare(a.Start, b.Start)
	})

	h.Options.ShowPointers = true
	h.Options.Regions = sorted
	return h
}

func (h *HexDump) Dump(data []byte) string {
	return Dump(data, h.Options)
}

func (h *HexDump) DumpToWriter(writer io.Writer, data []byte) {
	DumpToWriter(writer, data, h.Options)
}
