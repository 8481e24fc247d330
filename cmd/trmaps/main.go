//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"trmem/hexdump"
	"trmem/process"
	"trmem/process/memory_map"
	"trmem/process_linux"

	"github.com/spf13/cobra"
)

type options struct {
	pidFlag     int
	regionsFlag bool
	modulesFlag bool
	readFlag    string
	sizeFlag    uint
	callFlag    string
	plainFlag   bool
	debugFlag   bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCommand := &cobra.Command{
		Use:   "trmaps [process-name]",
		Short: "Inspect the memory of a running process.",
		Long: `Inspect the memory of a running process.

The target is resolved by its command name (as in /proc/<pid>/comm) or given with --pid.

	trmaps nginx --regions
	trmaps nginx --modules
	trmaps --pid 4242 --read 0x7f00deadbeef --size 64
	trmaps nginx --call 0x401a2c
`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := rootCommand.Flags()
	flags.IntVarP(&opts.pidFlag, "pid", "p", 0, "Process ID to attach to instead of resolving a name")
	flags.BoolVarP(&opts.regionsFlag, "regions", "r", false, "Print every memory region")
	flags.BoolVarP(&opts.modulesFlag, "modules", "m", false, "Print the loaded shared objects")
	flags.StringVar(&opts.readFlag, "read", "", "Hex address to read from")
	flags.UintVar(&opts.sizeFlag, "size", 16, "Number of bytes to read with --read")
	flags.StringVar(&opts.callFlag, "call", "", "Hex address of an E8 rel32 call to resolve")
	flags.BoolVar(&opts.plainFlag, "plain", false, "Dump without colours")
	flags.BoolVar(&opts.debugFlag, "debug", false, "Log diagnostics")

	return rootCommand
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	var procOpts []process_linux.Option
	if opts.debugFlag {
		procOpts = append(procOpts, process_linux.WithDiagnostics())
	}

	proc, err := openProcess(args, opts.pidFlag, procOpts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: pid %d\n", proc.Name(), proc.PID())

	// --read needs the regions to mark pointers in the dump.
	if opts.regionsFlag || opts.modulesFlag || opts.readFlag != "" {
		if err := proc.MapRegions(); err != nil {
			return fmt.Errorf("map regions: %w", err)
		}
	}

	if opts.regionsFlag {
		for _, region := range proc.Regions() {
			fmt.Fprintln(out, region.String())
		}
	}

	if opts.modulesFlag {
		for _, module := range proc.Modules() {
			fmt.Fprintln(out, module)
		}
	}

	if opts.readFlag != "" {
		addr, err := parseAddress(opts.readFlag)
		if err != nil {
			return err
		}

		data, res := proc.ReadMemory(addr, process.ProcessMemorySize(opts.sizeFlag))
		if res.Failed() {
			return fmt.Errorf("read %s: %w", addr.ToString(), res.Err)
		}
		fmt.Fprintf(out, "read %s: %s\n", addr.ToString(), res)
		newDumper(uint64(addr), proc.Regions(), opts.plainFlag).DumpToWriter(out, data)
	}

	if opts.callFlag != "" {
		addr, err := parseAddress(opts.callFlag)
		if err != nil {
			return err
		}

		target, err := proc.CallTarget(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "call at %s -> %s\n", addr.ToString(), target.ToString())
	}

	return nil
}

func newDumper(addr uint64, regions []memory_map.MemoryRegion, plain bool) *hexdump.HexDump {
	return hexdump.NewHexDump().
		SetStartOffset(addr).
		SetPlain(plain).
		EnablePointerChecking(regions)
}

func openProcess(args []string, pid int, opts []process_linux.Option) (*process_linux.LinuxProcess, error) {
	if pid != 0 {
		return process_linux.NewWithPID(process.ProcessID(pid), opts...)
	}

	if len(args) == 0 {
		return nil, errors.New("a process name or --pid is required")
	}

	proc := process_linux.Open(args[0], opts...)
	if !proc.IsValid() {
		return nil, fmt.Errorf("no process named %q", args[0])
	}
	return proc, nil
}

func parseAddress(s string) (process.ProcessMemoryAddress, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return process.ProcessMemoryAddress(v), nil
}
