package process

import (
	"encoding/binary"
	"fmt"
)

const (
	// CallOpcode is the x86 near relative call opcode. It is documentation only:
	// RelativeCallTarget never checks it.
	CallOpcode = 0xE8

	// CallInstructionSize is the length of an E8 rel32 instruction.
	CallInstructionSize = 5
)

// RelativeCallTarget computes the destination of a 5-byte relative call at addr
// given the four displacement bytes that follow the opcode.
func RelativeCallTarget(addr ProcessMemoryAddress, rel32 [4]byte) ProcessMemoryAddress {
	disp := int32(binary.LittleEndian.Uint32(rel32[:]))
	return addr.Add(CallInstructionSize + int64(disp))
}

// CallTarget reads the displacement of the call instruction the caller asserts is at addr
// and returns the absolute target. The opcode byte itself is neither read nor validated.
func CallTarget(proc Process, addr ProcessMemoryAddress) (ProcessMemoryAddress, error) {
	var rel32 [4]byte

	data, res := proc.ReadMemory(addr+1, ProcessMemorySize(len(rel32)))
	if err := res.AsError(); err != nil {
		return 0, fmt.Errorf("read call displacement at %s: %w", addr.ToString(), err)
	}

	copy(rel32[:], data)
	return RelativeCallTarget(addr, rel32), nil
}
