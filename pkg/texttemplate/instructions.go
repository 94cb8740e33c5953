// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"
	"strings"
)

// InstructionSet names the builtins generated code calls into.
type InstructionSet struct {
	Write        InstructionOp
	Print        InstructionOp
	StartCapture InstructionOp
	EndCapture   InstructionOp

	// Result receives the template's trailing value
	Result string
}

func NewInstructionSet() *InstructionSet {
	return &InstructionSet{
		Write:        InstructionOp{"__ytpl_write"},
		Print:        InstructionOp{"__ytpl_print"},
		StartCapture: InstructionOp{"__ytpl_start_capture"},
		EndCapture:   InstructionOp{"__ytpl_end_capture"},
		Result:       "__ytpl_result",
	}
}

func (is *InstructionSet) NewWrite(textIdx int) Instruction {
	return is.Write.WithArgs(fmt.Sprintf("%d", textIdx))
}

// NewPrint wraps possibly multi-line code; code starts at the returned instruction's CodeOffset.
func (is *InstructionSet) NewPrint(code string) Instruction {
	prefix := is.Print.Name + "(("
	return Instruction{op: is.Print, code: prefix + code + "))", codeOffset: len(prefix)}
}

func (is *InstructionSet) NewCode(code string) Instruction {
	return Instruction{code: code}
}

// IsOutputOp reports whether calling name produces template output.
func (is *InstructionSet) IsOutputOp(name string) bool {
	return name == is.Write.Name || name == is.Print.Name
}

func (is *InstructionSet) IsInstruction(name string) bool {
	return strings.HasPrefix(name, "__ytpl_")
}

type InstructionOp struct {
	Name string
}

func (op InstructionOp) WithArgs(args ...string) Instruction {
	return Instruction{op: op, code: fmt.Sprintf("%s(%s)", op.Name, strings.Join(args, ", ")), codeOffset: -1}
}

type Instruction struct {
	op   InstructionOp
	code string

	// byte offset of user code within code; -1 when fully generated
	codeOffset int
}

func (i Instruction) Op() InstructionOp { return i.op }
func (i Instruction) AsString() string  { return i.code }
func (i Instruction) CodeOffset() int   { return i.codeOffset }

// Lines splits a multi-line instruction; only the first line keeps the code offset.
func (i Instruction) Lines() []Instruction {
	pieces := strings.Split(i.code, "\n")
	if len(pieces) == 1 {
		return []Instruction{i}
	}
	var result []Instruction
	for idx, piece := range pieces {
		offset := i.codeOffset
		if idx > 0 && offset >= 0 {
			offset = 0
		}
		result = append(result, Instruction{op: i.op, code: piece, codeOffset: offset})
	}
	return result
}
