/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package cpu

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
)

// DefaultRepeatLimit caps the number of iterations of a single REP prefixed instruction.
const DefaultRepeatLimit = 0x10000

// MaxPrefixes is the number of prefix bytes accepted in front of one opcode.
const MaxPrefixes = 14

type instructionState struct {
	opcode      byte
	isWide      bool
	rmToReg     bool
	segOverride int
	prefixes    int
	start       int
	jumpTo      int
	comment     string
	effect      processor.Effect
}

type CPU struct {
	*processor.Context
	instructionState

	image        *memory.Image
	mem          memory.Memory
	console      io.Writer
	cancel       context.Context
	repeatLimit  int
	interceptors map[uint16]processor.InterruptHandler
}

// Instruction is the outcome of a single step.
type Instruction struct {
	Offset  int
	Size    int
	Text    string
	Comment string
	Effect  processor.Effect
}

// Lines returns the listing lines of the instruction. A comment, if any, follows on its own line.
func (i Instruction) Lines() []string {
	if i.Comment == "" {
		return []string{i.Text}
	}
	return []string{i.Text, i.Comment}
}

func NewCPU(image *memory.Image, ctx *processor.Context) *CPU {
	if ctx == nil {
		ctx = &processor.Context{}
	}
	return &CPU{
		Context:      ctx,
		image:        image,
		mem:          image,
		console:      io.Discard,
		repeatLimit:  DefaultRepeatLimit,
		interceptors: make(map[uint16]processor.InterruptHandler),
	}
}

func (p *CPU) SetConsole(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	p.console = w
}

// SetMemory routes operand reads and writes through m. Instruction fetch
// always uses the image. A nil m restores direct image access.
func (p *CPU) SetMemory(m memory.Memory) {
	if m == nil {
		m = p.image
	}
	p.mem = m
}

// SetRepeatLimit sets the iteration cap for repeated string instructions. Zero disables it.
func (p *CPU) SetRepeatLimit(n int) {
	p.repeatLimit = n
}

// SetCancel makes long running repeats observe ctx.
func (p *CPU) SetCancel(ctx context.Context) {
	p.cancel = ctx
}

func (p *CPU) GetContext() *processor.Context {
	return p.Context
}

func (p *CPU) GetImage() *memory.Image {
	return p.image
}

func (p *CPU) GetConsole() io.Writer {
	return p.console
}

func interruptKey(vector, function byte) uint16 {
	return uint16(vector)<<8 | uint16(function)
}

// InstallInterruptHandler registers a service for the software interrupt vector
// when AH holds function.
func (p *CPU) InstallInterruptHandler(vector, function byte, handler processor.InterruptHandler) error {
	if handler == nil {
		return errors.New("invalid interrupt handler")
	}
	key := interruptKey(vector, function)
	if _, ok := p.interceptors[key]; ok {
		return fmt.Errorf("interrupt %02Xh function %02Xh is already installed", vector, function)
	}
	p.interceptors[key] = handler
	return nil
}

func (p *CPU) lookupInterrupt(vector, function byte) processor.InterruptHandler {
	return p.interceptors[interruptKey(vector, function)]
}

// Step decodes the instruction at the cursor. With execute set it also applies
// its effects, including control transfers, and syncs IP with the cursor.
func (p *CPU) Step(execute bool) (Instruction, error) {
	p.instructionState = instructionState{
		segOverride: -1,
		start:       p.image.Pos(),
		jumpTo:      -1,
	}

	text, err := p.dispatch(execute)
	inst := Instruction{
		Offset:  p.start,
		Size:    p.image.Pos() - p.start,
		Text:    text,
		Comment: p.comment,
		Effect:  p.effect,
	}
	if err != nil {
		return inst, err
	}

	if execute {
		if p.jumpTo >= 0 {
			p.image.Seek(p.jumpTo)
		}
		p.IP = uint16(p.image.Pos())
	}
	return inst, nil
}

func (p *CPU) dispatch(execute bool) (string, error) {
	op, err := p.image.ReadByte()
	if err != nil {
		return "", err
	}

	p.opcode = op
	p.isWide = op&1 != 0
	p.rmToReg = op&2 != 0

	handler := opcodeTable[op]
	if handler == nil {
		return "", processor.UnsupportedOpcodeError{Opcode: op}
	}
	return handler(p, execute)
}

// prefix counts a prefix byte of the current instruction.
func (p *CPU) prefix() error {
	if p.prefixes++; p.prefixes > MaxPrefixes {
		return fmt.Errorf("%w: more than %d before the opcode", processor.ErrPrefixLimit, MaxPrefixes)
	}
	return nil
}

func (p *CPU) jump(target uint16) {
	p.jumpTo = int(target)
}

func (p *CPU) push16(v uint16) {
	p.Stack.Push(v)
}

func (p *CPU) pop16() (uint16, error) {
	return p.Stack.Pop()
}

func (p *CPU) invalidOpcode() error {
	debug.Log.WithField("opcode", fmt.Sprintf("0x%02X", p.opcode)).Debug("invalid sub-opcode")
	return processor.UnsupportedOpcodeError{Opcode: p.opcode}
}
