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

package processor

import (
	"errors"
	"fmt"
	"io"

	"github.com/andreas-jonsson/dosdasm/emulator/memory"
)

var (
	ErrCPUHalt                  = errors.New("CPU HALT")
	ErrInterruptNotHandled      = errors.New("interrupt not handled")
	ErrStackUnderflow           = errors.New("stack underflow")
	ErrUnknownRegister          = errors.New("unknown register")
	ErrInconsistentRepeatDecode = errors.New("inconsistent repeat decode")
	ErrRepeatLimit              = errors.New("repeat limit reached")
	ErrDivideError              = errors.New("divide error")
	ErrPrefixLimit              = errors.New("too many prefixes")
)

type UnsupportedOpcodeError struct {
	Opcode byte
}

func (e UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode: 0x%02X", e.Opcode)
}

// Context is the complete CPU state of one run. Every run owns its own.
type Context struct {
	Registers
	Stack Stack
}

func (c *Context) Reset() {
	c.Registers.Reset()
	c.Stack.Reset()
}

// Clone returns a deep copy.
func (c *Context) Clone() *Context {
	n := &Context{Registers: c.Registers}
	n.Stack.values = append([]uint16(nil), c.Stack.values...)
	return n
}

type EffectKind byte

const (
	NoEffect EffectKind = iota
	RangeEffect
)

// Effect is the side effect record of an interrupt service. For RangeEffect
// the bytes [Start, End) of the image were consumed or emitted.
type Effect struct {
	Kind       EffectKind
	Start, End memory.Pointer
}

func (e Effect) String() string {
	if e.Kind == NoEffect {
		return "none"
	}
	return fmt.Sprintf("[%v,%v)", e.Start, e.End)
}

// Processor is what interrupt services get to see of the running machine.
type Processor interface {
	GetContext() *Context
	GetImage() *memory.Image
	GetConsole() io.Writer
}

// InterruptHandler services one (vector, function) pair. It must produce the
// same text whether or not execute is set, and only touch state when it is.
// The comment may be empty.
type InterruptHandler interface {
	HandleInterrupt(p Processor, execute bool) (comment string, effect Effect, err error)
}

type InterruptHandlerFunc func(p Processor, execute bool) (string, Effect, error)

func (f InterruptHandlerFunc) HandleInterrupt(p Processor, execute bool) (string, Effect, error) {
	return f(p, execute)
}
