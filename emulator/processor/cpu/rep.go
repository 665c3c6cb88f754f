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
	"fmt"

	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
)

var stringNames = map[byte]string{
	0xA4: "movsb", 0xA5: "movsw",
	0xA6: "cmpsb", 0xA7: "cmpsw",
	0xAA: "stosb", 0xAB: "stosw",
	0xAC: "lodsb", 0xAD: "lodsw",
	0xAE: "scasb", 0xAF: "scasw",
}

func isStringOp(op byte) bool {
	_, ok := stringNames[op]
	return ok
}

func isCompareString(op byte) bool {
	switch op {
	case 0xA6, 0xA7, 0xAE, 0xAF:
		return true
	}
	return false
}

func isSegOverride(op byte) bool {
	switch op {
	case 0x26, 0x2E, 0x36, 0x3E:
		return true
	}
	return false
}

func (p *CPU) readMem(addr memory.Pointer) (uint16, error) {
	if p.isWide {
		return p.mem.ReadWordAt(addr)
	}
	v, err := p.mem.ReadByteAt(addr)
	return uint16(v), err
}

func (p *CPU) writeMem(addr memory.Pointer, v uint16) error {
	if p.isWide {
		return p.mem.WriteWordAt(addr, v)
	}
	return p.mem.WriteByteAt(addr, byte(v))
}

func (p *CPU) stringStep() uint16 {
	step := uint16(1)
	if p.isWide {
		step = 2
	}
	if p.Flags.GetBool(processor.Direction) {
		return -step
	}
	return step
}

func opString(p *CPU, exec bool) (string, error) {
	text := stringNames[p.opcode]
	if !exec {
		return text, nil
	}

	srcSeg, _ := p.segmentPrefix(processor.DS)
	src := memory.NewPointer(p.Seg(srcSeg), p.SI())
	dst := memory.NewPointer(p.ES(), p.DI())
	step := p.stringStep()

	switch p.opcode &^ 1 {
	case 0xA4: // MOVS
		v, err := p.readMem(src)
		if err != nil {
			return text, err
		}
		if err := p.writeMem(dst, v); err != nil {
			return text, err
		}
		p.SetSI(p.SI() + step)
		p.SetDI(p.DI() + step)
	case 0xA6: // CMPS
		a, err := p.readMem(src)
		if err != nil {
			return text, err
		}
		b, err := p.readMem(dst)
		if err != nil {
			return text, err
		}
		p.alu(7, a, b)
		p.SetSI(p.SI() + step)
		p.SetDI(p.DI() + step)
	case 0xAA: // STOS
		if err := p.writeMem(dst, p.readReg(0)); err != nil {
			return text, err
		}
		p.SetDI(p.DI() + step)
	case 0xAC: // LODS
		v, err := p.readMem(src)
		if err != nil {
			return text, err
		}
		p.writeReg(0, v)
		p.SetSI(p.SI() + step)
	case 0xAE: // SCAS
		b, err := p.readMem(dst)
		if err != nil {
			return text, err
		}
		p.alu(7, p.readReg(0), b)
		p.SetDI(p.DI() + step)
	}
	return text, nil
}

// peekOpcode returns the next opcode after any segment override prefixes.
func (p *CPU) peekOpcode() (byte, error) {
	n := p.prefixes
	for pos := p.image.Pos(); ; pos++ {
		op, err := p.image.ReadByteAt(memory.Pointer(pos))
		if err != nil {
			return 0, err
		}
		if !isSegOverride(op) {
			return op, nil
		}
		if n++; n > MaxPrefixes {
			return 0, fmt.Errorf("%w: more than %d before the opcode", processor.ErrPrefixLimit, MaxPrefixes)
		}
	}
}

// opRepeat handles REP/REPE (0xF3) and REPNE (0xF2). The wrapped string
// instruction runs while CX is non-zero, decrementing CX after each pass.
// Compare instructions also stop on ZF: REPE when it is cleared and REPNE
// when it is set. Every pass must decode to the same text.
func opRepeat(p *CPU, exec bool) (string, error) {
	repne := p.opcode == 0xF2
	if err := p.prefix(); err != nil {
		return "", err
	}

	op, err := p.peekOpcode()
	if err != nil {
		return "", err
	}

	name := "rep"
	switch {
	case repne:
		name = "repne"
	case isCompareString(op):
		name = "repe"
	}

	if !isStringOp(op) {
		text, err := p.dispatch(exec)
		return format(name, text), err
	}
	if !exec || p.CX() == 0 {
		text, err := p.dispatch(false)
		return format(name, text), err
	}

	start, prefixes := p.image.Pos(), p.prefixes
	var text string

	for n := 0; p.CX() != 0; n++ {
		if p.repeatLimit > 0 && n >= p.repeatLimit {
			return format(name, text), fmt.Errorf("%w: %d iterations of %s", processor.ErrRepeatLimit, n, text)
		}
		if p.cancel != nil && n&0x3FF == 0 {
			if err := p.cancel.Err(); err != nil {
				return format(name, text), err
			}
		}

		p.image.Seek(start)
		p.prefixes = prefixes
		t, err := p.dispatch(true)
		if err != nil {
			return format(name, t), err
		}

		if n == 0 {
			text = t
		} else if t != text {
			return format(name, text), fmt.Errorf("%w: %q became %q", processor.ErrInconsistentRepeatDecode, text, t)
		}

		p.SetCX(p.CX() - 1)
		if isCompareString(p.opcode) && p.Flags.GetBool(processor.Zero) == repne {
			break
		}
	}
	return format(name, text), nil
}
