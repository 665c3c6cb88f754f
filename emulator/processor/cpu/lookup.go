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
	"math/bits"
	"strings"

	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
)

type addrMode byte

const (
	modeIndirect addrMode = iota
	modeDisp8
	modeDisp16
	modeRegister
	modeDirect
)

// operand is a decoded ModRM byte, including any displacement that followed it.
// For memory modes addr holds the resolved segment:offset.
type operand struct {
	mode    addrMode
	reg, rm byte
	disp    int16
	seg     processor.SegReg
	addr    memory.Address
	text    string
}

func (o *operand) isMemory() bool {
	return o.mode != modeRegister
}

func (o *operand) pointer() memory.Pointer {
	return o.addr.Pointer()
}

var modRMLookup = [8]struct {
	name     string
	stackSeg bool
	offset   func(r *processor.Registers) uint16
}{
	{"bx+si", false, func(r *processor.Registers) uint16 { return r.BX() + r.SI() }},
	{"bx+di", false, func(r *processor.Registers) uint16 { return r.BX() + r.DI() }},
	{"bp+si", true, func(r *processor.Registers) uint16 { return r.BP() + r.SI() }},
	{"bp+di", true, func(r *processor.Registers) uint16 { return r.BP() + r.DI() }},
	{"si", false, func(r *processor.Registers) uint16 { return r.SI() }},
	{"di", false, func(r *processor.Registers) uint16 { return r.DI() }},
	{"bp", true, func(r *processor.Registers) uint16 { return r.BP() }},
	{"bx", false, func(r *processor.Registers) uint16 { return r.BX() }},
}

func regName(idx byte, wide bool) string {
	if wide {
		return processor.Reg(idx & 7).String()
	}
	return processor.Reg8(idx & 7).String()
}

func hex(v uint16) string {
	return fmt.Sprintf("0x%X", v)
}

func signedHex(v int16) string {
	if v < 0 {
		return fmt.Sprintf("-0x%X", -int32(v))
	}
	return fmt.Sprintf("0x%X", v)
}

func paddedHex(v uint16, wide bool) string {
	if wide {
		return fmt.Sprintf("0x%04X", v)
	}
	return fmt.Sprintf("0x%02X", v)
}

func format(mnemonic string, operands ...string) string {
	if len(operands) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(operands, ",")
}

// sized returns the operand text with an explicit width for memory operands.
// Used where no register operand implies the width.
func (p *CPU) sized(o *operand) string {
	switch {
	case !o.isMemory():
		return o.text
	case p.isWide:
		return "word " + o.text
	default:
		return "byte " + o.text
	}
}

func (p *CPU) segmentPrefix(def processor.SegReg) (processor.SegReg, string) {
	if p.segOverride < 0 {
		return def, ""
	}
	seg := processor.SegReg(p.segOverride)
	return seg, seg.String() + ":"
}

// readModRM consumes a ModRM byte and its displacement. Registers are read to
// resolve the address but nothing is written.
func (p *CPU) readModRM() (operand, error) {
	b, err := p.image.ReadByte()
	if err != nil {
		return operand{}, err
	}

	o := operand{reg: (b >> 3) & 7, rm: b & 7}
	mod := b >> 6

	if mod == 3 {
		o.mode = modeRegister
		o.text = regName(o.rm, p.isWide)
		return o, nil
	}

	if mod == 0 && o.rm == 6 {
		offset, err := p.image.ReadWord()
		if err != nil {
			return operand{}, err
		}
		o.mode = modeDirect
		o.disp = int16(offset)
		p.directOperand(&o, offset)
		return o, nil
	}

	switch mod {
	case 0:
		o.mode = modeIndirect
	case 1:
		o.mode = modeDisp8
		d, err := p.image.ReadInt8()
		if err != nil {
			return operand{}, err
		}
		o.disp = int16(d)
	case 2:
		o.mode = modeDisp16
		if o.disp, err = p.image.ReadInt16(); err != nil {
			return operand{}, err
		}
	}

	entry := &modRMLookup[o.rm]
	def := processor.DS
	if entry.stackSeg {
		def = processor.SS
	}

	var prefix string
	o.seg, prefix = p.segmentPrefix(def)
	o.addr = memory.NewAddress(p.Seg(o.seg), entry.offset(&p.Registers)+uint16(o.disp))

	switch {
	case o.mode == modeIndirect:
		o.text = fmt.Sprintf("%s[%s]", prefix, entry.name)
	case o.disp < 0:
		o.text = fmt.Sprintf("%s[%s%s]", prefix, entry.name, signedHex(o.disp))
	default:
		o.text = fmt.Sprintf("%s[%s+%s]", prefix, entry.name, signedHex(o.disp))
	}
	return o, nil
}

func (p *CPU) directOperand(o *operand, offset uint16) {
	var prefix string
	o.seg, prefix = p.segmentPrefix(processor.DS)
	o.addr = memory.NewAddress(p.Seg(o.seg), offset)
	o.text = fmt.Sprintf("%s[%s]", prefix, hex(offset))
}

func (p *CPU) readRM(o *operand) (uint16, error) {
	if !o.isMemory() {
		return p.readReg(o.rm), nil
	}
	if p.isWide {
		return p.mem.ReadWordAt(o.pointer())
	}
	v, err := p.mem.ReadByteAt(o.pointer())
	return uint16(v), err
}

func (p *CPU) writeRM(o *operand, v uint16) error {
	if !o.isMemory() {
		p.writeReg(o.rm, v)
		return nil
	}
	if p.isWide {
		return p.mem.WriteWordAt(o.pointer(), v)
	}
	return p.mem.WriteByteAt(o.pointer(), byte(v))
}

func (p *CPU) readReg(idx byte) uint16 {
	if p.isWide {
		return p.Get(processor.Reg(idx & 7))
	}
	return uint16(p.Get8(processor.Reg8(idx & 7)))
}

func (p *CPU) writeReg(idx byte, v uint16) {
	if p.isWide {
		p.Set(processor.Reg(idx&7), v)
		return
	}
	p.Set8(processor.Reg8(idx&7), byte(v))
}

func (p *CPU) readImm() (uint16, error) {
	if p.isWide {
		return p.image.ReadWord()
	}
	v, err := p.image.ReadByte()
	return uint16(v), err
}

func parity(v byte) bool {
	return bits.OnesCount8(v)&1 == 0
}
